package cli

import (
	"github.com/spf13/cobra"

	"github.com/lucasnoah/mediawar/internal/prompt"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage agent prompt templates",
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in prompt templates",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range prompt.Names() {
			cmd.Println(name)
		}
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <agent>",
	Short: "Print an agent's built-in prompt template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tmpl, err := prompt.Resolve(args[0], "", "")
		if err != nil {
			return err
		}
		cmd.Print(tmpl)
		return nil
	},
}

var promptsInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Copy the built-in templates to ~/.mediawar/templates for editing",
	Long: `Writes the built-in templates to the templates directory, skipping files that
already exist. Point an agent at a template with prompt_template in the config;
files in the working directory take precedence over the templates directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = prompt.TemplateDir()
		}
		written, err := prompt.InstallBuiltinTemplates(dir)
		if err != nil {
			return err
		}
		for _, p := range written {
			cmd.Printf("  wrote %s\n", p)
		}
		cmd.Printf("%d template(s) installed in %s\n", len(written), dir)
		return nil
	},
}

func init() {
	promptsInstallCmd.Flags().String("dir", "", "target directory (default ~/.mediawar/templates)")
	promptsCmd.AddCommand(promptsListCmd)
	promptsCmd.AddCommand(promptsShowCmd)
	promptsCmd.AddCommand(promptsInstallCmd)
}
