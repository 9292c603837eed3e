package cli

import (
	"github.com/spf13/cobra"

	"github.com/lucasnoah/mediawar/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local control API",
	Long: `Start a JSON control API on localhost for driving runs from a browser or
another tool: run state, scout, topic selection, approvals, step mode,
storyboard images, history, and a Server-Sent Events stream of the run log
at /api/logs/stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Web.Port, _ = cmd.Flags().GetInt("port")
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		cmd.Printf("MediaWar control API: http://localhost:%d/api/state\n", cfg.Web.Port)
		return web.NewServer(a.ctrl, cfg.Web.Port, logger.Named("web")).ListenAndServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (default from config)")
}
