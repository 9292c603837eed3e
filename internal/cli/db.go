package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mediawar/internal/config"
	"github.com/lucasnoah/mediawar/internal/history"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}
		switch cfg.History.Backend {
		case config.BackendNone:
			cmd.Println("History is disabled; nothing to migrate.")
			return nil
		case config.BackendPostgres:
			pg, err := history.OpenPostgres(cmd.Context(), cfg.PostgresDSN())
			if err != nil {
				return err
			}
			defer pg.Close()
			if err := pg.Migrate(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("Postgres table %s is up to date.\n", history.Table)
			return nil
		default:
			d, err := openSQLite(cfg)
			if err != nil {
				return err
			}
			defer d.Close()
			cmd.Printf("Database %s is up to date.\n", d.Path())
			return nil
		}
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the database (destructive!)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to reset without --yes: every archived script will be deleted")
		}
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}
		switch cfg.History.Backend {
		case config.BackendNone:
			cmd.Println("History is disabled; nothing to reset.")
			return nil
		case config.BackendPostgres:
			pg, err := history.OpenPostgres(cmd.Context(), cfg.PostgresDSN())
			if err != nil {
				return err
			}
			defer pg.Close()
			if err := pg.Reset(cmd.Context()); err != nil {
				return err
			}
		default:
			d, err := openSQLite(cfg)
			if err != nil {
				return err
			}
			defer d.Close()
			if err := d.Reset(); err != nil {
				return err
			}
		}
		cmd.Println("Database reset.")
		return nil
	},
}

func init() {
	dbResetCmd.Flags().Bool("yes", false, "confirm deletion of all history")
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbResetCmd)
}
