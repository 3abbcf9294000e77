// cmd/estate-admin/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"estate-admin/internal/common/database"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrations, err := database.LoadMigrations()
			if err != nil {
				return err
			}
			if list {
				for _, m := range migrations {
					fmt.Fprintln(cmd.OutOrStdout(), m.Version)
				}
				return nil
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			a := newApp(cfg)
			defer a.Close()

			ctx := cmd.Context()
			if err := a.connectPostgres(ctx, 5); err != nil {
				return err
			}

			applied, err := database.Migrate(ctx, a.pg.DB, migrations)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				a.zap.Info("Schema is up to date")
				return nil
			}
			a.zap.Info("Migrations applied", zap.Strings("versions", applied))
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the embedded migrations and exit")
	return cmd
}
