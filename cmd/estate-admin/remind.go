// cmd/estate-admin/remind.go
package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

func newRemindCmd(root *rootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Email owners of verification requests that have been pending too long",
		Long: "Sends one \"Verification Pending\" reminder per stale request and prints the counts.\n" +
			"Without --older-than the workflow.reminder_after_hours setting is used.",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			if err := a.connectSearch(ctx, 3); err != nil {
				return err
			}
			if err := a.initCore(ctx); err != nil {
				return err
			}

			result, err := a.verificationService().SendReminders(ctx, olderThan)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "remind for requests pending longer than this (e.g. 48h)")
	return cmd
}
