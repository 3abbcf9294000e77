// cmd/estate-admin/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"estate-admin/internal/common/config"
)

type rootOptions struct {
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "estate-admin",
		Short:         "Marketplace admin API, workflow workers and maintenance tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to a config YAML file (default: configs/config.yaml plus the APP_ENVIRONMENT overlay)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newRemindCmd(opts),
		newRegistryCmd(),
	)
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}
