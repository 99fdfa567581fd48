package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"folio/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:           "folio",
		Short:         "Folio manages a school's publications, media, reactions and comments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newListCmd(cfg, &jsonOutput),
		newShowCmd(cfg, &jsonOutput),
		newCreateCmd(cfg, &jsonOutput),
		newUpdateCmd(cfg, &jsonOutput),
		newDeleteCmd(cfg, &jsonOutput),
		newExportCmd(cfg),
		newMediaCmd(cfg, &jsonOutput),
		newReactCmd(cfg, &jsonOutput),
		newReactionsCmd(cfg, &jsonOutput),
		newCommentCmd(cfg, &jsonOutput),
		newCommentsCmd(cfg, &jsonOutput),
		newVisitorCmd(cfg, &jsonOutput),
		newSettingsCmd(cfg, &jsonOutput),
		newMigrateCmd(cfg, &jsonOutput),
		newConfigCmd(cfg, &jsonOutput),
	)

	return cmd
}
