package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"folio/internal/config"
	"folio/internal/models"
	"folio/internal/settings"
)

func newSettingsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or edit the school profile",
	}

	cmd.AddCommand(
		newSettingsShowCmd(cfg, jsonOutput),
		newSettingsSetCmd(cfg, jsonOutput),
		newSettingsAdvantagesCmd(cfg, jsonOutput),
		newSettingsResetCmd(cfg, jsonOutput),
	)
	return cmd
}

func writeSettingsResult(v models.SchoolSettings, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(v)
	}
	return writeSettings(v)
}

func newSettingsShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the school profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				v, err := a.settings.Get(cmd.Context())
				if err != nil {
					return err
				}
				return writeSettingsResult(v, *jsonOutput)
			})
		},
	}
}

func newSettingsSetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one profile field",
		Long:  fmt.Sprintf("Set one profile field. Keys: %v", settings.Keys()),
		Args:  requireExactlyArgs(2, "key and value are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				v, err := a.settings.Set(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return writeSettingsResult(v, *jsonOutput)
			})
		},
	}
}

func newSettingsAdvantagesCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "advantages <file|->",
		Short: "Replace the advantage list from a YAML or JSON list of {title, description}",
		Args:  requireExactlyArgs(1, "a file path or - is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = readAllLimited(cmd.InOrStdin(), maxStdinContentBytes)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			var advantages []models.Advantage
			if err := yaml.Unmarshal(data, &advantages); err != nil {
				return models.ValidationError("cli.settings", "parse advantages: %v", err)
			}
			return withApp(cmd.Context(), cfg, func(a *app) error {
				v, err := a.settings.SetAdvantages(cmd.Context(), advantages)
				if err != nil {
					return err
				}
				return writeSettingsResult(v, *jsonOutput)
			})
		},
	}
}

func newSettingsResetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default school profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				v, err := a.settings.Reset(cmd.Context())
				if err != nil {
					return err
				}
				return writeSettingsResult(v, *jsonOutput)
			})
		},
	}
}
