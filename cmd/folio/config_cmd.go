package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/config"
)

func newConfigCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change folio settings files",
		Long: "Show or change folio configuration.\n\n" +
			"Values resolve as: environment (FOLIO_*) > project .folio.toml > global ~/.folio.toml > defaults.\n\n" +
			"Keys:\n  " + strings.Join(config.AllowedKeys(), "\n  "),
	}

	cmd.AddCommand(newConfigGetCmd(cfg, jsonOutput))
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func newConfigGetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print the effective value of one key, or of every key",
		Example: "  folio config get\n" +
			"  folio config get media.max_media_items\n" +
			"  folio config get ledger.comments_per_minute",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := config.AllowedKeys()
			if len(args) == 1 {
				if !config.IsAllowedKey(args[0]) {
					return fmt.Errorf("unknown key: %s (allowed: %s)", args[0], strings.Join(keys, ", "))
				}
				keys = args[:1]
			}

			values := make(map[string]string, len(keys))
			for _, key := range keys {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				values[key] = value
			}

			if *jsonOutput {
				return writeJSON(values)
			}
			if len(keys) == 1 {
				return writePlain("%s\n", values[keys[0]])
			}
			for _, key := range keys {
				if err := writePlain("%s = %s\n", key, values[key]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a key to the project or global .folio.toml",
		Example: "  folio config set media.allowed_media_types 'image/*,video/*'\n" +
			"  folio config set ledger.comment_burst 5\n" +
			"  folio config set --global log_level debug",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			pathFn := config.ProjectPath
			if global {
				pathFn = config.GlobalPath
			}
			path, err := pathFn()
			if err != nil {
				return err
			}

			if err := config.SetKey(path, key, value); err != nil {
				return err
			}
			return writePlain("%s written to %s\n", key, path)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write to the global config (~/.folio.toml)")
	return cmd
}
