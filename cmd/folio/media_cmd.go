package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/config"
	"folio/internal/media"
	"folio/internal/models"
)

func newMediaCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Inspect and maintain stored media",
	}

	cmd.AddCommand(
		newMediaListCmd(cfg, jsonOutput),
		newMediaInfoCmd(cfg, jsonOutput),
		newMediaCatCmd(cfg),
		newMediaGCCmd(cfg, jsonOutput),
		newMediaClearCmd(cfg, jsonOutput),
	)
	return cmd
}

func newMediaListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [<publication-id>...]",
		Short: "List stored media, optionally for specific publications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				owners := args
				if len(owners) == 0 {
					all, err := a.media.Owners(cmd.Context())
					if err != nil {
						return err
					}
					owners = all
				} else {
					expanded := make([]string, 0, len(args)*2)
					for _, id := range args {
						expanded = append(expanded, id, models.AttachmentOwnerTag(id))
					}
					owners = expanded
				}

				entries := []media.Entry{}
				for _, owner := range owners {
					list, err := a.media.ListByOwner(cmd.Context(), owner)
					if err != nil {
						return err
					}
					entries = append(entries, list...)
				}
				if *jsonOutput {
					return writeJSON(entries)
				}
				if len(entries) == 0 {
					return writePlain("No stored media.\n")
				}
				return writeMediaEntries(entries)
			})
		},
	}
}

func newMediaInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info <blob-id>",
		Short: "Show the metadata of one stored payload",
		Args:  requireExactlyArgs(1, "blob id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				blob, err := a.media.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if blob == nil {
					return models.NotFoundError("media.info", "blob", strings.TrimSpace(args[0]))
				}
				if *jsonOutput {
					return writeJSON(blob)
				}
				return writeBlob(*blob)
			})
		},
	}
}

func newMediaCatCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <blob-id>",
		Short: "Write a stored payload to stdout",
		Args:  requireExactlyArgs(1, "blob id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				id := strings.TrimSpace(args[0])
				if !media.IsSessionLocator(id) {
					data, err := a.media.Read(cmd.Context(), id)
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				rc, err := a.media.OpenLocator(cmd.Context(), id)
				if err != nil {
					return err
				}
				defer rc.Close()
				_, err = io.Copy(cmd.OutOrStdout(), rc)
				return err
			})
		},
	}
}

func newMediaGCCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Find and remove media whose publication no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				result, err := a.publications.PruneOrphans(cmd.Context(), !apply)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(result)
				}
				if result.DryRun {
					if err := writePlain("orphan blobs: %d\n", len(result.Orphans)); err != nil {
						return err
					}
					for _, id := range result.Orphans {
						if err := writePlain("  %s\n", id); err != nil {
							return err
						}
					}
					return writePlain("run with --apply to delete\n")
				}
				if err := writePlain("orphan blobs: %d deleted, %d failed\n", result.DeletedCount, result.FailedCount); err != nil {
					return err
				}
				return writePlain("unreferenced objects: %d deleted, %s reclaimed\n",
					result.Objects.DeletedCount, formatBytes(result.Objects.ReclaimedBytes))
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "delete orphans instead of reporting them")
	return cmd
}

func newMediaClearCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored payload",
		Long: "Delete every stored payload.\n\n" +
			"Publication records are left untouched, so any gallery item or attachment that\n" +
			"pointed at a stored payload becomes dangling until it is updated or deleted.\n" +
			"The affected publication ids are printed as a warning.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear media without --yes")
			}
			return withApp(cmd.Context(), cfg, func(a *app) error {
				pubs, err := a.publications.List(cmd.Context())
				if err != nil {
					return err
				}
				if err := a.media.Clear(cmd.Context()); err != nil {
					return err
				}
				stale := publicationsWithBlobs(pubs)
				if len(stale) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(),
						"warning: %d publication(s) still reference cleared blobs: %s\n"+
							"  run `folio update <id> --clear-media` or `folio delete <id>` for each\n",
						len(stale), strings.Join(stale, ", "))
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"cleared": true, "stale_publications": stale})
				}
				return writePlain("media cleared\n")
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every payload")
	return cmd
}

// publicationsWithBlobs lists ids of publications referencing at least one stored blob.
func publicationsWithBlobs(pubs []models.Publication) []string {
	ids := []string{}
	for _, pub := range pubs {
		owned := pub.File.BlobID != "" || (pub.PrimaryImage != nil && pub.PrimaryImage.BlobID != "")
		for _, m := range pub.Media {
			if m.Owned() {
				owned = true
				break
			}
		}
		if owned {
			ids = append(ids, pub.ID)
		}
	}
	return ids
}
