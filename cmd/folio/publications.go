package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/config"
	"folio/internal/models"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List publications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				pubs, err := a.publications.List(cmd.Context())
				if err != nil {
					return err
				}
				if category = strings.TrimSpace(category); category != "" {
					filtered := pubs[:0]
					for _, pub := range pubs {
						if strings.EqualFold(pub.Category, category) {
							filtered = append(filtered, pub)
						}
					}
					pubs = filtered
				}
				if *jsonOutput {
					return writeJSON(pubs)
				}
				return writePublicationList(pubs)
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list publications in this category")
	return cmd
}

func newShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id> [<id>...]",
		Short: "Show publication details",
		Args:  requireAtLeastOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				pubs := make([]models.Publication, 0, len(args))
				for _, id := range args {
					pub, err := a.publications.Get(cmd.Context(), id)
					if err != nil {
						return err
					}
					pubs = append(pubs, pub)
				}
				if *jsonOutput {
					if len(pubs) == 1 {
						return writeJSON(pubs[0])
					}
					return writeJSON(pubs)
				}
				for i, pub := range pubs {
					if i > 0 {
						if err := writePlain("\n"); err != nil {
							return err
						}
					}
					if err := writePublicationDetail(pub); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

type publicationCmdOptions struct {
	title        string
	description  string
	content      string
	category     string
	author       string
	date         string
	primaryImage string
	filePath     string
	media        []string
	clearMedia   bool
}

func bindPublicationFlags(cmd *cobra.Command, opts *publicationCmdOptions) {
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "short description")
	cmd.Flags().StringVarP(&opts.content, "content", "c", "", "body text (use - to read stdin)")
	cmd.Flags().StringVar(&opts.category, "category", "", "category")
	cmd.Flags().StringVar(&opts.author, "author", "", "author")
	cmd.Flags().StringVar(&opts.date, "date", "", "display date")
	cmd.Flags().StringVar(&opts.primaryImage, "image", "", "primary image locator")
	cmd.Flags().StringVarP(&opts.filePath, "file", "f", "", "attach a document or image from disk")
	cmd.Flags().StringArrayVarP(&opts.media, "media", "m", nil, "gallery item: a path or locator, optionally followed by ::ALT (repeatable)")
}

func newCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &publicationCmdOptions{}
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a publication",
		Args:  requireAtLeastArgs(1, "title is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContentArg(cmd, opts.content)
			if err != nil {
				return err
			}
			draft := models.Draft{
				Title:        strings.Join(args, " "),
				Description:  opts.description,
				Content:      content,
				Category:     opts.category,
				Author:       opts.author,
				Date:         opts.date,
				PrimaryImage: opts.primaryImage,
			}
			if opts.filePath != "" {
				if draft.File, err = loadFilePayload(opts.filePath, cfg.Media.MaxFileBytes); err != nil {
					return err
				}
			}
			if draft.Media, err = parseMediaArgs(opts.media, cfg.Media.MaxMediaBytes); err != nil {
				return err
			}

			return withApp(cmd.Context(), cfg, func(a *app) error {
				pub, err := a.publications.Create(cmd.Context(), draft)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(pub)
				}
				return writePlain("%s\n", pub.ID)
			})
		},
	}

	bindPublicationFlags(cmd, opts)
	return cmd
}

func newUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &publicationCmdOptions{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a publication",
		Args:  requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := buildChanges(cmd, cfg, opts)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), cfg, func(a *app) error {
				pub, err := a.publications.Update(cmd.Context(), args[0], changes)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(pub)
				}
				return writePlain("%s\n", pub.ID)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "title")
	cmd.Flags().BoolVar(&opts.clearMedia, "clear-media", false, "remove every gallery item")
	bindPublicationFlags(cmd, opts)
	return cmd
}

func buildChanges(cmd *cobra.Command, cfg *config.Config, opts *publicationCmdOptions) (models.Changes, error) {
	changes := models.Changes{}
	flags := cmd.Flags()
	if flags.Changed("title") {
		changes.Title = &opts.title
	}
	if flags.Changed("description") {
		changes.Description = &opts.description
	}
	if flags.Changed("content") {
		content, err := readContentArg(cmd, opts.content)
		if err != nil {
			return changes, err
		}
		changes.Content = &content
	}
	if flags.Changed("category") {
		changes.Category = &opts.category
	}
	if flags.Changed("author") {
		changes.Author = &opts.author
	}
	if flags.Changed("date") {
		changes.Date = &opts.date
	}
	if flags.Changed("image") {
		changes.PrimaryImage = &opts.primaryImage
	}
	if opts.filePath != "" {
		payload, err := loadFilePayload(opts.filePath, cfg.Media.MaxFileBytes)
		if err != nil {
			return changes, err
		}
		changes.File = payload
	}
	if opts.clearMedia && len(opts.media) > 0 {
		return changes, errors.New("--clear-media cannot be combined with --media")
	}
	if len(opts.media) > 0 {
		inputs, err := parseMediaArgs(opts.media, cfg.Media.MaxMediaBytes)
		if err != nil {
			return changes, err
		}
		changes.Media = inputs
	}
	changes.ReplaceMedia = opts.clearMedia

	if !hasChanges(changes) {
		return changes, errors.New("no fields to update")
	}
	return changes, nil
}

func hasChanges(c models.Changes) bool {
	return c.Title != nil || c.Description != nil || c.Content != nil || c.Category != nil ||
		c.Author != nil || c.Date != nil || c.PrimaryImage != nil || c.File != nil || c.ReplacesMedia()
}

func readContentArg(cmd *cobra.Command, value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	data, err := readAllLimited(cmd.InOrStdin(), maxStdinContentBytes)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newDeleteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> [<id>...]",
		Short: "Delete publications and their stored media",
		Args:  requireAtLeastOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				for _, id := range args {
					if err := a.publications.Delete(cmd.Context(), id); err != nil {
						return err
					}
				}
				if *jsonOutput {
					return writeJSON(map[string][]string{"deleted": args})
				}
				return writePlain("%s\n", strings.Join(args, ","))
			})
		},
	}
}

func newExportCmd(cfg *config.Config) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export publications as YAML or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				if strings.EqualFold(strings.TrimSpace(outputFormat), "yaml") {
					return a.publications.Export(cmd.Context(), cmd.OutOrStdout())
				}
				formatter, err := formatByName(outputFormat)
				if err != nil {
					return err
				}
				pubs, err := a.publications.List(cmd.Context())
				if err != nil {
					return err
				}
				return formatter.Write(cmd.OutOrStdout(), pubs)
			})
		},
	}

	cmd.Flags().StringVar(&outputFormat, "format", "yaml", "output format (yaml or json)")
	return cmd
}
