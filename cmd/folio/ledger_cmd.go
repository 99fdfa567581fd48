package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/config"
	"folio/internal/models"
)

// resolveActor returns the explicit actor, or this installation's visitor id.
func resolveActor(ctx context.Context, a *app, actor string) (string, error) {
	if actor = strings.TrimSpace(actor); actor != "" {
		return actor, nil
	}
	return a.ledger.VisitorID(ctx)
}

func newReactCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "react <publication-id> <like|dislike>",
		Short: "Toggle a reaction on a publication",
		Args:  requireExactlyArgs(2, "publication id and reaction type are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			reaction, err := models.ParseReactionType(args[1])
			if err != nil {
				return models.ValidationError("cli.react", "%v", err)
			}
			return withApp(cmd.Context(), cfg, func(a *app) error {
				ctx := cmd.Context()
				if _, err := a.publications.Get(ctx, args[0]); err != nil {
					return err
				}
				actorID, err := resolveActor(ctx, a, actor)
				if err != nil {
					return err
				}
				result, err := a.ledger.ToggleReaction(ctx, args[0], actorID, reaction)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(result)
				}
				return writeReaction(result)
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "react as this actor instead of the local visitor")
	return cmd
}

func newReactionsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "reactions <publication-id> [<publication-id>...]",
		Short: "Show reaction counts",
		Args:  requireAtLeastOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				ctx := cmd.Context()
				actorID, err := resolveActor(ctx, a, actor)
				if err != nil {
					return err
				}
				results := make([]models.Reaction, 0, len(args))
				for _, id := range args {
					r, err := a.ledger.GetReaction(ctx, id, actorID)
					if err != nil {
						return err
					}
					results = append(results, r)
				}
				if *jsonOutput {
					if len(results) == 1 {
						return writeJSON(results[0])
					}
					return writeJSON(results)
				}
				for _, r := range results {
					if err := writeReaction(r); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "report this actor's reaction instead of the local visitor's")
	return cmd
}

func newCommentCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var author, actor string

	cmd := &cobra.Command{
		Use:   "comment <publication-id> <text>",
		Short: "Add a comment to a publication",
		Args:  requireAtLeastArgs(2, "publication id and comment text are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args[1:], " ")
			if content == "-" {
				data, err := readAllLimited(cmd.InOrStdin(), maxStdinContentBytes)
				if err != nil {
					return err
				}
				content = string(data)
			}
			return withApp(cmd.Context(), cfg, func(a *app) error {
				ctx := cmd.Context()
				if _, err := a.publications.Get(ctx, args[0]); err != nil {
					return err
				}
				actorID, err := resolveActor(ctx, a, actor)
				if err != nil {
					return err
				}
				comment, err := a.ledger.AddComment(ctx, args[0], actorID, author, content)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(comment)
				}
				return writePlain("%s\n", comment.ID)
			})
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "display name (defaults to "+models.DefaultCommentAuthor+")")
	cmd.Flags().StringVar(&actor, "actor", "", "comment as this actor instead of the local visitor")
	return cmd
}

func newCommentsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <publication-id>",
		Short: "List comments on a publication, newest first",
		Args:  requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				comments, err := a.ledger.GetComments(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(comments)
				}
				return writeComments(comments)
			})
		},
	}
}

func newVisitorCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "visitor",
		Short: "Print this installation's visitor id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				id, err := a.ledger.VisitorID(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(map[string]string{"visitor_id": id})
				}
				return writePlain("%s\n", id)
			})
		},
	}
}
