package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/crucial707/microblog/cmd/cli/output"
	"github.com/crucial707/microblog/cmd/cli/root"
	"github.com/crucial707/microblog/internal/models"
	"github.com/crucial707/microblog/internal/repo"
	"github.com/spf13/cobra"
)

func init() {
	root.GetRoot().AddCommand(timelineCmd(), followCmd(), unfollowCmd(), edgesCmd())
}

func lookup(ctx context.Context, users *repo.UserRepo, username string) (*models.User, error) {
	u, err := users.GetByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("user %q not found", username)
	}
	return u, err
}

// ==========================
// Timeline
// ==========================
func timelineCmd() *cobra.Command {
	var (
		limit, page int
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "timeline <username>",
		Short: "Print the timeline a user sees: posts by the accounts they follow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || page < 1 {
				return errors.New("--limit and --page must be positive")
			}
			ctx := cmd.Context()
			db, err := root.OpenDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			u, err := lookup(ctx, repo.NewUserRepo(db), args[0])
			if err != nil {
				return err
			}
			posts, err := repo.NewPostRepo(db).FollowedPosts(ctx, u.ID, limit, (page-1)*limit)
			if err != nil {
				return fmt.Errorf("timeline: %w", err)
			}
			if asJSON {
				if posts == nil {
					posts = []models.Post{}
				}
				return output.PrintJSON(cmd.OutOrStdout(), posts)
			}
			rows := make([][]interface{}, 0, len(posts))
			for _, p := range posts {
				ts := p.Timestamp
				rows = append(rows, []interface{}{p.ID, output.Time(&ts), p.Author, p.Title, p.Body})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Time", "Author", "Title", "Body"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 25, "posts per page")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// ==========================
// Follow / Unfollow
// ==========================
func followCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "follow <follower> <followed>",
		Short: "Make one user follow another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPair(cmd, args, func(ctx context.Context, follows *repo.FollowRepo, a, b *models.User) error {
				if err := follows.Follow(ctx, a.ID, b.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now following %s.\n", a.Username, b.Username)
				return nil
			})
		},
	}
}

func unfollowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfollow <follower> <followed>",
		Short: "Remove a follow edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPair(cmd, args, func(ctx context.Context, follows *repo.FollowRepo, a, b *models.User) error {
				if err := follows.Unfollow(ctx, a.ID, b.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s no longer follows %s.\n", a.Username, b.Username)
				return nil
			})
		},
	}
}

// withPair resolves both usernames and hands them to fn.
func withPair(cmd *cobra.Command, args []string, fn func(context.Context, *repo.FollowRepo, *models.User, *models.User) error) error {
	if args[0] == args[1] {
		return repo.ErrSelfFollow
	}
	ctx := cmd.Context()
	db, err := root.OpenDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	users := repo.NewUserRepo(db)
	a, err := lookup(ctx, users, args[0])
	if err != nil {
		return err
	}
	b, err := lookup(ctx, users, args[1])
	if err != nil {
		return err
	}
	return fn(ctx, repo.NewFollowRepo(db), a, b)
}

// ==========================
// Edges
// ==========================
func edgesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "edges",
		Short: "Dump every follow edge as follower/followed user ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.OpenDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			edges, err := repo.NewFollowRepo(db).Edges(cmd.Context())
			if err != nil {
				return fmt.Errorf("list edges: %w", err)
			}
			if asJSON {
				if edges == nil {
					edges = []models.FollowEdge{}
				}
				return output.PrintJSON(cmd.OutOrStdout(), edges)
			}
			rows := make([][]interface{}, 0, len(edges))
			for _, e := range edges {
				rows = append(rows, []interface{}{e.FollowerID, e.FollowedID})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Follower", "Followed"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
