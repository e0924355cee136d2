package users

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/crucial707/microblog/cmd/cli/output"
	"github.com/crucial707/microblog/cmd/cli/root"
	"github.com/crucial707/microblog/internal/forms"
	"github.com/crucial707/microblog/internal/models"
	"github.com/crucial707/microblog/internal/repo"
	"github.com/spf13/cobra"
)

// ==========================
// CLI Command Init
// ==========================
func init() {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage user accounts",
	}
	usersCmd.AddCommand(listUsersCmd(), showUserCmd(), setPasswordCmd())
	root.GetRoot().AddCommand(usersCmd)
}

// ==========================
// List Users
// ==========================
func listUsersCmd() *cobra.Command {
	var (
		limit, offset int
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users ordered by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := root.OpenDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			users, err := repo.NewUserRepo(db).List(cmd.Context(), limit, offset)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			if asJSON {
				if users == nil {
					users = []models.User{}
				}
				return output.PrintJSON(cmd.OutOrStdout(), users)
			}
			rows := make([][]interface{}, 0, len(users))
			for _, u := range users {
				rows = append(rows, []interface{}{u.ID, u.Username, u.Email, output.Time(u.LastSeen)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Username", "Email", "Last seen"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of users")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of users to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// ==========================
// Show User
// ==========================
type userDetail struct {
	models.User
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

func usernames(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func showUserCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <username>",
		Short: "Show a user with followers and followed accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := root.OpenDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			u, err := repo.NewUserRepo(db).GetByUsername(ctx, args[0])
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("user %q not found", args[0])
			}
			if err != nil {
				return err
			}
			follows := repo.NewFollowRepo(db)
			followers, err := follows.Followers(ctx, u.ID)
			if err != nil {
				return err
			}
			following, err := follows.Following(ctx, u.ID)
			if err != nil {
				return err
			}

			d := userDetail{User: *u, Followers: usernames(followers), Following: usernames(following)}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), d)
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Field", "Value"}, [][]interface{}{
				{"ID", d.ID},
				{"Username", d.Username},
				{"Email", d.Email},
				{"About me", d.AboutMe},
				{"Last seen", output.Time(d.LastSeen)},
				{"Followers", strings.Join(d.Followers, ", ")},
				{"Following", strings.Join(d.Following, ", ")},
			})
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// ==========================
// Set Password
// ==========================
func setPasswordCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "set-password <username>",
		Short: "Replace a user's password",
		Long:  "Replace a user's password. Without --password the new password is read from the first line of stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if len(password) > forms.MaxPasswordBytes {
				return fmt.Errorf("password is longer than %d bytes", forms.MaxPasswordBytes)
			}

			ctx := cmd.Context()
			db, err := root.OpenDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			users := repo.NewUserRepo(db)
			u, err := users.GetByUsername(ctx, args[0])
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("user %q not found", args[0])
			}
			if err != nil {
				return err
			}
			if err := u.SetPassword(password); err != nil {
				return err
			}
			if err := users.SetPasswordHash(ctx, u.ID, u.PasswordHash); err != nil {
				return fmt.Errorf("set password: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s.\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password")
	return cmd
}
