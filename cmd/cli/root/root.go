package root

import (
	"context"
	"database/sql"

	"github.com/crucial707/microblog/cmd/cli/config"
	"github.com/crucial707/microblog/internal/db"
	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "microblog",
	Short:         "Microblog operator CLI",
	Long:          "Command line interface for operating a Microblog database: migrations, users, follows and timelines.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var databaseURL string

func init() {
	RootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "postgres URL (default from MICROBLOG_DATABASE_URL or DB_* settings)")
}

// GetRoot returns the RootCmd.
func GetRoot() *cobra.Command {
	return RootCmd
}

// DSN is the database URL selected by flag or environment.
func DSN() string {
	return config.DSN(databaseURL)
}

// OpenDB connects to the configured database. Tests swap it for a mock.
var OpenDB = func(ctx context.Context) (*sql.DB, error) {
	return db.Connect(ctx, DSN(), 2, 1)
}
