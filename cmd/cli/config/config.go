package config

import (
	"os"

	appconfig "github.com/crucial707/microblog/internal/config"
)

// DSN returns the database URL for CLI commands: the --database-url flag when
// set, then MICROBLOG_DATABASE_URL, then the server's own configuration.
func DSN(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("MICROBLOG_DATABASE_URL"); v != "" {
		return v
	}
	return appconfig.Load().DSN()
}
