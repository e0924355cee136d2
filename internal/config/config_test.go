package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "SECRET_KEY", "DATABASE_URL", "POSTS_PER_PAGE", "ADMINS", "ENV"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want 8080", cfg.Port)
	}
	if cfg.PostsPerPage != 25 {
		t.Errorf("PostsPerPage: got %d, want 25", cfg.PostsPerPage)
	}
	if cfg.SecretKey != DefaultSecretKey {
		t.Errorf("SecretKey: got %q, want default", cfg.SecretKey)
	}
	if cfg.Admins != nil {
		t.Errorf("Admins: got %v, want nil", cfg.Admins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate in dev: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("POSTS_PER_PAGE", "3")
	t.Setenv("ADMINS", " a@example.com, ,b@example.com ")
	t.Setenv("MAIL_USE_TLS", "true")
	t.Setenv("SESSION_HOURS", "not-a-number")

	cfg := Load()
	if cfg.PostsPerPage != 3 {
		t.Errorf("PostsPerPage: got %d, want 3", cfg.PostsPerPage)
	}
	if len(cfg.Admins) != 2 || cfg.Admins[0] != "a@example.com" || cfg.Admins[1] != "b@example.com" {
		t.Errorf("Admins: got %v", cfg.Admins)
	}
	if !cfg.MailUseTLS {
		t.Error("MailUseTLS: got false, want true")
	}
	if cfg.SessionHours != 24 {
		t.Errorf("SessionHours: got %d, want fallback 24", cfg.SessionHours)
	}
}

func TestValidate_ProdRequiresSecret(t *testing.T) {
	cfg := Config{Env: "prod", SecretKey: DefaultSecretKey, PostsPerPage: 25}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default secret in prod")
	}
	cfg.SecretKey = "s3cr3t"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate_Mail(t *testing.T) {
	cfg := Config{PostsPerPage: 25, MailServer: "smtp.example.com", MailPort: 25}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for MAIL_SERVER without ADMINS")
	}
	cfg.Admins = []string{"ops@example.com"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	cfg.MailPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range MAIL_PORT")
	}
}

func TestDSN(t *testing.T) {
	cfg := Config{DBHost: "db", DBPort: "5433", DBName: "blog", DBUser: "u", DBPass: "p@ss"}
	want := "postgres://u:p%40ss@db:5433/blog?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}

	cfg.DatabaseURL = "postgres://x/y"
	if got := cfg.DSN(); got != "postgres://x/y" {
		t.Errorf("DSN with DATABASE_URL: got %q", got)
	}
}
