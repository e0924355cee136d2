package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/microblog/internal/auth"
	"github.com/crucial707/microblog/internal/models"
	"github.com/crucial707/microblog/internal/repo"
)

type key string

const currentUserKey key = "current_user"

// UserLoader is the slice of the user store the session gate needs.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	TouchLastSeen(ctx context.Context, id int64, t time.Time) error
}

// WithUser returns ctx carrying u as the authenticated user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// CurrentUser returns the authenticated user for the request, if any.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// Session resolves the session cookie into the current user. Requests without
// a valid session continue anonymously; a bad or stale cookie is cleared.
// For authenticated requests the user's last_seen is persisted before the
// handler runs.
func Session(sessions *auth.Sessions, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok, err := sessions.UserID(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				sessions.Logout(w)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), id)
			if errors.Is(err, repo.ErrNotFound) {
				sessions.Logout(w)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("session: load user", "user_id", id, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			now := time.Now().UTC()
			if err := users.TouchLastSeen(r.Context(), user.ID, now); err != nil {
				slog.Error("session: touch last_seen", "user_id", id, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			user.LastSeen = &now

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireLogin redirects anonymous requests to the login page, passing the
// requested path as next.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			http.Redirect(w, r, auth.LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AnonymousOnly sends authenticated users to the landing page.
func AnonymousOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); ok {
			http.Redirect(w, r, auth.DefaultLanding, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
