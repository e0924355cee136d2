package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/microblog/internal/auth"
	"github.com/crucial707/microblog/internal/config"
	"github.com/crucial707/microblog/internal/handlers"
	"github.com/crucial707/microblog/internal/middleware"
	"github.com/crucial707/microblog/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter wires repositories, sessions and handlers into the chi router.
// limiter throttles login and registration submissions.
func newRouter(database *sql.DB, cfg config.Config, limiter *middleware.IPRateLimiter) http.Handler {
	views, err := handlers.NewRenderer()
	if err != nil {
		panic(err)
	}

	userRepo := repo.NewUserRepo(database)
	postRepo := repo.NewPostRepo(database)
	followRepo := repo.NewFollowRepo(database)

	sessions := auth.NewSessions(cfg.SecretKey,
		time.Duration(cfg.SessionHours)*time.Hour,
		time.Duration(cfg.RememberDays)*24*time.Hour,
		cfg.IsProd())

	authHandler := &handlers.AuthHandler{UserRepo: userRepo, Sessions: sessions, View: views}
	timelineHandler := &handlers.TimelineHandler{PostRepo: postRepo, View: views, PerPage: cfg.PostsPerPage}
	userHandler := &handlers.UserHandler{
		UserRepo:   userRepo,
		PostRepo:   postRepo,
		FollowRepo: followRepo,
		View:       views,
		PerPage:    cfg.PostsPerPage,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(slog.Default()))
	r.Use(middleware.Recoverer(views.Panic))
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled()))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
	r.Use(middleware.Prometheus)
	r.NotFound(views.NotFound)

	// Health (no session, no templates)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", handlers.Static())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(sessions, userRepo))

		r.Get("/logout", authHandler.Logout)

		// Anonymous only
		r.Group(func(r chi.Router) {
			r.Use(middleware.AnonymousOnly)
			r.Get("/login", authHandler.LoginForm)
			r.With(limiter.Middleware).Post("/login", authHandler.Login)
			r.Get("/register", authHandler.RegisterForm)
			r.With(limiter.Middleware).Post("/register", authHandler.Register)
		})

		// Login required
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin)
			r.Get("/", timelineHandler.Index)
			r.Get("/index", timelineHandler.Index)
			r.Post("/", timelineHandler.CreatePost)
			r.Post("/index", timelineHandler.CreatePost)
			r.Get("/explore", timelineHandler.Explore)
			r.Get("/user/{username}", userHandler.Profile)
			r.Get("/edit_profile", userHandler.EditProfileForm)
			r.Post("/edit_profile", userHandler.EditProfile)
			r.Post("/follow/{username}", userHandler.Follow)
			r.Post("/unfollow/{username}", userHandler.Unfollow)
		})
	})

	return r
}
