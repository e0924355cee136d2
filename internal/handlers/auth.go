package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/microblog/internal/auth"
	"github.com/crucial707/microblog/internal/forms"
	"github.com/crucial707/microblog/internal/metrics"
	"github.com/crucial707/microblog/internal/models"
	"github.com/crucial707/microblog/internal/repo"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo *repo.UserRepo
	Sessions *auth.Sessions
	View     *Renderer
}

type loginView struct {
	Form      forms.LoginForm
	Errors    forms.Errors
	FormError string
	Next      string
}

type registerView struct {
	Form   forms.RegistrationForm
	Errors forms.Errors
}

// nextParam reads the post-login target from the query string, then the form.
func nextParam(r *http.Request) string {
	if next := r.URL.Query().Get("next"); next != "" {
		return next
	}
	return r.PostFormValue("next")
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.View.Render(w, r, http.StatusOK, "login.html", loginView{Next: r.URL.Query().Get("next")})
}

// Login verifies the credentials and starts a session. Unknown usernames and
// wrong passwords produce the same message.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.View.Error(w, r, http.StatusBadRequest)
		return
	}
	form := forms.LoginFromRequest(r)
	view := loginView{Form: form, Next: nextParam(r)}

	if errs := form.Validate(); !errs.OK() {
		view.Errors = errs
		h.View.Render(w, r, http.StatusOK, "login.html", view)
		return
	}

	user, err := h.UserRepo.GetByUsername(r.Context(), form.Username)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		h.View.ServerError(w, r, err)
		return
	}
	if user == nil || !user.CheckPassword(form.Password) {
		metrics.IncLogin(metrics.LoginFailure)
		slog.Info("login failed", "username", form.Username)
		view.FormError = forms.MsgInvalidCredentials
		h.View.Render(w, r, http.StatusOK, "login.html", view)
		return
	}

	if err := h.Sessions.Login(w, user.ID, form.RememberMe); err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	metrics.IncLogin(metrics.LoginSuccess)
	slog.Info("login", "user_id", user.ID, "remember", form.RememberMe)
	http.Redirect(w, r, auth.SafeNext(view.Next), http.StatusFound)
}

// ==========================
// Logout
// ==========================
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(w)
	http.Redirect(w, r, auth.DefaultLanding, http.StatusFound)
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.View.Render(w, r, http.StatusOK, "register.html", registerView{})
}

// Register creates the account. Taken usernames or emails, whether caught by
// the lookup or by the unique constraints, come back as field errors.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.View.Error(w, r, http.StatusBadRequest)
		return
	}
	form := forms.RegistrationFromRequest(r)
	errs, err := form.Validate(r.Context(), h.UserRepo)
	if err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	if !errs.OK() {
		h.View.Render(w, r, http.StatusOK, "register.html", registerView{Form: form, Errors: errs})
		return
	}

	user := &models.User{Username: form.Username, Email: form.Email}
	if err := user.SetPassword(form.Password); err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	if err := h.UserRepo.Create(r.Context(), user); err != nil {
		var dup *repo.DuplicateError
		if errors.As(err, &dup) {
			errs = forms.Errors{}
			field := dup.Field
			if field == "" {
				field = "username"
			}
			errs.Add(field, forms.TakenMessage(field))
			h.View.Render(w, r, http.StatusOK, "register.html", registerView{Form: form, Errors: errs})
			return
		}
		h.View.ServerError(w, r, err)
		return
	}

	metrics.IncRegistration()
	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	redirectWithFlash(w, r, "/login", "Congratulations, you are now a registered user!")
}
