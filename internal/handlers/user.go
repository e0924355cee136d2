package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/crucial707/microblog/internal/forms"
	"github.com/crucial707/microblog/internal/metrics"
	"github.com/crucial707/microblog/internal/middleware"
	"github.com/crucial707/microblog/internal/models"
	"github.com/crucial707/microblog/internal/repo"
	"github.com/go-chi/chi/v5"
)

// ==========================
// User Handler
// ==========================
type UserHandler struct {
	UserRepo   *repo.UserRepo
	PostRepo   *repo.PostRepo
	FollowRepo *repo.FollowRepo
	View       *Renderer
	PerPage    int
}

type profileView struct {
	User           *models.User
	Posts          []models.Post
	Pagination     Pagination
	FollowersCount int
	FollowingCount int
	IsSelf         bool
	IsFollowing    bool
}

type editProfileView struct {
	Form   forms.EditProfileForm
	Errors forms.Errors
}

func profileURL(username string) string {
	return "/user/" + url.PathEscape(username)
}

// loadTarget resolves {username}; on failure the response has been written.
func (h *UserHandler) loadTarget(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	target, err := h.UserRepo.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if errors.Is(err, repo.ErrNotFound) {
		h.View.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		h.View.ServerError(w, r, err)
		return nil, false
	}
	return target, true
}

// ==========================
// Profile
// ==========================

// Profile renders a user's page with their own posts and follow counts.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}
	current, _ := middleware.CurrentUser(r.Context())
	ctx := r.Context()

	page := pageNumber(r)
	posts, err := h.PostRepo.UserPosts(ctx, target.ID, h.PerPage+1, (page-1)*h.PerPage)
	if err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	posts, pager := paginate(posts, page, h.PerPage, profileURL(target.Username))

	view := profileView{User: target, Posts: posts, Pagination: pager, IsSelf: current.ID == target.ID}
	if view.FollowersCount, err = h.FollowRepo.FollowersCount(ctx, target.ID); err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	if view.FollowingCount, err = h.FollowRepo.FollowingCount(ctx, target.ID); err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	if !view.IsSelf {
		if view.IsFollowing, err = h.FollowRepo.IsFollowing(ctx, current.ID, target.ID); err != nil {
			h.View.ServerError(w, r, err)
			return
		}
	}
	h.View.Render(w, r, http.StatusOK, "user.html", view)
}

// ==========================
// Edit Profile
// ==========================
func (h *UserHandler) EditProfileForm(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())
	h.View.Render(w, r, http.StatusOK, "edit_profile.html", editProfileView{
		Form: forms.EditProfileForm{Username: user.Username, AboutMe: user.AboutMe},
	})
}

// EditProfile saves a new username and about-me text. A username collision
// found by the lookup or by the unique constraint is a field error.
func (h *UserHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.View.Error(w, r, http.StatusBadRequest)
		return
	}
	user, _ := middleware.CurrentUser(r.Context())
	form := forms.EditProfileFromRequest(r)

	errs, err := form.Validate(r.Context(), h.UserRepo, user.ID, user.Username)
	if err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	if !errs.OK() {
		h.View.Render(w, r, http.StatusOK, "edit_profile.html", editProfileView{Form: form, Errors: errs})
		return
	}

	if _, err := h.UserRepo.UpdateProfile(r.Context(), user.ID, form.Username, form.AboutMe); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			errs = forms.Errors{}
			errs.Add("username", forms.MsgUsernameTaken)
			h.View.Render(w, r, http.StatusOK, "edit_profile.html", editProfileView{Form: form, Errors: errs})
			return
		}
		h.View.ServerError(w, r, err)
		return
	}
	slog.Info("profile updated", "user_id", user.ID)
	redirectWithFlash(w, r, "/edit_profile", "Your changes have been saved.")
}

// ==========================
// Follow / Unfollow
// ==========================
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}
	current, _ := middleware.CurrentUser(r.Context())

	err := h.FollowRepo.Follow(r.Context(), current.ID, target.ID)
	switch {
	case errors.Is(err, repo.ErrSelfFollow):
		redirectWithFlash(w, r, profileURL(target.Username), "You cannot follow yourself!")
		return
	case errors.Is(err, repo.ErrNotFound):
		h.View.NotFound(w, r)
		return
	case err != nil:
		h.View.ServerError(w, r, err)
		return
	}
	metrics.IncFollowChange("follow")
	slog.Info("follow", "follower_id", current.ID, "followed_id", target.ID)
	redirectWithFlash(w, r, profileURL(target.Username), fmt.Sprintf("You are following %s!", target.Username))
}

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}
	current, _ := middleware.CurrentUser(r.Context())
	if current.ID == target.ID {
		redirectWithFlash(w, r, profileURL(target.Username), "You cannot unfollow yourself!")
		return
	}

	if err := h.FollowRepo.Unfollow(r.Context(), current.ID, target.ID); err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	metrics.IncFollowChange("unfollow")
	slog.Info("unfollow", "follower_id", current.ID, "followed_id", target.ID)
	redirectWithFlash(w, r, profileURL(target.Username), fmt.Sprintf("You are not following %s.", target.Username))
}
