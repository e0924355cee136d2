package handlers

import (
	"log/slog"
	"net/http"

	"github.com/crucial707/microblog/internal/forms"
	"github.com/crucial707/microblog/internal/metrics"
	"github.com/crucial707/microblog/internal/middleware"
	"github.com/crucial707/microblog/internal/models"
	"github.com/crucial707/microblog/internal/repo"
)

// TimelineHandler serves the home timeline, post creation and explore.
type TimelineHandler struct {
	PostRepo *repo.PostRepo
	View     *Renderer
	PerPage  int
}

type timelineView struct {
	Heading    string
	ShowForm   bool
	Form       forms.PostForm
	Errors     forms.Errors
	Posts      []models.Post
	Pagination Pagination
}

// Index renders the current user's timeline: posts by the users they follow.
func (h *TimelineHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, forms.PostForm{}, nil)
}

// CreatePost stores a new post for the current user and redirects back to
// the timeline. An invalid form re-renders the timeline with field errors.
func (h *TimelineHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.View.Error(w, r, http.StatusBadRequest)
		return
	}
	user, _ := middleware.CurrentUser(r.Context())
	form := forms.PostFromRequest(r)
	if errs := form.Validate(); !errs.OK() {
		h.renderIndex(w, r, form, errs)
		return
	}

	post, err := h.PostRepo.Create(r.Context(), user.ID, form.Title, form.Body)
	if err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	metrics.IncPostCreated()
	slog.Info("post created", "user_id", user.ID, "post_id", post.ID)
	redirectWithFlash(w, r, "/index", "Your post is now live!")
}

func (h *TimelineHandler) renderIndex(w http.ResponseWriter, r *http.Request, form forms.PostForm, errs forms.Errors) {
	user, _ := middleware.CurrentUser(r.Context())
	page := pageNumber(r)
	posts, err := h.PostRepo.FollowedPosts(r.Context(), user.ID, h.PerPage+1, (page-1)*h.PerPage)
	if err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	posts, pager := paginate(posts, page, h.PerPage, "/index")
	h.View.Render(w, r, http.StatusOK, "index.html", timelineView{
		Heading:    "Hi, " + user.Username + "!",
		ShowForm:   true,
		Form:       form,
		Errors:     errs,
		Posts:      posts,
		Pagination: pager,
	})
}

// Explore lists every post, newest first.
func (h *TimelineHandler) Explore(w http.ResponseWriter, r *http.Request) {
	page := pageNumber(r)
	posts, err := h.PostRepo.All(r.Context(), h.PerPage+1, (page-1)*h.PerPage)
	if err != nil {
		h.View.ServerError(w, r, err)
		return
	}
	posts, pager := paginate(posts, page, h.PerPage, "/explore")
	h.View.Render(w, r, http.StatusOK, "index.html", timelineView{
		Heading:    "Explore",
		Posts:      posts,
		Pagination: pager,
	})
}
