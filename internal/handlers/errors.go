package handlers

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

type errorView struct {
	Title   string
	Message string
}

var errorViews = map[int]errorView{
	http.StatusBadRequest:          {"Bad Request", "The form could not be read."},
	http.StatusNotFound:            {"Not Found", "File not found."},
	http.StatusInternalServerError: {"An unexpected error has occurred", "The administrator has been notified. Sorry for the inconvenience!"},
}

// Error renders the error page for status.
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, status int) {
	view, ok := errorViews[status]
	if !ok {
		view = errorView{Title: http.StatusText(status)}
	}
	v.Render(w, r, status, "error.html", view)
}

// NotFound is the router's 404 handler.
func (v *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	v.Error(w, r, http.StatusNotFound)
}

// ServerError logs err with the request id and renders the generic 500 page.
func (v *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed",
		"request_id", chimw.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	v.Error(w, r, http.StatusInternalServerError)
}

// Panic renders the 500 page after a recovered panic.
func (v *Renderer) Panic(w http.ResponseWriter, r *http.Request) {
	v.Error(w, r, http.StatusInternalServerError)
}
