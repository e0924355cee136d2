package models

import "time"

// Post is immutable once written. Author is the owning user's username,
// filled in by listing queries.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	Author    string    `json:"author,omitempty"`
}
