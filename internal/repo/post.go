package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/microblog/internal/models"
)

// ========================
// REPOSITORY STRUCT
// ========================

type PostRepo struct {
	DB *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db}
}

// ========================
// CREATE POST
// ========================

// Create stores a post owned by userID; the timestamp defaults to the insert time.
func (r *PostRepo) Create(ctx context.Context, userID int64, title, body string) (models.Post, error) {
	var p models.Post
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO posts (title, body, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, title, body, timestamp, user_id`,
		title, body, userID,
	).Scan(&p.ID, &p.Title, &p.Body, &p.Timestamp, &p.UserID)
	return p, mapError(err)
}

// ========================
// TIMELINE QUERIES
// ========================

// FollowedPosts returns posts written by users that userID follows, newest first.
func (r *PostRepo) FollowedPosts(ctx context.Context, userID int64, limit, offset int) ([]models.Post, error) {
	return r.list(ctx,
		`SELECT p.id, p.title, p.body, p.timestamp, p.user_id, u.username
		 FROM posts p
		 JOIN followers f ON f.followed_id = p.user_id
		 JOIN users u ON u.id = p.user_id
		 WHERE f.follower_id = $1
		 ORDER BY p.timestamp DESC, p.id DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
}

// UserPosts returns the posts owned by userID, newest first.
func (r *PostRepo) UserPosts(ctx context.Context, userID int64, limit, offset int) ([]models.Post, error) {
	return r.list(ctx,
		`SELECT p.id, p.title, p.body, p.timestamp, p.user_id, u.username
		 FROM posts p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.user_id = $1
		 ORDER BY p.timestamp DESC, p.id DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
}

// All returns every post, newest first.
func (r *PostRepo) All(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return r.list(ctx,
		`SELECT p.id, p.title, p.body, p.timestamp, p.user_id, u.username
		 FROM posts p
		 JOIN users u ON u.id = p.user_id
		 ORDER BY p.timestamp DESC, p.id DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (r *PostRepo) list(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.Timestamp, &p.UserID, &p.Author); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Count returns the total number of posts.
func (r *PostRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&n)
	return n, err
}
