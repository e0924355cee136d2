package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/microblog/internal/models"
)

// FollowRepo reads and writes the followers join table.
type FollowRepo struct {
	DB *sql.DB
}

// NewFollowRepo returns a new FollowRepo.
func NewFollowRepo(db *sql.DB) *FollowRepo {
	return &FollowRepo{DB: db}
}

// Follow adds the edge followerID -> followedID. Following twice is a no-op.
// Unknown users yield ErrNotFound; following yourself yields ErrSelfFollow.
func (r *FollowRepo) Follow(ctx context.Context, followerID, followedID int64) error {
	if followerID == followedID {
		return ErrSelfFollow
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO followers (follower_id, followed_id) VALUES ($1, $2)
		 ON CONFLICT (follower_id, followed_id) DO NOTHING`,
		followerID, followedID,
	)
	return mapError(err)
}

// Unfollow removes the edge followerID -> followedID if present.
func (r *FollowRepo) Unfollow(ctx context.Context, followerID, followedID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM followers WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID,
	)
	return err
}

// IsFollowing reports whether the edge followerID -> followedID exists.
func (r *FollowRepo) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM followers WHERE follower_id = $1 AND followed_id = $2)`,
		followerID, followedID,
	).Scan(&ok)
	return ok, err
}

// Followers lists the users following userID, ordered by username.
func (r *FollowRepo) Followers(ctx context.Context, userID int64) ([]models.User, error) {
	return r.users(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.about_me, u.last_seen, u.created_at
		 FROM users u
		 JOIN followers f ON f.follower_id = u.id
		 WHERE f.followed_id = $1
		 ORDER BY u.username`, userID)
}

// Following lists the users userID follows, ordered by username.
func (r *FollowRepo) Following(ctx context.Context, userID int64) ([]models.User, error) {
	return r.users(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.about_me, u.last_seen, u.created_at
		 FROM users u
		 JOIN followers f ON f.followed_id = u.id
		 WHERE f.follower_id = $1
		 ORDER BY u.username`, userID)
}

func (r *FollowRepo) users(ctx context.Context, query string, userID int64) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *FollowRepo) FollowersCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM followers WHERE followed_id = $1`, userID).Scan(&n)
	return n, err
}

func (r *FollowRepo) FollowingCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM followers WHERE follower_id = $1`, userID).Scan(&n)
	return n, err
}

// Edges returns every follow edge, for exports and the operator CLI.
func (r *FollowRepo) Edges(ctx context.Context) ([]models.FollowEdge, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT follower_id, followed_id FROM followers ORDER BY follower_id, followed_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []models.FollowEdge
	for rows.Next() {
		var e models.FollowEdge
		if err := rows.Scan(&e.FollowerID, &e.FollowedID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Count returns the total number of follow edges.
func (r *FollowRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM followers").Scan(&n)
	return n, err
}
