package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/crucial707/microblog/internal/models"
)

const userColumns = `id, username, email, password_hash, about_me, last_seen, created_at`

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u        models.User
		hash     sql.NullString
		lastSeen sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &hash, &u.AboutMe, &lastSeen, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	if lastSeen.Valid {
		t := lastSeen.Time
		u.LastSeen = &t
	}
	return &u, nil
}

// ==========================
// Create User
// ==========================

// Create inserts u and fills in its ID and CreatedAt. A taken username or
// email surfaces as a *DuplicateError naming the field.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, about_me)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Username, u.Email, nullString(u.PasswordHash), u.AboutMe,
	).Scan(&u.ID, &u.CreatedAt)
	return mapError(err)
}

// ==========================
// Lookups
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, mapError(err)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	return u, mapError(err)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, mapError(err)
}

// UsernameTaken reports whether a user other than exceptID holds username.
// Pass exceptID 0 to check against every user.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var taken bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`,
		username, exceptID,
	).Scan(&taken)
	return taken, err
}

// EmailTaken reports whether a user other than exceptID holds email.
func (r *UserRepo) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var taken bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
		email, exceptID,
	).Scan(&taken)
	return taken, err
}

// ==========================
// Updates
// ==========================

// UpdateProfile changes username and about-me text and returns the stored row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, username, aboutMe string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`UPDATE users SET username = $1, about_me = $2
		 WHERE id = $3
		 RETURNING `+userColumns,
		username, aboutMe, id))
	return u, mapError(err)
}

func (r *UserRepo) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, nullString(hash), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// TouchLastSeen records activity for the user at t.
func (r *UserRepo) TouchLastSeen(ctx context.Context, id int64, t time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET last_seen = $1 WHERE id = $2`, t.UTC(), id)
	return err
}

// ==========================
// List / Count
// ==========================
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
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

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
