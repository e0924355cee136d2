// Package auth issues and verifies the signed session cookie that carries a
// user's identity between requests.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie.
const CookieName = "microblog_session"

var ErrInvalidSession = errors.New("invalid session")

// Sessions signs session tokens with an HMAC secret.
type Sessions struct {
	Secret []byte
	// TTL is the token lifetime when "remember me" is off; the cookie itself
	// is a browser-session cookie.
	TTL time.Duration
	// RememberTTL is the token and cookie lifetime when "remember me" is on.
	RememberTTL time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewSessions(secret string, ttl, rememberTTL time.Duration, secure bool) *Sessions {
	return &Sessions{
		Secret:      []byte(secret),
		TTL:         ttl,
		RememberTTL: rememberTTL,
		Secure:      secure,
	}
}

func (s *Sessions) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue returns a signed token for userID and its expiry.
func (s *Sessions) Issue(userID int64, remember bool) (string, time.Time, error) {
	ttl := s.TTL
	if remember {
		ttl = s.RememberTTL
	}
	now := s.now()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies token and returns the user id it names.
func (s *Sessions) Parse(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidSession
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidSession
	}
	return id, nil
}

// Login attaches a session for userID to the response.
func (s *Sessions) Login(w http.ResponseWriter, userID int64, remember bool) error {
	token, exp, err := s.Issue(userID, remember)
	if err != nil {
		return err
	}
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		c.Expires = exp
		c.MaxAge = int(s.RememberTTL.Seconds())
	}
	http.SetCookie(w, c)
	return nil
}

// Logout clears the session cookie.
func (s *Sessions) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserID returns the user id from the request's session cookie. ok is false
// when there is no cookie; err is ErrInvalidSession when the cookie is bad.
func (s *Sessions) UserID(r *http.Request) (id int64, ok bool, err error) {
	c, cerr := r.Cookie(CookieName)
	if cerr != nil || c.Value == "" {
		return 0, false, nil
	}
	id, err = s.Parse(c.Value)
	if err != nil {
		return 0, true, err
	}
	return id, true, nil
}
