package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/microblog/internal/auth"
	"github.com/crucial707/microblog/internal/config"
	"github.com/crucial707/microblog/internal/middleware"
	"github.com/crucial707/microblog/internal/models"
)

var (
	userCols = []string{"id", "username", "email", "password_hash", "about_me", "last_seen", "created_at"}
	postCols = []string{"id", "title", "body", "timestamp", "user_id", "username"}
)

const (
	selectByID       = `SELECT id, username, email, password_hash, about_me, last_seen, created_at FROM users WHERE id = \$1`
	selectByUsername = `SELECT id, username, email, password_hash, about_me, last_seen, created_at FROM users WHERE username = \$1`
	touchLastSeen    = `UPDATE users SET last_seen = \$1 WHERE id = \$2`
)

func testConfig() config.Config {
	return config.Config{
		SecretKey:    "test-secret-for-integration",
		PostsPerPage: 25,
		SessionHours: 1,
		RememberDays: 1,
	}
}

type testServer struct {
	*httptest.Server
	mock   sqlmock.Sqlmock
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := httptest.NewServer(newRouter(db, testConfig(), middleware.AuthRateLimiter()))
	t.Cleanup(srv.Close)

	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &testServer{Server: srv, mock: mock, client: client}
}

func (s *testServer) do(t *testing.T, method, path string, form url.Values, cookie *http.Cookie) (*http.Response, string) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, s.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func sessionCookieFor(t *testing.T, id int64) *http.Cookie {
	t.Helper()
	cfg := testConfig()
	token, _, err := auth.NewSessions(cfg.SecretKey, time.Hour, time.Hour, false).Issue(id, false)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func userRow(id int64, username, hash string) *sqlmock.Rows {
	var h any
	if hash != "" {
		h = hash
	}
	return sqlmock.NewRows(userCols).AddRow(id, username, username+"@example.com", h, "", nil, time.Now())
}

func (s *testServer) expectSession(id int64, username string) {
	s.mock.ExpectQuery(selectByID).WithArgs(id).WillReturnRows(userRow(id, username, ""))
	s.mock.ExpectExec(touchLastSeen).WithArgs(sqlmock.AnyArg(), id).WillReturnResult(sqlmock.NewResult(0, 1))
}

func (s *testServer) expectMet(t *testing.T) {
	t.Helper()
	if err := s.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/health", nil, nil)
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Errorf("GET /health: got %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestReady(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectPing()

	rec := httptest.NewRecorder()
	newRouter(db, testConfig(), middleware.AuthRateLimiter()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /ready: got %d", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUnknownRouteIs404Page(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/no/such/page", nil, nil)
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(body, "Not Found") {
		t.Errorf("got %d: %s", resp.StatusCode, body)
	}
}

// Anonymous /edit_profile goes to login with next, and login lands back on it.
func TestLoginRequired_RedirectsAndReturnsToNext(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodGet, "/edit_profile", nil, nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous /edit_profile: got %d, want 302", resp.StatusCode)
	}
	loginURL := resp.Header.Get("Location")
	if loginURL != "/login?next=%2Fedit_profile" {
		t.Fatalf("Location: got %q", loginURL)
	}

	var u models.User
	if err := u.SetPassword("cat"); err != nil {
		t.Fatal(err)
	}
	s.mock.ExpectQuery(selectByUsername).WithArgs("susan").WillReturnRows(userRow(2, "susan", u.PasswordHash))

	resp, _ = s.do(t, http.MethodPost, loginURL, url.Values{"username": {"susan"}, "password": {"cat"}}, nil)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/edit_profile" {
		t.Fatalf("login: got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("no session cookie after login")
	}

	s.expectSession(2, "susan")
	resp, body := s.do(t, http.MethodGet, "/edit_profile", nil, session)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Edit Profile") {
		t.Errorf("/edit_profile after login: got %d", resp.StatusCode)
	}

	// an authenticated user visiting /login is sent to the landing page
	s.expectSession(2, "susan")
	resp, _ = s.do(t, http.MethodGet, "/login", nil, session)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/index" {
		t.Errorf("/login while authenticated: got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	s.expectMet(t)
}

// A follows B, sees B's post, unfollows, and no longer sees it.
func TestFollowTimelineUnfollow(t *testing.T) {
	s := newTestServer(t)
	cookie := sessionCookieFor(t, 1)

	s.expectSession(1, "john")
	s.mock.ExpectQuery(selectByUsername).WithArgs("susan").WillReturnRows(userRow(2, "susan", ""))
	s.mock.ExpectExec(`INSERT INTO followers`).WithArgs(1, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	resp, _ := s.do(t, http.MethodPost, "/follow/susan", url.Values{}, cookie)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/user/susan" {
		t.Fatalf("follow: got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	s.expectSession(1, "john")
	s.mock.ExpectQuery(`JOIN followers f ON f.followed_id = p.user_id`).
		WithArgs(1, 26, 0).
		WillReturnRows(sqlmock.NewRows(postCols).AddRow(9, "greeting", "hello", time.Now(), 2, "susan"))
	resp, body := s.do(t, http.MethodGet, "/index", nil, cookie)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "hello") {
		t.Fatalf("timeline after follow: got %d, body missing post", resp.StatusCode)
	}

	s.expectSession(1, "john")
	s.mock.ExpectQuery(selectByUsername).WithArgs("susan").WillReturnRows(userRow(2, "susan", ""))
	s.mock.ExpectExec(`DELETE FROM followers`).WithArgs(1, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	resp, _ = s.do(t, http.MethodPost, "/unfollow/susan", url.Values{}, cookie)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("unfollow: got %d", resp.StatusCode)
	}

	s.expectSession(1, "john")
	s.mock.ExpectQuery(`JOIN followers f ON f.followed_id = p.user_id`).
		WithArgs(1, 26, 0).
		WillReturnRows(sqlmock.NewRows(postCols))
	resp, body = s.do(t, http.MethodGet, "/index", nil, cookie)
	if resp.StatusCode != http.StatusOK || strings.Contains(body, "hello") {
		t.Errorf("timeline after unfollow: got %d, post still present", resp.StatusCode)
	}
	s.expectMet(t)
}

func TestInvalidSessionIsAnonymous(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, http.MethodGet, "/index", nil, &http.Cookie{Name: auth.CookieName, Value: "forged"})
	if resp.StatusCode != http.StatusFound || !strings.HasPrefix(resp.Header.Get("Location"), "/login") {
		t.Errorf("got %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestServer(t)
	var last int
	for i := 0; i < 6; i++ {
		resp, _ := s.do(t, http.MethodPost, "/login", url.Values{"username": {""}}, nil)
		last = resp.StatusCode
		if i < 5 && last != http.StatusOK {
			t.Fatalf("attempt %d: got %d, want 200", i+1, last)
		}
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("attempt 6: got %d, want 429", last)
	}
}
