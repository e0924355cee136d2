package forms

import (
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type fakeLookup struct {
	usernames map[string]int64
	emails    map[string]int64
	err       error
	calls     int
}

func (f *fakeLookup) UsernameTaken(_ context.Context, username string, exceptID int64) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	id, ok := f.usernames[username]
	return ok && id != exceptID, nil
}

func (f *fakeLookup) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	id, ok := f.emails[email]
	return ok && id != exceptID, nil
}

func TestRegistration_Valid(t *testing.T) {
	f := RegistrationForm{Username: "alice", Email: "alice@example.com", Password: "pw", Password2: "pw"}
	errs, err := f.Validate(context.Background(), &fakeLookup{})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !errs.OK() {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestRegistration_FieldErrors(t *testing.T) {
	f := RegistrationForm{Username: "", Email: "not-an-email", Password: "pw", Password2: "other"}
	lookup := &fakeLookup{}
	errs, err := f.Validate(context.Background(), lookup)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if errs.Get("username") != "This field is required." {
		t.Errorf("username: got %q", errs.Get("username"))
	}
	if errs.Get("email") != "Invalid email address." {
		t.Errorf("email: got %q", errs.Get("email"))
	}
	if errs.Get("password2") != "Field must be equal to password." {
		t.Errorf("password2: got %q", errs.Get("password2"))
	}
	if errs.Get("password") != "" {
		t.Errorf("password: unexpected %q", errs.Get("password"))
	}
	if lookup.calls != 0 {
		t.Errorf("uniqueness checked for invalid fields: %d calls", lookup.calls)
	}
}

func TestRegistration_Taken(t *testing.T) {
	lookup := &fakeLookup{
		usernames: map[string]int64{"alice": 1},
		emails:    map[string]int64{"alice@example.com": 1},
	}
	f := RegistrationForm{Username: "alice", Email: "alice@example.com", Password: "pw", Password2: "pw"}
	errs, err := f.Validate(context.Background(), lookup)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if errs.Get("username") != MsgUsernameTaken {
		t.Errorf("username: got %q", errs.Get("username"))
	}
	if errs.Get("email") != MsgEmailTaken {
		t.Errorf("email: got %q", errs.Get("email"))
	}
}

func TestRegistration_LookupFailure(t *testing.T) {
	boom := errors.New("db down")
	f := RegistrationForm{Username: "alice", Email: "alice@example.com", Password: "pw", Password2: "pw"}
	if _, err := f.Validate(context.Background(), &fakeLookup{err: boom}); !errors.Is(err, boom) {
		t.Errorf("expected lookup error, got %v", err)
	}
}

func TestEditProfile(t *testing.T) {
	lookup := &fakeLookup{usernames: map[string]int64{"alice": 1, "bob": 2}}

	// keeping your own username is fine
	errs, err := EditProfileForm{Username: "alice", AboutMe: "hi"}.Validate(context.Background(), lookup, 1, "alice")
	if err != nil || !errs.OK() {
		t.Errorf("unchanged username: errs=%v err=%v", errs, err)
	}
	if lookup.calls != 0 {
		t.Errorf("unchanged username hit the store %d times", lookup.calls)
	}

	errs, err = EditProfileForm{Username: "bob"}.Validate(context.Background(), lookup, 1, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if errs.Get("username") != MsgUsernameTaken {
		t.Errorf("username collision: got %q", errs.Get("username"))
	}

	errs, _ = EditProfileForm{Username: "alice", AboutMe: strings.Repeat("é", 141)}.Validate(context.Background(), lookup, 1, "alice")
	if errs.Get("about_me") != "Field cannot be longer than 140 characters." {
		t.Errorf("about_me: got %q", errs.Get("about_me"))
	}
	errs, _ = EditProfileForm{Username: "alice", AboutMe: strings.Repeat("é", 140)}.Validate(context.Background(), lookup, 1, "alice")
	if !errs.OK() {
		t.Errorf("140 characters should pass: %v", errs)
	}
}

func TestPostForm(t *testing.T) {
	if errs := (PostForm{Title: "t", Body: "b"}).Validate(); !errs.OK() {
		t.Errorf("valid post: %v", errs)
	}
	errs := PostForm{}.Validate()
	if errs.Get("title") == "" || errs.Get("body") == "" {
		t.Errorf("empty post: got %v", errs)
	}
	errs = PostForm{Title: "t", Body: strings.Repeat("x", 1001)}.Validate()
	if errs.Get("body") != "Field cannot be longer than 1000 characters." {
		t.Errorf("long body: got %q", errs.Get("body"))
	}
	if errs := (PostForm{Title: "t", Body: strings.Repeat("x", 1000)}).Validate(); !errs.OK() {
		t.Errorf("1000 characters should pass: %v", errs)
	}
}

func TestLoginFromRequest(t *testing.T) {
	form := url.Values{"username": {"  alice "}, "password": {" pw "}, "remember_me": {"y"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	f := LoginFromRequest(req)
	if f.Username != "alice" || f.Password != " pw " || !f.RememberMe {
		t.Errorf("unexpected form: %+v", f)
	}
	if errs := f.Validate(); !errs.OK() {
		t.Errorf("Validate: %v", errs)
	}
}

func TestRegistration_PasswordTooLong(t *testing.T) {
	long := strings.Repeat("p", 80)
	f := RegistrationForm{Username: "alice", Email: "alice@example.com", Password: long, Password2: long}
	errs, err := f.Validate(context.Background(), &fakeLookup{})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := errs.Get("password"); got != "Field cannot be longer than 72 bytes." {
		t.Errorf("password: got %q", got)
	}

	exact := strings.Repeat("p", MaxPasswordBytes)
	f.Password, f.Password2 = exact, exact
	errs, _ = f.Validate(context.Background(), &fakeLookup{})
	if !errs.OK() {
		t.Errorf("72-byte password should pass, got %v", errs)
	}
}

func TestUsernameCharset(t *testing.T) {
	for _, name := range []string{"a/b", "what?", "x#y", "50%", `back\slash`, "two words"} {
		f := EditProfileForm{Username: name}
		errs, err := f.Validate(context.Background(), &fakeLookup{}, 1, "old")
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if errs.Get("username") == "" {
			t.Errorf("%q: expected a username error", name)
		}
	}
	f := RegistrationForm{Username: "john.doe_2-x", Email: "j@example.com", Password: "pw", Password2: "pw"}
	if errs, _ := f.Validate(context.Background(), &fakeLookup{}); !errs.OK() {
		t.Errorf("valid username rejected: %v", errs)
	}
}
