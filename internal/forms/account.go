package forms

import (
	"context"
	"net/http"
)

type LoginForm struct {
	Username   string `form:"username" validate:"required"`
	Password   string `form:"password" validate:"required"`
	RememberMe bool   `form:"remember_me"`
}

func LoginFromRequest(r *http.Request) LoginForm {
	return LoginForm{
		Username:   field(r, "username"),
		Password:   r.PostFormValue("password"),
		RememberMe: checked(r.PostFormValue("remember_me")),
	}
}

func (f LoginForm) Validate() Errors {
	return check(f)
}

type RegistrationForm struct {
	Username  string `form:"username" validate:"required,max=64,username"`
	Email     string `form:"email" validate:"required,email,max=120"`
	Password  string `form:"password" validate:"required,maxbytes=72"`
	Password2 string `form:"password2" validate:"required,eqfield=Password"`
}

func RegistrationFromRequest(r *http.Request) RegistrationForm {
	return RegistrationForm{
		Username:  field(r, "username"),
		Email:     field(r, "email"),
		Password:  r.PostFormValue("password"),
		Password2: r.PostFormValue("password2"),
	}
}

// Validate checks the field constraints, then username and email uniqueness.
// The store's unique constraints stay authoritative; this only gives early,
// per-field feedback.
func (f RegistrationForm) Validate(ctx context.Context, users UserLookup) (Errors, error) {
	errs := check(f)

	if errs.Get("username") == "" {
		taken, err := users.UsernameTaken(ctx, f.Username, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("username", MsgUsernameTaken)
		}
	}
	if errs.Get("email") == "" {
		taken, err := users.EmailTaken(ctx, f.Email, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("email", MsgEmailTaken)
		}
	}
	return errs, nil
}

type EditProfileForm struct {
	Username string `form:"username" validate:"required,max=64,username"`
	AboutMe  string `form:"about_me" validate:"max=140"`
}

func EditProfileFromRequest(r *http.Request) EditProfileForm {
	return EditProfileForm{
		Username: field(r, "username"),
		AboutMe:  field(r, "about_me"),
	}
}

// Validate checks the constraints; a changed username must not belong to
// another user. userID and originalUsername identify the user being edited.
func (f EditProfileForm) Validate(ctx context.Context, users UserLookup, userID int64, originalUsername string) (Errors, error) {
	errs := check(f)

	if errs.Get("username") == "" && f.Username != originalUsername {
		taken, err := users.UsernameTaken(ctx, f.Username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("username", MsgUsernameTaken)
		}
	}
	return errs, nil
}

func checked(v string) bool {
	switch v {
	case "y", "on", "true", "1":
		return true
	}
	return false
}
