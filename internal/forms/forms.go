// Package forms holds the field-level constraints for every mutating form.
// Validation never fails with an error for bad input: it returns Errors,
// which is empty when the form is acceptable. The error return is reserved
// for storage failures during uniqueness checks.
package forms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field to its first validation message.
type Errors map[string]string

// OK reports whether no field failed.
func (e Errors) OK() bool {
	return len(e) == 0
}

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Get returns the message for field, or "".
func (e Errors) Get(field string) string {
	return e[field]
}

// UserLookup answers the uniqueness questions the forms need.
// exceptID excludes one user (the one being edited); 0 excludes nobody.
type UserLookup interface {
	UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
}

const (
	MsgUsernameTaken      = "Please use a different username."
	MsgEmailTaken         = "Please use a different email address."
	MsgInvalidCredentials = "Invalid username or password."
)

// TakenMessage returns the message shown when field collides with another user.
func TakenMessage(field string) string {
	if field == "email" {
		return MsgEmailTaken
	}
	return MsgUsernameTaken
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// usernamePattern keeps usernames safe to place in a URL path segment.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	must(v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	}))
	must(v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}))
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// check runs the struct constraints and converts failures into Errors.
func check(form any) Errors {
	errs := make(Errors)
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("form", err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "eqfield":
		return fmt.Sprintf("Field must be equal to %s.", strings.ToLower(fe.Param()))
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("Field cannot be longer than %s bytes.", fe.Param())
	case "username":
		return "Use only letters, digits, dots, dashes and underscores."
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	default:
		return "Invalid value."
	}
}

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}
