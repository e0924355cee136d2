package auth

import (
	"net/url"
	"strings"
)

// DefaultLanding is where users go after login when no usable next target exists.
const DefaultLanding = "/index"

// SafeNext returns next when it is a same-site relative path, else DefaultLanding.
// Anything with a scheme or host, and protocol-relative forms like "//evil"
// or "/\evil", are rejected.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return DefaultLanding
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return DefaultLanding
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return DefaultLanding
	}
	return next
}

// LoginURL is the login page that returns to next afterwards.
func LoginURL(next string) string {
	if next == "" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}
