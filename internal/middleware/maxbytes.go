package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes is the default maximum form body size (1 MiB).
const DefaultMaxBodyBytes = 1 << 20

// MaxBytes caps the body of form submissions. Oversized bodies make
// ParseForm fail, which handlers answer with 400.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				if r.Body != nil {
					r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
