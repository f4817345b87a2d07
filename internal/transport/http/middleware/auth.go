package middleware

import (
	"net/http"
	"strings"
)

// CredentialHeader carries the shared secret for clients that cannot set Authorization.
const CredentialHeader = "X-Feedback-Token"

type authenticator interface {
	Authenticate(presented string) error
}

// Auth returns middleware that rejects requests whose credential does not match the shared secret.
func Auth(authn authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := authn.Authenticate(Credential(r)); err != nil {
				writeJSONError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing credential")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Credential extracts the presented secret from a Bearer token, the password of
// HTTP Basic auth, or the X-Feedback-Token header, in that order.
func Credential(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if _, password, ok := r.BasicAuth(); ok {
		return password
	}
	return r.Header.Get(CredentialHeader)
}
