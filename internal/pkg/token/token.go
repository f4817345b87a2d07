package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/go-feedback-service/internal/domain"
)

// Authenticator checks a presented credential against the configured shared secret.
type Authenticator struct {
	secret     [sha256.Size]byte
	configured bool
}

// NewAuthenticator builds an Authenticator. An empty secret yields an
// Authenticator that rejects everything.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{
		secret:     sha256.Sum256([]byte(secret)),
		configured: secret != "",
	}
}

// Configured reports whether a shared secret was supplied.
func (a *Authenticator) Configured() bool { return a.configured }

// Authenticate returns nil when presented equals the secret, otherwise an
// error wrapping domain.ErrAuthentication. Both sides are hashed first so the
// comparison time does not depend on either length.
func (a *Authenticator) Authenticate(presented string) error {
	if !a.configured {
		return fmt.Errorf("no shared secret configured: %w", domain.ErrAuthentication)
	}
	if presented == "" {
		return fmt.Errorf("missing credential: %w", domain.ErrAuthentication)
	}
	sum := sha256.Sum256([]byte(presented))
	if subtle.ConstantTimeCompare(sum[:], a.secret[:]) != 1 {
		return fmt.Errorf("bad credential: %w", domain.ErrAuthentication)
	}
	return nil
}
