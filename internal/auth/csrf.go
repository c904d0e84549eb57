package auth

import (
	"time"

	"github.com/gorilla/securecookie"
)

const csrfName = "cfs_admin_action"

// CSRF issues and checks anti-forgery tokens bound to an admin subject
type CSRF struct {
	codec *securecookie.SecureCookie
}

// NewCSRF creates a token issuer. key must be at least 32 bytes.
func NewCSRF(key []byte, maxAge time.Duration) *CSRF {
	codec := securecookie.New(key, nil)
	codec.MaxAge(int(maxAge.Seconds()))
	return &CSRF{codec: codec}
}

// Token returns a fresh token for subject
func (c *CSRF) Token(subject string) (string, error) {
	return c.codec.Encode(csrfName, subject)
}

// Verify reports whether token was issued for subject and has not expired
func (c *CSRF) Verify(token, subject string) bool {
	if token == "" {
		return false
	}
	var got string
	if err := c.codec.Decode(csrfName, token, &got); err != nil {
		return false
	}
	return got == subject
}
