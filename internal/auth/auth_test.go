package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func TestToken_RoundTrip(t *testing.T) {
	tok, err := GenerateToken(testSecret, "ops", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = ValidateToken("another-secret-value", tok)
	assert.Error(t, err)
}

func TestToken_Expired(t *testing.T) {
	tok, err := GenerateToken(testSecret, "ops", RoleAdmin, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(testSecret, tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestMiddleware(t *testing.T) {
	h := Middleware(testSecret, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ops", GetUser(r.Context()).Subject)
		w.WriteHeader(http.StatusNoContent)
	}))

	admin, err := GenerateToken(testSecret, "ops", RoleAdmin, time.Hour)
	require.NoError(t, err)
	editor, err := GenerateToken(testSecret, "ed", "editor", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + editor, http.StatusForbidden},
		{"admin", "Bearer " + admin, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/submissions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCSRF(t *testing.T) {
	c := NewCSRF([]byte("0123456789abcdef0123456789abcdef"), time.Hour)

	tok, err := c.Token("ops")
	require.NoError(t, err)

	assert.True(t, c.Verify(tok, "ops"))
	assert.False(t, c.Verify(tok, "someone-else"))
	assert.False(t, c.Verify("", "ops"))
	assert.False(t, c.Verify(tok+"x", "ops"))

	other := NewCSRF([]byte("fedcba9876543210fedcba9876543210"), time.Hour)
	assert.False(t, other.Verify(tok, "ops"))
}
