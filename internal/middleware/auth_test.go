package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/identity-service/internal/contextx"
	"github.com/platformkit/identity-service/internal/token"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := contextx.ClaimsFrom(r.Context())
		require.True(t, ok, "claims must be attached by the middleware")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(claims.UserID))
	})
}

func TestAuthenticator_ValidToken(t *testing.T) {
	tokens := token.NewService("test-secret", time.Hour)
	signed, err := tokens.Issue("user-1", "alice@example.com", "USER")
	require.NoError(t, err)

	handler := Authenticator(tokens, testLogger())(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestAuthenticator_MissingHeader(t *testing.T) {
	tokens := token.NewService("test-secret", time.Hour)
	handler := Authenticator(tokens, testLogger())(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "no token provided")
}

func TestAuthenticator_MalformedHeader(t *testing.T) {
	tokens := token.NewService("test-secret", time.Hour)
	handler := Authenticator(tokens, testLogger())(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticator_InvalidToken(t *testing.T) {
	tokens := token.NewService("test-secret", time.Hour)
	other := token.NewService("other-secret", time.Hour)
	signed, err := other.Issue("user-1", "alice@example.com", "USER")
	require.NoError(t, err)

	handler := Authenticator(tokens, testLogger())(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}
