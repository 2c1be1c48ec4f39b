package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dose-tracker/internal/ports/auth"

	"github.com/stretchr/testify/assert"
)

func subjectOf(t *testing.T, verifier auth.TokenVerifier, header, value string) (string, bool) {
	t.Helper()
	var (
		got string
		ok  bool
	)
	h := AuthContext(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = Subject(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestAuthContext_DevHeader(t *testing.T) {
	id, ok := subjectOf(t, nil, "X-Debug-User-ID", " u-1 ")
	assert.True(t, ok)
	assert.Equal(t, "u-1", id)

	_, ok = subjectOf(t, nil, "", "")
	assert.False(t, ok)
}

func TestAuthContext_BearerToken(t *testing.T) {
	v := auth.VerifierFunc(func(_ context.Context, token string) (auth.Claims, error) {
		if token != "good" {
			return auth.Claims{}, errors.New("bad token")
		}
		return auth.Claims{UserID: "u-9"}, nil
	})

	id, ok := subjectOf(t, v, "Authorization", "Bearer good")
	assert.True(t, ok)
	assert.Equal(t, "u-9", id)

	_, ok = subjectOf(t, v, "Authorization", "Bearer bad")
	assert.False(t, ok)

	_, ok = subjectOf(t, v, "Authorization", "Basic good")
	assert.False(t, ok)

	// con verifier el header de debug no vale
	_, ok = subjectOf(t, v, "X-Debug-User-ID", "u-1")
	assert.False(t, ok)
}
