package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahanj/shopledger/internal/auth"
	"github.com/sahanj/shopledger/internal/user"
)

func newAuth() *auth.Auth {
	return auth.New("test-secret", time.Hour)
}

func claimsEcho(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(claims.Username))
	})
}

func TestAuthenticateRoundTrip(t *testing.T) {
	a := newAuth()

	token, err := a.Token(&user.User{Username: "kasun", Level: user.LevelTwo})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	a.Authenticate(claimsEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "kasun", rec.Body.String())
}

func TestAuthenticateRejections(t *testing.T) {
	a := newAuth()

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not a bearer token", header: "Basic abc123"},
		{name: "garbage token", header: "Bearer not.a.token"},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			a.Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthenticateWrongSecret(t *testing.T) {
	token, err := auth.New("other-secret", time.Hour).Token(&user.User{Username: "kasun", Level: user.LevelOne})
	require.NoError(t, err)

	a := newAuth()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	a.Authenticate(claimsEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	expired := auth.New("test-secret", -time.Minute)

	token, err := expired.Token(&user.User{Username: "kasun", Level: user.LevelOne})
	require.NoError(t, err)

	a := newAuth()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	a.Authenticate(claimsEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireLevel2(t *testing.T) {
	a := newAuth()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	protected := a.Authenticate(auth.RequireLevel2(ok))

	tests := []struct {
		name     string
		level    user.Level
		wantCode int
	}{
		{name: "L2 allowed", level: user.LevelTwo, wantCode: http.StatusNoContent},
		{name: "L1 forbidden", level: user.LevelOne, wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := a.Token(&user.User{Username: "someone", Level: tt.level})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRequireLevel2WithoutClaims(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	})

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()

	auth.RequireLevel2(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
