package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YugenJarwal13/InternalDMS/internal/auth"
	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/httputil"
)

type stubResolver struct{}

func (stubResolver) ResolvePrincipal(_ context.Context, c *models.AccessClaims) (*models.Principal, error) {
	if c.Subject == "u-gone" {
		return nil, &domain.UnauthorizedError{Message: "user no longer exists"}
	}
	return &models.Principal{UserID: c.Subject, Email: c.Email, Role: c.Role}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoPrincipal() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := httputil.GetPrincipal(r); p != nil {
			io.WriteString(w, p.UserID)
			return
		}
		io.WriteString(w, "anonymous")
	})
}

func TestAuth(t *testing.T) {
	tokens, err := auth.NewHMACTokens(strings.Repeat("s", 32), "internaldms", time.Hour, discardLogger())
	require.NoError(t, err)
	h := Auth(tokens, stubResolver{}, discardLogger(), "GET /health")(echoPrincipal())

	valid, _, err := tokens.IssueToken(&models.User{ID: "u-1", Email: "a@example.com", Role: models.RoleUser})
	require.NoError(t, err)
	gone, _, err := tokens.IssueToken(&models.User{ID: "u-gone", Email: "g@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		status int
		body   string
	}{
		{"public route", http.MethodGet, "/health", "", http.StatusOK, "anonymous"},
		{"missing token", http.MethodGet, "/api/folders/list", "", http.StatusUnauthorized, ""},
		{"wrong scheme", http.MethodGet, "/api/folders/list", "Basic " + valid, http.StatusUnauthorized, ""},
		{"bad token", http.MethodGet, "/api/folders/list", "Bearer nope", http.StatusUnauthorized, ""},
		{"deleted user", http.MethodGet, "/api/folders/list", "Bearer " + gone, http.StatusUnauthorized, ""},
		{"valid", http.MethodGet, "/api/folders/list", "Bearer " + valid, http.StatusOK, "u-1"},
		{"lowercase scheme", http.MethodGet, "/api/folders/list", "bearer " + valid, http.StatusOK, "u-1"},
		{"public path other method", http.MethodPost, "/health", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
		RequestLogger(discardLogger()), Recovery(discardLogger()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRateLimiter(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 5))

	l := NewRateLimiter(1, 2)
	now := time.Now()
	l.now = func() time.Time { return now }

	h := l.Middleware(echoPrincipal())
	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != "" {
			req = httputil.WithPrincipal(req, &models.Principal{UserID: user})
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusOK, do("b"), "buckets are per principal")
	assert.Equal(t, http.StatusOK, do(""))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, do("a"))
}
