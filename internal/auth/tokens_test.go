package auth

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokens(t *testing.T) *HMACTokens {
	t.Helper()
	tokens, err := NewHMACTokens(testSecret, "internaldms", 480*time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return tokens
}

func TestHMACTokensRoundTrip(t *testing.T) {
	tokens := newTestTokens(t)
	user := &models.User{ID: "u-1", Email: "a@example.com", Role: models.RoleAdmin}

	signed, ttl, err := tokens.IssueToken(user)
	require.NoError(t, err)
	assert.Equal(t, 480*time.Minute, ttl)

	claims, err := tokens.VerifyToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.GetUserID())
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "internaldms", claims.Issuer)
}

func TestHMACTokensRejects(t *testing.T) {
	tokens := newTestTokens(t)
	user := &models.User{ID: "u-1", Email: "a@example.com", Role: models.RoleUser}

	t.Run("expired", func(t *testing.T) {
		signed, _, err := tokens.IssueToken(user)
		require.NoError(t, err)

		later := *tokens
		later.now = func() time.Time { return time.Now().Add(9 * time.Hour) }
		_, err = later.VerifyToken(signed)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewHMACTokens(strings.Repeat("z", 32), "internaldms", time.Hour, tokens.logger)
		require.NoError(t, err)
		signed, _, err := other.IssueToken(user)
		require.NoError(t, err)
		_, err = tokens.VerifyToken(signed)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewHMACTokens(testSecret, "someone-else", time.Hour, tokens.logger)
		require.NoError(t, err)
		signed, _, err := other.IssueToken(user)
		require.NoError(t, err)
		_, err = tokens.VerifyToken(signed)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &models.AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u-1",
				Issuer:    "internaldms",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.VerifyToken(unsigned)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.VerifyToken("not.a.token")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestNewHMACTokensValidates(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewHMACTokens("short", "x", time.Hour, logger)
	assert.Error(t, err)
	_, err = NewHMACTokens(testSecret, "x", 0, logger)
	assert.Error(t, err)
}

func TestChainVerifier(t *testing.T) {
	tokens := newTestTokens(t)
	signed, _, err := tokens.IssueToken(&models.User{ID: "u-9", Email: "c@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	other, err := NewHMACTokens(strings.Repeat("q", 32), "internaldms", time.Hour, tokens.logger)
	require.NoError(t, err)

	claims, err := ChainVerifier{other, tokens}.VerifyToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "u-9", claims.Subject)

	_, err = ChainVerifier{other}.VerifyToken(signed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = ChainVerifier{}.VerifyToken(signed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.NoError(t, ChainVerifier{tokens}.Close())
}
