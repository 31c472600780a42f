package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
)

// TokenIssuer signs access tokens for users who logged in with a password.
type TokenIssuer interface {
	IssueToken(user *models.User) (token string, expiresIn time.Duration, err error)
}

// HMACTokens issues and verifies HS256 access tokens with a shared secret.
type HMACTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewHMACTokens creates an HS256 issuer/verifier.
func NewHMACTokens(secret, issuer string, ttl time.Duration, logger *slog.Logger) (*HMACTokens, error) {
	if len(secret) < 32 {
		return nil, errors.New("JWT secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("token TTL must be positive")
	}
	return &HMACTokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}, nil
}

var (
	_ TokenIssuer = (*HMACTokens)(nil)
	_ JWTVerifier = (*HMACTokens)(nil)
)

// IssueToken signs a token whose subject is the user ID.
func (h *HMACTokens) IssueToken(user *models.User) (string, time.Duration, error) {
	now := h.now()
	claims := &models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    h.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
		},
		Email: user.Email,
		Role:  user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, h.ttl, nil
}

// VerifyToken validates signature, issuer and expiry of an HS256 token.
func (h *HMACTokens) VerifyToken(tokenString string) (*models.AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.now),
	}
	if h.issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, func(*jwt.Token) (interface{}, error) {
		return h.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		h.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func (h *HMACTokens) Close() error {
	return nil
}
