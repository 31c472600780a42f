package auth

import "github.com/YugenJarwal13/InternalDMS/internal/domain/models"

// JWTVerifier defines the interface for JWT token verification.
// This abstraction allows for different JWT verification implementations
// while keeping the middleware agnostic to the verification details.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.AccessClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	// Should be called when the verifier is no longer needed.
	Close() error
}

// ChainVerifier accepts a token if any of its verifiers does, trying them in
// order. It lets locally issued tokens and identity-provider tokens coexist.
type ChainVerifier []JWTVerifier

func (c ChainVerifier) VerifyToken(tokenString string) (*models.AccessClaims, error) {
	var lastErr error
	for _, v := range c {
		claims, err := v.VerifyToken(tokenString)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, errNoVerifier
	}
	return nil, lastErr
}

func (c ChainVerifier) Close() error {
	var firstErr error
	for _, v := range c {
		if err := v.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
