package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/YugenJarwal13/InternalDMS/internal/auth"
	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/httputil"
)

// PrincipalResolver turns verified token claims into the acting principal.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, claims *models.AccessClaims) (*models.Principal, error)
}

// Auth validates the bearer token on every request except the public routes
// and stores the resolved principal in the request context.
func Auth(verifier auth.JWTVerifier, resolver PrincipalResolver, logger *slog.Logger, public ...string) func(http.Handler) http.Handler {
	open := make(map[string]bool, len(public))
	for _, route := range public {
		open[route] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || open[r.Method+" "+r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), claims)
			if err != nil {
				var ue *domain.UnauthorizedError
				if errors.As(err, &ue) {
					unauthorized(w, ue.Message)
					return
				}
				logger.Error("failed to resolve principal", "subject", claims.Subject, "error", err)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, httputil.WithPrincipal(r, principal))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="internaldms"`)
	httputil.RespondErrorWithExtras(w, http.StatusUnauthorized, detail, map[string]interface{}{"code": "unauthorized"})
}
