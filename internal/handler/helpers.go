package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/httputil"
)

// handleError converts domain errors to RFC 7807 responses with a "code"
// extension. Typed errors carry their own status; wrapped sentinels are
// mapped here. Anything else is logged and reported as a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		denied   *domain.PermissionDeniedError
		noFiles  *domain.NoFilesUploadedError
		tooLarge *http.MaxBytesError
		httpErr  domain.HTTPError
	)

	switch {
	case errors.As(err, &denied):
		httputil.RespondErrorWithExtras(w, http.StatusForbidden, denied.Reason, map[string]interface{}{
			"code":   denied.Code(),
			"action": denied.Action,
			"path":   denied.Path,
		})
	case errors.As(err, &noFiles):
		extras := map[string]interface{}{"code": noFiles.Code(), "created_files": 0}
		if len(noFiles.Skipped) > 0 {
			extras["skipped"] = noFiles.Skipped
		}
		httputil.RespondErrorWithExtras(w, http.StatusUnprocessableEntity, noFiles.Error(), extras)
	case errors.As(err, &tooLarge):
		httputil.RespondErrorWithExtras(w, http.StatusRequestEntityTooLarge, "request body too large",
			map[string]interface{}{"code": "too_large"})
	case errors.As(err, &httpErr):
		code := "error"
		var coder domain.Coder
		if errors.As(err, &coder) {
			code = coder.Code()
		}
		httputil.RespondErrorWithExtras(w, httpErr.StatusCode(), err.Error(), map[string]interface{}{"code": code})
	case errors.Is(err, domain.ErrValidation):
		respondCode(w, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, domain.ErrInvalidPath):
		respondCode(w, http.StatusBadRequest, "invalid_path", err)
	case errors.Is(err, domain.ErrNotFound):
		respondCode(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, domain.ErrConflict):
		respondCode(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, domain.ErrUnauthorized):
		respondCode(w, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, domain.ErrForbidden):
		respondCode(w, http.StatusForbidden, "permission_denied", err)
	default:
		slog.Error("unexpected error",
			"error", err,
			"request_id", httputil.GetRequestID(r),
			"path", r.URL.Path,
			"method", r.Method,
		)
		httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, "internal server error",
			map[string]interface{}{"code": "internal_error"})
	}
}

func respondCode(w http.ResponseWriter, status int, code string, err error) {
	httputil.RespondErrorWithExtras(w, status, err.Error(), map[string]interface{}{"code": code})
}

// principal returns the caller set by the auth middleware. Routes are only
// reachable through that middleware, so a missing principal is a 401.
func principal(w http.ResponseWriter, r *http.Request) (*models.Principal, bool) {
	p := httputil.GetPrincipal(r)
	if p == nil {
		respondCode(w, http.StatusUnauthorized, "unauthorized", domain.ErrUnauthorized)
		return nil, false
	}
	return p, true
}
