package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/httputil"
)

// AuthorizeHandler answers advisory permission checks so clients can hide
// actions the caller may not perform.
type AuthorizeHandler struct {
	treeService docsysSvc.TreeService
	logger      *slog.Logger
}

func NewAuthorizeHandler(treeService docsysSvc.TreeService, logger *slog.Logger) *AuthorizeHandler {
	return &AuthorizeHandler{treeService: treeService, logger: logger}
}

// Authorize returns 200 {} when allowed and 403 with the reason otherwise
// POST /api/authorize
func (h *AuthorizeHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req docsysSvc.AuthorizeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.treeService.Authorize(r.Context(), p, &req); err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, struct{}{})
}
