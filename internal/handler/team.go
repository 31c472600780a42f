package handler

import (
	"log/slog"
	"net/http"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
	"github.com/YugenJarwal13/InternalDMS/internal/httputil"
)

// TeamHandler handles teams and their memberships
type TeamHandler struct {
	teamService services.TeamService
	logger      *slog.Logger
}

func NewTeamHandler(teamService services.TeamService, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{teamService: teamService, logger: logger}
}

// Create adds a team and its folder
// POST /api/teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req services.CreateTeamRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	team, err := h.teamService.Create(r.Context(), p, &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, team)
}

// List returns every team with members
// GET /api/teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	teams, err := h.teamService.List(r.Context(), p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, teams)
}

// ListForUser returns the caller's teams
// GET /api/teams/for-user
func (h *TeamHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	teams, err := h.teamService.ListForUser(r.Context(), p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, teams)
}

// Delete removes a team and its folder
// DELETE /api/teams/{id}
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.teamService.Delete(r.Context(), p, r.PathValue("id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMember grants a user membership
// POST /api/teams/{id}/users
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req services.AddMemberRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	team, err := h.teamService.AddMember(r.Context(), p, r.PathValue("id"), req.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, team)
}

// RemoveMember revokes a membership
// DELETE /api/teams/{id}/users/{user_id}
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.teamService.RemoveMember(r.Context(), p, r.PathValue("id"), r.PathValue("user_id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
