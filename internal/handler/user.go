package handler

import (
	"log/slog"
	"net/http"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
	"github.com/YugenJarwal13/InternalDMS/internal/httputil"
)

// UserHandler handles login and user administration
type UserHandler struct {
	userService services.UserService
	logger      *slog.Logger
}

func NewUserHandler(userService services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// Login exchanges email and password for a bearer token
// POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	resp, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// Me returns the caller's account
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := h.userService.Me(r.Context(), p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, user)
}

// List returns every user
// GET /api/users/all
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	users, err := h.userService.List(r.Context(), p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, users)
}

// Create adds a user
// POST /api/users/admin-create
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req services.CreateUserRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	user, err := h.userService.Create(r.Context(), p, &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, user)
}

// Update changes email, password or role
// PUT /api/users/admin-edit/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req services.UpdateUserRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	user, err := h.userService.Update(r.Context(), p, r.PathValue("id"), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, user)
}

// Delete removes a user and their team memberships
// DELETE /api/users/delete-user/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.userService.Delete(r.Context(), p, r.PathValue("id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
