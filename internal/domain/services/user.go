package services

import (
	"context"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
)

// UserService handles login and the admin-managed user directory.
type UserService interface {
	// Login checks a password and issues an access token.
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)

	// ResolvePrincipal loads the caller identified by a verified token.
	// The role comes from the directory, not from the token.
	ResolvePrincipal(ctx context.Context, claims *models.AccessClaims) (*models.Principal, error)

	// Me returns the caller's own user record.
	Me(ctx context.Context, p *models.Principal) (*models.User, error)

	// List returns every user. Admin only.
	List(ctx context.Context, p *models.Principal) ([]models.User, error)

	// Create adds a user. Admin only.
	Create(ctx context.Context, p *models.Principal, req *CreateUserRequest) (*models.User, error)

	// Update changes email, role or password of a user. Admin only.
	Update(ctx context.Context, p *models.Principal, id string, req *UpdateUserRequest) (*models.User, error)

	// Delete removes a user and all of their team memberships. Admin only.
	Delete(ctx context.Context, p *models.Principal, id string) error
}

// LoginRequest is the body of POST /api/users/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries a bearer token. ExpiresIn is in seconds.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *models.User `json:"user"`
}

// CreateUserRequest is the body of POST /api/users/admin-create
type CreateUserRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// UpdateUserRequest is the body of PUT /api/users/admin-edit/{id}.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	Email    *string      `json:"email,omitempty"`
	Password *string      `json:"password,omitempty"`
	Role     *models.Role `json:"role,omitempty"`
}

// TeamService manages teams, their folders and memberships.
type TeamService interface {
	// Create adds a team and its folder under the tree root. Admin only.
	Create(ctx context.Context, p *models.Principal, req *CreateTeamRequest) (*models.Team, error)

	// List returns every team with members. Admin only.
	List(ctx context.Context, p *models.Principal) ([]models.Team, error)

	// ListForUser returns the caller's teams.
	ListForUser(ctx context.Context, p *models.Principal) ([]models.Team, error)

	// Delete removes a team and force-deletes its folder subtree. Admin only.
	Delete(ctx context.Context, p *models.Principal, id string) error

	// AddMember grants a user access to the team folder. Admin only.
	AddMember(ctx context.Context, p *models.Principal, teamID, userID string) (*models.Team, error)

	// RemoveMember revokes a membership. Admin only.
	RemoveMember(ctx context.Context, p *models.Principal, teamID, userID string) error
}

// CreateTeamRequest is the body of POST /api/teams
type CreateTeamRequest struct {
	Name string `json:"name"`
}

// AddMemberRequest is the body of POST /api/teams/{id}/users
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

// ActivityService reads the activity log.
type ActivityService interface {
	// List returns entries newest first with Status and CurrentLocation
	// resolved against the current tree. Admin only.
	List(ctx context.Context, p *models.Principal, limit, offset int) ([]models.ActivityLogEntry, error)
}
