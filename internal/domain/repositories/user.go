package repositories

import (
	"context"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
)

// UserRepository defines data access for the user directory.
type UserRepository interface {
	// Create inserts a user. Duplicate emails fail with a *domain.ConflictError.
	Create(ctx context.Context, user *models.User) error

	// GetByID returns a user or an error matching domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail looks a user up by case-insensitive email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns all users ordered by email.
	List(ctx context.Context) ([]models.User, error)

	// Update overwrites email, role and password hash.
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user.
	Delete(ctx context.Context, id string) error
}

// TeamRepository defines data access for teams and their memberships.
type TeamRepository interface {
	// Create inserts a team. Duplicate names or folder paths fail with a *domain.ConflictError.
	Create(ctx context.Context, team *models.Team) error

	GetByID(ctx context.Context, id string) (*models.Team, error)

	// List returns all teams with members, ordered by name.
	List(ctx context.Context) ([]models.Team, error)

	// ListForUser returns the teams userID is a member of.
	ListForUser(ctx context.Context, userID string) ([]models.Team, error)

	Delete(ctx context.Context, id string) error

	// UpdateFolderPath repoints a team at its folder's new path after a
	// move or rename.
	UpdateFolderPath(ctx context.Context, id, folderPath string) error

	// AddMember grants membership. Adding an existing member is a *domain.ConflictError.
	AddMember(ctx context.Context, teamID string, m models.TeamMembership) error

	// RemoveMember revokes membership; missing memberships are ErrNotFound.
	RemoveMember(ctx context.Context, teamID, userID string) error

	// RemoveUserFromAll revokes every membership of userID.
	RemoveUserFromAll(ctx context.Context, userID string) error
}

// ActivityRepository is the append-only activity log.
type ActivityRepository interface {
	// Append stores entries in order. Entries are never updated or deleted.
	Append(ctx context.Context, entries ...models.ActivityLogEntry) error

	// List returns entries newest first.
	List(ctx context.Context, limit, offset int) ([]models.ActivityLogEntry, error)
}
