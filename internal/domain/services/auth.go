package services

import (
	"context"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
)

// Authorizer decides whether a principal may perform an action on a path.
//
// Services call the authorizer inside their lock scope before touching the
// tree. A nil error is Allow; a *domain.PermissionDeniedError is Deny.
type Authorizer interface {
	// Check authorizes action on a canonical path. For create_folder and
	// upload the path is the parent folder receiving the new node.
	Check(ctx context.Context, p *models.Principal, action, path string) error

	// CheckMove authorizes a move or rename of src to dst. Both ends must be
	// allowed.
	CheckMove(ctx context.Context, p *models.Principal, action, src, dst string) error

	// Scope returns the subtrees the principal may see, for filtering
	// listings and search results.
	Scope(ctx context.Context, p *models.Principal) (*models.AccessScope, error)
}
