package auth

import (
	"context"
	"fmt"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
)

// TeamAuthorizer implements Authorizer using team folders.
//
// Admins may do anything. Other users may act inside the folder of every
// team they belong to. The team folder itself belongs to the team record: a
// member may create folders and upload into it, but not rename, move or
// delete it. Folders above a team folder are viewable so members can
// navigate down to it.
type TeamAuthorizer struct {
	teamRepo repositories.TeamRepository
}

// NewTeamAuthorizer creates a new team-based authorizer
func NewTeamAuthorizer(teamRepo repositories.TeamRepository) *TeamAuthorizer {
	return &TeamAuthorizer{teamRepo: teamRepo}
}

var _ services.Authorizer = (*TeamAuthorizer)(nil)

// Scope loads the team folders of the principal. Membership is read on every
// call so revocations apply to the next request.
func (a *TeamAuthorizer) Scope(ctx context.Context, p *models.Principal) (*models.AccessScope, error) {
	if p == nil {
		return nil, &domain.UnauthorizedError{Message: "no authenticated principal"}
	}
	if p.IsAdmin() {
		return &models.AccessScope{Unrestricted: true}, nil
	}

	teams, err := a.teamRepo.ListForUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("load teams for %s: %w", p.UserID, err)
	}
	scope := &models.AccessScope{Anchors: make([]string, 0, len(teams))}
	for _, t := range teams {
		scope.Anchors = append(scope.Anchors, t.FolderPath)
	}
	return scope, nil
}

// Check authorizes action on path.
func (a *TeamAuthorizer) Check(ctx context.Context, p *models.Principal, action, path string) error {
	if !models.IsKnownAction(action) {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown action %q", action)}
	}
	scope, err := a.Scope(ctx, p)
	if err != nil {
		return err
	}
	if reason := denyReason(scope, action, path); reason != "" {
		return &domain.PermissionDeniedError{Action: action, Path: path, Reason: reason}
	}
	return nil
}

// CheckMove authorizes moving src to dst. Placing a node outside every
// permitted subtree is denied even when the source is permitted.
func (a *TeamAuthorizer) CheckMove(ctx context.Context, p *models.Principal, action, src, dst string) error {
	if action != models.ActionMove && action != models.ActionRename {
		return &domain.ValidationError{Message: fmt.Sprintf("action %q is not a move", action)}
	}
	scope, err := a.Scope(ctx, p)
	if err != nil {
		return err
	}
	if reason := denyReason(scope, action, src); reason != "" {
		return &domain.PermissionDeniedError{Action: action, Path: src, Reason: reason}
	}
	if !scope.ContainsStrictly(dst) {
		return &domain.PermissionDeniedError{
			Action: action,
			Path:   dst,
			Reason: "destination is outside of your team folders",
		}
	}
	return nil
}

// denyReason returns "" when scope allows action on path.
func denyReason(scope *models.AccessScope, action, path string) string {
	if scope.Unrestricted {
		return ""
	}
	if len(scope.Anchors) == 0 {
		return "you are not a member of any team"
	}

	switch action {
	case models.ActionView:
		if scope.CanView(path) {
			return ""
		}
	case models.ActionCreateFolder, models.ActionUpload:
		if scope.Contains(path) {
			return ""
		}
	default:
		if scope.ContainsStrictly(path) {
			return ""
		}
		if scope.Contains(path) {
			return "team folders can only be changed by an admin"
		}
	}
	return "path is outside of your team folders"
}
