package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
)

const (
	DefaultActivityLimit = 100
	MaxActivityLimit     = 1000
)

// ActivityService implements services.ActivityService
type ActivityService struct {
	activity repositories.ActivityRepository
	store    docsysRepo.TreeStore
	logger   *slog.Logger
}

func NewActivityService(activity repositories.ActivityRepository, store docsysRepo.TreeStore, logger *slog.Logger) services.ActivityService {
	return &ActivityService{activity: activity, store: store, logger: logger}
}

// List resolves each entry's node by ID. A node that still exists is
// Present at its current path, even after later moves or renames.
func (s *ActivityService) List(ctx context.Context, p *models.Principal, limit, offset int) ([]models.ActivityLogEntry, error) {
	if err := requireAdmin(p, "view the activity log"); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultActivityLimit
	}
	if limit < 0 || limit > MaxActivityLimit || offset < 0 {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("limit must be between 1 and %d and offset must not be negative", MaxActivityLimit),
		}
	}

	entries, err := s.activity.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	locations := map[string]string{}
	for i := range entries {
		e := &entries[i]
		e.Status = models.StatusDeleted
		e.CurrentLocation = ""
		if e.NodeID == "" {
			continue
		}

		loc, seen := locations[e.NodeID]
		if !seen {
			n, err := s.store.FindByID(ctx, e.NodeID)
			switch {
			case err == nil:
				loc = n.Path
			case errors.Is(err, domain.ErrNotFound):
			default:
				return nil, fmt.Errorf("resolve node %s: %w", e.NodeID, err)
			}
			locations[e.NodeID] = loc
		}
		if loc != "" {
			e.Status = models.StatusPresent
			e.CurrentLocation = loc
		}
	}
	return entries, nil
}
