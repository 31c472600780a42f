package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
)

type treeService struct {
	store      docsysRepo.TreeStore
	content    docsysRepo.ContentStore
	activity   repositories.ActivityRepository
	userRepo   repositories.UserRepository
	teamRepo   repositories.TeamRepository
	authorizer services.Authorizer
	locker     *SubtreeLocker
	normalizer *pathutil.Normalizer
	logger     *slog.Logger
}

// NewTreeService creates the tree service. The locker must be shared with
// every other service that reads the same store.
func NewTreeService(
	store docsysRepo.TreeStore,
	content docsysRepo.ContentStore,
	activity repositories.ActivityRepository,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	authorizer services.Authorizer,
	locker *SubtreeLocker,
	normalizer *pathutil.Normalizer,
	logger *slog.Logger,
) docsysSvc.TreeService {
	return &treeService{
		store:      store,
		content:    content,
		activity:   activity,
		userRepo:   userRepo,
		teamRepo:   teamRepo,
		authorizer: authorizer,
		locker:     locker,
		normalizer: normalizer,
		logger:     logger,
	}
}

// EnsureRoot creates the configured root folder and its missing ancestors.
// It is called once at startup, before requests are served.
func EnsureRoot(ctx context.Context, store docsysRepo.TreeStore, root string) error {
	now := time.Now()
	for _, p := range ancestry(root) {
		n, err := store.Get(ctx, p)
		if err == nil {
			if !n.IsFolder {
				return &domain.NotAFolderError{Path: p}
			}
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("look up %s: %w", p, err)
		}
		folder := &docsystem.Node{
			ID:         uuid.NewString(),
			Path:       p,
			Name:       pathutil.Base(p),
			ParentPath: pathutil.Parent(p),
			IsFolder:   true,
			Owner:      docsystem.RootOwner,
			CreatedAt:  now,
		}
		if err := store.Insert(ctx, folder); err != nil && !errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("create %s: %w", p, err)
		}
	}
	return nil
}

// ancestry returns the non-root paths from the top down to p inclusive.
func ancestry(p string) []string {
	var out []string
	cur := pathutil.Root
	for _, seg := range pathutil.Segments(p) {
		cur = pathutil.Join(cur, seg)
		out = append(out, cur)
	}
	return out
}

func (s *treeService) normalize(raw string) (string, error) {
	if raw == "" {
		return s.normalizer.Root(), nil
	}
	return s.normalizer.Normalize(raw)
}

// getFolder returns the folder at path or a NotFound / NotAFolder error.
func (s *treeService) getFolder(ctx context.Context, path string) (*docsystem.Node, error) {
	n, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !n.IsFolder {
		return nil, &domain.NotAFolderError{Path: path}
	}
	return n, nil
}

// record appends activity entries. The tree change is already committed, so
// a failing log write is reported but does not fail the operation.
func (s *treeService) record(ctx context.Context, entries ...models.ActivityLogEntry) {
	if len(entries) == 0 {
		return
	}
	if err := s.activity.Append(ctx, entries...); err != nil {
		s.logger.Error("failed to append activity log", "count", len(entries), "error", err)
	}
}

func newEntry(p *models.Principal, action string, n *docsystem.Node, details string) models.ActivityLogEntry {
	return models.ActivityLogEntry{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		UserID:     p.UserID,
		UserEmail:  p.Email,
		Action:     action,
		TargetPath: n.Path,
		NodeID:     n.ID,
		Details:    details,
	}
}

// deleteContent removes blobs that are no longer referenced. Failures leave
// orphaned bytes behind and are only logged.
func (s *treeService) deleteContent(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := s.content.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to delete content", "content_id", id, "error", err)
		}
	}
}

// resolveOwners fills OwnerEmail on every node. Unknown owners keep an
// empty email.
func resolveOwners(ctx context.Context, userRepo repositories.UserRepository, nodes []docsystem.Node) {
	emails := map[string]string{docsystem.RootOwner: docsystem.RootOwner}
	for i := range nodes {
		owner := nodes[i].Owner
		email, ok := emails[owner]
		if !ok {
			if u, err := userRepo.GetByID(ctx, owner); err == nil {
				email = u.Email
			}
			emails[owner] = email
		}
		nodes[i].OwnerEmail = email
	}
}

func resolveOwner(ctx context.Context, userRepo repositories.UserRepository, n *docsystem.Node) {
	nodes := []docsystem.Node{*n}
	resolveOwners(ctx, userRepo, nodes)
	n.OwnerEmail = nodes[0].OwnerEmail
}

// collectSubtree materialises WalkSubtree in pre-order.
func collectSubtree(ctx context.Context, store docsysRepo.TreeStore, path string) ([]*docsystem.Node, error) {
	var nodes []*docsystem.Node
	for n, err := range store.WalkSubtree(ctx, path) {
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// errorCode returns the machine-readable code of err, if any.
func errorCode(err error) string {
	var coder domain.Coder
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return "internal_error"
}
