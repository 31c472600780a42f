package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
)

type searchService struct {
	store      docsysRepo.TreeStore
	userRepo   repositories.UserRepository
	authorizer services.Authorizer
	locker     *SubtreeLocker
	normalizer *pathutil.Normalizer
	logger     *slog.Logger
}

// NewSearchService creates a search service scanning the tree store.
func NewSearchService(
	store docsysRepo.TreeStore,
	userRepo repositories.UserRepository,
	authorizer services.Authorizer,
	locker *SubtreeLocker,
	normalizer *pathutil.Normalizer,
	logger *slog.Logger,
) docsysSvc.SearchService {
	return &searchService{
		store:      store,
		userRepo:   userRepo,
		authorizer: authorizer,
		locker:     locker,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Search returns nodes below opts.RootPath whose name contains opts.Query,
// ignoring case. The root of the scan is never a result.
func (s *searchService) Search(ctx context.Context, p *models.Principal, opts *docsystem.SearchOptions) ([]docsystem.Node, error) {
	if opts.RootPath == "" {
		opts.RootPath = s.normalizer.Root()
	}
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	query := strings.ToLower(strings.TrimSpace(opts.Query))
	results, err := s.scan(ctx, p, opts.RootPath, opts.Limit, func(n *docsystem.Node) bool {
		return strings.Contains(strings.ToLower(n.Name), query)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search completed", "root_path", opts.RootPath, "query", opts.Query, "count", len(results))
	return results, nil
}

// Filter returns nodes below criteria.RootPath matching every provided
// predicate. An owner email that belongs to no user matches nothing.
func (s *searchService) Filter(ctx context.Context, p *models.Principal, criteria *docsystem.FilterCriteria) ([]docsystem.Node, error) {
	if criteria.RootPath == "" {
		criteria.RootPath = s.normalizer.Root()
	}
	criteria.ApplyDefaults()
	if err := criteria.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if criteria.OwnerEmail != nil {
		owner, err := s.userRepo.GetByEmail(ctx, *criteria.OwnerEmail)
		if errors.Is(err, domain.ErrNotFound) {
			return []docsystem.Node{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("resolve owner %s: %w", *criteria.OwnerEmail, err)
		}
		criteria.OwnerID = owner.ID
	}

	results, err := s.scan(ctx, p, criteria.RootPath, criteria.Limit, criteria.Matches)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("filter completed", "root_path", criteria.RootPath, "count", len(results))
	return results, nil
}

// scan walks the subtree at rawRoot under a shared lock and collects up to
// limit visible descendants accepted by match.
func (s *searchService) scan(ctx context.Context, p *models.Principal, rawRoot string, limit int, match func(*docsystem.Node) bool) ([]docsystem.Node, error) {
	root, err := s.normalizer.Normalize(rawRoot)
	if err != nil {
		return nil, err
	}
	unlock, err := s.locker.RLock(ctx, root)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.authorizer.Check(ctx, p, models.ActionView, root); err != nil {
		return nil, err
	}
	scope, err := s.authorizer.Scope(ctx, p)
	if err != nil {
		return nil, err
	}
	filter := !scope.Contains(root)

	results := []docsystem.Node{}
	for n, err := range s.store.WalkSubtree(ctx, root) {
		if err != nil {
			return nil, err
		}
		if n.Path == root || (filter && !scope.CanView(n.Path)) || !match(n) {
			continue
		}
		results = append(results, *n)
		if len(results) >= limit {
			break
		}
	}
	resolveOwners(ctx, s.userRepo, results)
	return results, nil
}
