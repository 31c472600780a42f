package docsystem

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
)

// readScope normalizes path, takes a shared lock on it and authorizes a view.
// The returned scope filters what the principal may see below path.
func (s *treeService) readScope(ctx context.Context, p *models.Principal, raw string) (string, *models.AccessScope, func(), error) {
	path, err := s.normalize(raw)
	if err != nil {
		return "", nil, nil, err
	}
	unlock, err := s.locker.RLock(ctx, path)
	if err != nil {
		return "", nil, nil, err
	}
	if err := s.authorizer.Check(ctx, p, models.ActionView, path); err != nil {
		unlock()
		return "", nil, nil, err
	}
	scope, err := s.authorizer.Scope(ctx, p)
	if err != nil {
		unlock()
		return "", nil, nil, err
	}
	return path, scope, unlock, nil
}

// GetNode returns the metadata of the node at path.
func (s *treeService) GetNode(ctx context.Context, p *models.Principal, path string) (*docsystem.Node, error) {
	path, _, unlock, err := s.readScope(ctx, p, path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	n, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	resolveOwner(ctx, s.userRepo, n)
	return n, nil
}

// ListChildren returns the visible children of a folder, folders first and
// then by name, sliced to the requested page.
func (s *treeService) ListChildren(ctx context.Context, p *models.Principal, req *docsysSvc.ListChildrenRequest) (*docsysSvc.NodePage, error) {
	if err := validateListChildrenRequest(req); err != nil {
		return nil, err
	}
	path, scope, unlock, err := s.readScope(ctx, p, req.ParentPath)
	if err != nil {
		return nil, err
	}
	defer unlock()

	children, err := s.store.ListChildren(ctx, path)
	if err != nil {
		return nil, err
	}
	if !scope.Contains(path) {
		children = slices.DeleteFunc(children, func(n docsystem.Node) bool { return !scope.CanView(n.Path) })
	}
	slices.SortStableFunc(children, func(a, b docsystem.Node) int {
		if a.IsFolder != b.IsFolder {
			if a.IsFolder {
				return -1
			}
			return 1
		}
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.Name, b.Name),
		)
	})

	page := &docsysSvc.NodePage{Total: len(children)}
	start := min(req.Offset, len(children))
	end := len(children)
	if req.Limit > 0 {
		end = min(start+req.Limit, end)
	}
	page.Nodes = children[start:end]
	resolveOwners(ctx, s.userRepo, page.Nodes)
	return page, nil
}

// OpenContent returns the file at path and a reader for its bytes.
func (s *treeService) OpenContent(ctx context.Context, p *models.Principal, path string) (*docsystem.Node, io.ReadCloser, error) {
	path, _, unlock, err := s.readScope(ctx, p, path)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	n, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if n.IsFolder {
		return nil, nil, &domain.ValidationError{Message: fmt.Sprintf("%s is a folder and cannot be downloaded", path)}
	}
	r, err := s.content.Open(ctx, n.ContentID)
	if err != nil {
		return nil, nil, fmt.Errorf("open content of %s: %w", path, err)
	}
	return n, r, nil
}

// Statistics reduces the subtree of every immediate child folder of rootPath.
// Nodes the principal cannot view are left out of the counts.
func (s *treeService) Statistics(ctx context.Context, p *models.Principal, rootPath string) (*docsystem.Statistics, error) {
	root, scope, unlock, err := s.readScope(ctx, p, rootPath)
	if err != nil {
		return nil, err
	}
	defer unlock()

	children, err := s.store.ListChildren(ctx, root)
	if err != nil {
		return nil, err
	}

	stats := &docsystem.Statistics{RootPath: root, Statistics: []docsystem.FolderStatistics{}}
	var folders []docsystem.Node
	for _, child := range children {
		if child.IsFolder && scope.CanView(child.Path) {
			folders = append(folders, child)
		}
	}
	resolveOwners(ctx, s.userRepo, folders)

	for _, folder := range folders {
		fs := docsystem.FolderStatistics{
			FolderName: folder.Name,
			Path:       folder.Path,
			Owner:      cmp.Or(folder.OwnerEmail, folder.Owner),
		}
		filter := !scope.Contains(folder.Path)
		for n, err := range s.store.WalkSubtree(ctx, folder.Path) {
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", folder.Path, err)
			}
			if n.Path == folder.Path || (filter && !scope.CanView(n.Path)) {
				continue
			}
			if n.IsFolder {
				fs.SubfolderCount++
			} else {
				fs.FileCount++
				fs.TotalSize += n.Size
			}
		}
		fs.SizeFormatted = humanize.Bytes(uint64(fs.TotalSize))
		stats.Statistics = append(stats.Statistics, fs)
	}
	stats.TotalFolders = len(stats.Statistics)
	return stats, nil
}

// Authorize runs the same checks a mutation would, without locking or
// touching the tree.
func (s *treeService) Authorize(ctx context.Context, p *models.Principal, req *docsysSvc.AuthorizeRequest) error {
	if !models.IsKnownAction(req.Action) {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown action %q", req.Action)}
	}
	path, err := s.normalize(req.Path)
	if err != nil {
		return err
	}
	if req.DestinationPath == "" {
		return s.authorizer.Check(ctx, p, req.Action, path)
	}
	dst, err := s.normalize(req.DestinationPath)
	if err != nil {
		return err
	}
	return s.authorizer.CheckMove(ctx, p, req.Action, path, dst)
}
