package docsystem

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
)

// CreateFolder creates an empty folder named req.Name inside req.ParentPath.
func (s *treeService) CreateFolder(ctx context.Context, p *models.Principal, req *docsysSvc.CreateFolderRequest) (*docsystem.Node, error) {
	if err := validateCreateFolderRequest(req); err != nil {
		return nil, err
	}
	parent, err := s.normalize(req.ParentPath)
	if err != nil {
		return nil, err
	}
	target := pathutil.Join(parent, req.Name)
	if err := checkPathLength(target); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, target)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.authorizer.Check(ctx, p, models.ActionCreateFolder, parent); err != nil {
		return nil, err
	}
	if _, err := s.getFolder(ctx, parent); err != nil {
		return nil, err
	}
	if existing, err := s.store.Get(ctx, target); err == nil {
		return nil, nameTaken(existing)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check for existing node: %w", err)
	}

	folder := &docsystem.Node{
		ID:         uuid.NewString(),
		Path:       target,
		Name:       req.Name,
		ParentPath: parent,
		IsFolder:   true,
		Owner:      p.UserID,
		CreatedAt:  time.Now(),
		Remark:     req.Remark,
	}
	if err := s.store.Insert(ctx, folder); err != nil {
		return nil, err
	}
	folder.OwnerEmail = p.Email

	s.record(ctx, newEntry(p, models.ActionCreateFolder, folder, ""))
	s.logger.Info("folder created",
		"id", folder.ID,
		"path", folder.Path,
		"user_id", p.UserID,
	)
	return folder, nil
}

// nameTaken is the conflict reported when a target path is already in use.
func nameTaken(existing *docsystem.Node) error {
	kind := "file"
	if existing.IsFolder {
		kind = "folder"
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a %s named %q already exists in this location", kind, existing.Name),
		ResourceType: kind,
		ResourceID:   existing.Path,
	}
}

// Rename moves a node to a new name in the same folder. A file keeps its
// extension.
func (s *treeService) Rename(ctx context.Context, p *models.Principal, req *docsysSvc.RenameRequest) (*docsystem.Node, error) {
	if err := validateRenameRequest(req); err != nil {
		return nil, err
	}
	src, err := s.normalize(req.Path)
	if err != nil {
		return nil, err
	}
	if src == s.normalizer.Root() {
		return nil, &domain.InvalidMoveError{Source: src, Destination: req.NewName, Reason: "the root folder cannot be renamed"}
	}
	dst := pathutil.Join(pathutil.Parent(src), req.NewName)
	return s.move(ctx, p, models.ActionRename, src, dst)
}

// Move relocates req.SourcePath and everything under it to
// req.DestinationPath in a single atomic batch.
func (s *treeService) Move(ctx context.Context, p *models.Principal, req *docsysSvc.MoveRequest) (*docsystem.Node, error) {
	if err := validateMoveRequest(req); err != nil {
		return nil, err
	}
	src, err := s.normalize(req.SourcePath)
	if err != nil {
		return nil, err
	}
	dst, err := s.normalize(req.DestinationPath)
	if err != nil {
		return nil, err
	}
	if dst != pathutil.Root {
		if err := pathutil.ValidateName(pathutil.Base(dst)); err != nil {
			return nil, err
		}
	}
	return s.move(ctx, p, models.ActionMove, src, dst)
}

func (s *treeService) move(ctx context.Context, p *models.Principal, action, src, dst string) (*docsystem.Node, error) {
	switch {
	case src == s.normalizer.Root():
		return nil, &domain.InvalidMoveError{Source: src, Destination: dst, Reason: "the root folder cannot be moved"}
	case src == dst:
		return nil, &domain.InvalidMoveError{Source: src, Destination: dst, Reason: "source and destination are the same"}
	case pathutil.IsAncestor(src, dst):
		return nil, &domain.InvalidMoveError{Source: src, Destination: dst, Reason: "a folder cannot be moved into itself"}
	case dst == s.normalizer.Root():
		return nil, &domain.ConflictError{Message: "the root folder already exists", ResourceType: "folder", ResourceID: dst}
	}

	unlock, err := s.locker.Lock(ctx, pathutil.CommonAncestor(src, dst))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.authorizer.CheckMove(ctx, p, action, src, dst); err != nil {
		return nil, err
	}

	node, err := s.store.Get(ctx, src)
	if err != nil {
		return nil, err
	}
	if action == models.ActionRename && !node.IsFolder && pathutil.Ext(node.Name) != pathutil.Ext(pathutil.Base(dst)) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("renaming %s cannot change the file extension %q", src, pathutil.Ext(node.Name)),
		}
	}
	if _, err := s.getFolder(ctx, pathutil.Parent(dst)); err != nil {
		return nil, err
	}
	if existing, err := s.store.Get(ctx, dst); err == nil {
		return nil, nameTaken(existing)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check for existing node: %w", err)
	}

	subtree, err := collectSubtree(ctx, s.store, src)
	if err != nil {
		return nil, err
	}
	batch, err := rebaseBatch(subtree, src, dst)
	if err != nil {
		return nil, err
	}
	if err := s.store.Apply(ctx, batch); err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, src, err)
	}
	if err := s.rebaseTeams(ctx, src, dst); err != nil {
		if undoErr := s.store.Apply(ctx, undoBatch(subtree, src, dst)); undoErr != nil {
			s.logger.Error("failed to restore tree after team update failed", "from", src, "to", dst, "error", undoErr)
		}
		return nil, fmt.Errorf("%s %s: %w", action, src, err)
	}

	moved := subtree[0].Clone()
	moved.Path = dst
	moved.ParentPath = pathutil.Parent(dst)
	moved.Name = pathutil.Base(dst)
	resolveOwner(ctx, s.userRepo, moved)

	s.record(ctx, newEntry(p, action, moved, fmt.Sprintf("%s -> %s", src, dst)))
	s.logger.Info("node moved",
		"action", action,
		"from", src,
		"to", dst,
		"count", len(subtree),
		"user_id", p.UserID,
	)
	return moved, nil
}

// rebaseBatch stages the relocation of a pre-order subtree from src to dst:
// removes children-first, then inserts parents-first, keeping every field
// except the location.
func rebaseBatch(subtree []*docsystem.Node, src, dst string) (*docsysRepo.Batch, error) {
	batch := &docsysRepo.Batch{}
	for i := len(subtree) - 1; i >= 0; i-- {
		batch.Remove(subtree[i].Path)
	}
	for _, n := range subtree {
		c := n.Clone()
		c.Path = pathutil.Rebase(n.Path, src, dst)
		if err := checkPathLength(c.Path); err != nil {
			return nil, err
		}
		c.ParentPath = pathutil.Parent(c.Path)
		c.Name = pathutil.Base(c.Path)
		batch.Insert(c)
	}
	return batch, nil
}

// undoBatch reverses a batch built by rebaseBatch.
func undoBatch(subtree []*docsystem.Node, src, dst string) *docsysRepo.Batch {
	batch := &docsysRepo.Batch{}
	for _, n := range slices.Backward(subtree) {
		batch.Remove(pathutil.Rebase(n.Path, src, dst))
	}
	for _, n := range subtree {
		batch.Insert(n.Clone())
	}
	return batch
}

// teamsWithin returns the teams whose folder is path or lies under it.
func (s *treeService) teamsWithin(ctx context.Context, path string) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return slices.DeleteFunc(teams, func(t models.Team) bool {
		return !pathutil.IsWithin(path, t.FolderPath)
	}), nil
}

// rebaseTeams keeps team folders pointing at their folder after it moved.
// Teams already repointed are restored when a later update fails.
func (s *treeService) rebaseTeams(ctx context.Context, src, dst string) error {
	teams, err := s.teamsWithin(ctx, src)
	if err != nil {
		return err
	}
	for i, t := range teams {
		newPath := pathutil.Rebase(t.FolderPath, src, dst)
		if err := s.teamRepo.UpdateFolderPath(ctx, t.ID, newPath); err != nil {
			for _, done := range teams[:i] {
				if rbErr := s.teamRepo.UpdateFolderPath(ctx, done.ID, done.FolderPath); rbErr != nil {
					s.logger.Error("failed to restore team folder", "team_id", done.ID, "path", done.FolderPath, "error", rbErr)
				}
			}
			return fmt.Errorf("update folder of team %s: %w", t.Name, err)
		}
		s.logger.Info("team folder moved", "team_id", t.ID, "from", t.FolderPath, "to", newPath)
	}
	return nil
}

// Delete removes a file, an empty folder, or (with Force) a whole subtree.
// Without Force a non-empty folder, or one holding a team folder, is left
// untouched and the result carries a warning with what would be removed.
// Teams whose folder is removed are deleted with it.
func (s *treeService) Delete(ctx context.Context, p *models.Principal, req *docsysSvc.DeleteRequest) (*docsystem.DeleteResult, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("%w: path is required", domain.ErrValidation)
	}
	path, err := s.normalize(req.Path)
	if err != nil {
		return nil, err
	}
	if path == s.normalizer.Root() {
		return nil, &domain.ValidationError{Message: "the root folder cannot be deleted"}
	}

	unlock, err := s.locker.Lock(ctx, path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.authorizer.Check(ctx, p, models.ActionDelete, path); err != nil {
		return nil, err
	}

	subtree, err := collectSubtree(ctx, s.store, path)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamsWithin(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(teams) > 0 && !p.IsAdmin() {
		return nil, &domain.PermissionDeniedError{
			Action: models.ActionDelete,
			Path:   path,
			Reason: fmt.Sprintf("%s holds the folder of team %s", path, teams[0].Name),
		}
	}
	result := &docsystem.DeleteResult{Path: path}
	for _, n := range subtree[1:] {
		if n.IsFolder {
			result.FolderCount++
		} else {
			result.FileCount++
			result.TotalSize += n.Size
		}
	}
	if !subtree[0].IsFolder {
		result.FileCount = 1
		result.TotalSize = subtree[0].Size
	}

	if (len(subtree) > 1 || len(teams) > 0) && !req.Force {
		var warnings []string
		if len(subtree) > 1 {
			warnings = append(warnings, fmt.Sprintf("folder %s contains %d folder(s) and %d file(s); deleting it removes everything inside",
				path, result.FolderCount, result.FileCount))
		}
		if len(teams) > 0 {
			names := make([]string, len(teams))
			for i, t := range teams {
				names[i] = t.Name
			}
			warnings = append(warnings, fmt.Sprintf("folder %s holds the folder of team(s) %s; deleting it also deletes the team(s)",
				path, strings.Join(names, ", ")))
		}
		result.Warning = strings.Join(warnings, ". ")
		result.CanProceed = true
		return result, nil
	}

	batch := &docsysRepo.Batch{}
	for _, n := range slices.Backward(subtree) {
		batch.Remove(n.Path)
	}
	if err := s.store.Apply(ctx, batch); err != nil {
		return nil, fmt.Errorf("delete %s: %w", path, err)
	}

	entries := make([]models.ActivityLogEntry, 0, len(subtree))
	contentIDs := make([]string, 0, result.FileCount)
	for _, n := range subtree {
		entries = append(entries, newEntry(p, models.ActionDelete, n, ""))
		if !n.IsFolder {
			contentIDs = append(contentIDs, n.ContentID)
		}
	}
	s.deleteContent(ctx, contentIDs...)
	s.record(ctx, entries...)
	for _, t := range teams {
		if err := s.teamRepo.Delete(ctx, t.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to delete team of removed folder", "team_id", t.ID, "path", t.FolderPath, "error", err)
			continue
		}
		s.logger.Info("team removed with its folder", "team_id", t.ID, "path", t.FolderPath)
	}

	result.Deleted = true
	result.DeletedNodes = len(subtree)
	s.logger.Info("node deleted",
		"path", path,
		"count", len(subtree),
		"force", req.Force,
		"user_id", p.UserID,
	)
	return result, nil
}
