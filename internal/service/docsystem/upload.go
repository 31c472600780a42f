package docsystem

import (
	"context"
	"errors"
	"fmt"
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

// UploadFiles stores each file in req.ParentPath independently. Only
// request-level problems (bad parent, no permission) fail the call; per-file
// problems are reported in the matching UploadResult.
func (s *treeService) UploadFiles(ctx context.Context, p *models.Principal, req *docsysSvc.UploadFilesRequest) ([]docsystem.UploadResult, error) {
	if err := validateUploadFilesRequest(req); err != nil {
		return nil, err
	}
	parent, err := s.normalize(req.ParentPath)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Check(ctx, p, models.ActionUpload, parent); err != nil {
		return nil, err
	}
	if _, err := s.getFolder(ctx, parent); err != nil {
		return nil, err
	}

	results := make([]docsystem.UploadResult, 0, len(req.Files))
	var created, overwritten, failed int
	for _, f := range req.Files {
		res := s.uploadFile(ctx, p, parent, f, req.Remark, req.Overwrite)
		switch res.Status {
		case docsystem.UploadCreated:
			created++
		case docsystem.UploadOverwritten:
			overwritten++
		default:
			failed++
		}
		results = append(results, res)
	}

	s.logger.Info("files uploaded",
		"parent_path", parent,
		"created", created,
		"overwritten", overwritten,
		"failed", failed,
		"user_id", p.UserID,
	)
	return results, nil
}

func (s *treeService) uploadFile(ctx context.Context, p *models.Principal, parent string, f docsysSvc.UploadedFile, remark string, overwrite bool) docsystem.UploadResult {
	res := docsystem.UploadResult{Filename: f.Filename}
	fail := func(err error) docsystem.UploadResult {
		res.Status = docsystem.UploadFailed
		res.Error = err.Error()
		res.Code = errorCode(err)
		return res
	}

	if err := pathutil.ValidateName(f.Filename); err != nil {
		return fail(err)
	}
	target := pathutil.Join(parent, f.Filename)
	res.Path = target
	if err := checkPathLength(target); err != nil {
		return fail(err)
	}

	unlock, err := s.locker.Lock(ctx, target)
	if err != nil {
		return fail(err)
	}
	defer unlock()

	if err := s.authorizer.Check(ctx, p, models.ActionUpload, parent); err != nil {
		return fail(err)
	}
	if _, err := s.getFolder(ctx, parent); err != nil {
		return fail(err)
	}

	existing, err := s.store.Get(ctx, target)
	switch {
	case err == nil && (existing.IsFolder || !overwrite):
		return fail(nameTaken(existing))
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return fail(fmt.Errorf("check for existing node: %w", err))
	case err != nil:
		existing = nil
	}

	contentID := uuid.NewString()
	size, err := s.content.Write(ctx, contentID, f.Content)
	if err != nil {
		s.deleteContent(ctx, contentID)
		return fail(fmt.Errorf("store content of %s: %w", f.Filename, err))
	}
	now := time.Now()

	if existing != nil {
		node := existing.Clone()
		node.Size = size
		node.ModifiedAt = &now
		node.ContentID = contentID
		if remark != "" {
			node.Remark = remark
		}
		if err := s.store.Update(ctx, node); err != nil {
			s.deleteContent(ctx, contentID)
			return fail(err)
		}
		s.deleteContent(ctx, existing.ContentID)
		resolveOwner(ctx, s.userRepo, node)
		s.record(ctx, newEntry(p, models.ActionOverwrite, node, fmt.Sprintf("%d bytes", size)))

		res.Status = docsystem.UploadOverwritten
		res.Node = node
		return res
	}

	node := &docsystem.Node{
		ID:         uuid.NewString(),
		Path:       target,
		Name:       f.Filename,
		ParentPath: parent,
		Owner:      p.UserID,
		OwnerEmail: p.Email,
		CreatedAt:  now,
		ModifiedAt: &now,
		Size:       size,
		Remark:     remark,
		ContentID:  contentID,
	}
	if err := s.store.Insert(ctx, node); err != nil {
		s.deleteContent(ctx, contentID)
		return fail(err)
	}
	s.record(ctx, newEntry(p, models.ActionUpload, node, fmt.Sprintf("%d bytes", size)))

	res.Status = docsystem.UploadCreated
	res.Node = node
	return res
}

// UploadFolderStructure recreates the relative paths of req.Entries under
// req.ParentPath. Missing intermediate folders are created, existing files
// are skipped, and all new nodes are committed in one batch. A request that
// would create no file fails with *domain.NoFilesUploadedError and changes
// nothing.
func (s *treeService) UploadFolderStructure(ctx context.Context, p *models.Principal, req *docsysSvc.UploadFolderStructureRequest) (*docsystem.FolderStructureResult, error) {
	if err := validateUploadFolderStructureRequest(req); err != nil {
		return nil, err
	}
	parent, err := s.normalize(req.ParentPath)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, parent)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.authorizer.Check(ctx, p, models.ActionUpload, parent); err != nil {
		return nil, err
	}
	if _, err := s.getFolder(ctx, parent); err != nil {
		return nil, err
	}

	result := &docsystem.FolderStructureResult{ParentPath: parent}
	plan := &structurePlan{
		store:   s.store,
		batch:   &docsysRepo.Batch{},
		folders: map[string]bool{parent: true},
		files:   map[string]bool{},
	}
	var (
		written []string
		entries []models.ActivityLogEntry
	)
	abort := func(err error) (*docsystem.FolderStructureResult, error) {
		s.deleteContent(ctx, written...)
		return nil, err
	}

	now := time.Now()
	for _, e := range req.Entries {
		target, err := s.structureTarget(parent, e.RelativePath)
		if err != nil {
			s.logger.Debug("skipping invalid relative path", "relative_path", e.RelativePath, "error", err)
			result.Skipped = append(result.Skipped, e.RelativePath)
			continue
		}

		ok, err := plan.ensureFolders(ctx, parent, pathutil.Parent(target), func(folder string) {
			n := &docsystem.Node{
				ID:         uuid.NewString(),
				Path:       folder,
				Name:       pathutil.Base(folder),
				ParentPath: pathutil.Parent(folder),
				IsFolder:   true,
				Owner:      p.UserID,
				CreatedAt:  now,
			}
			plan.batch.Insert(n)
			entries = append(entries, newEntry(p, models.ActionCreateFolder, n, ""))
			result.CreatedFolders++
		})
		if err != nil {
			return abort(err)
		}
		if !ok {
			result.Skipped = append(result.Skipped, e.RelativePath)
			continue
		}

		free, err := plan.free(ctx, target)
		if err != nil {
			return abort(err)
		}
		if !free {
			result.Skipped = append(result.Skipped, e.RelativePath)
			continue
		}

		contentID := uuid.NewString()
		size, err := s.content.Write(ctx, contentID, e.Content)
		if err != nil {
			s.deleteContent(ctx, contentID)
			return abort(fmt.Errorf("store content of %s: %w", e.RelativePath, err))
		}
		written = append(written, contentID)

		n := &docsystem.Node{
			ID:         uuid.NewString(),
			Path:       target,
			Name:       pathutil.Base(target),
			ParentPath: pathutil.Parent(target),
			Owner:      p.UserID,
			CreatedAt:  now,
			ModifiedAt: &now,
			Size:       size,
			ContentID:  contentID,
		}
		plan.batch.Insert(n)
		plan.files[target] = true
		entries = append(entries, newEntry(p, models.ActionUpload, n, e.RelativePath))
		result.CreatedFiles++
	}

	if result.CreatedFiles == 0 {
		return nil, &domain.NoFilesUploadedError{ParentPath: parent, Skipped: result.Skipped}
	}
	if err := s.store.Apply(ctx, plan.batch); err != nil {
		return abort(fmt.Errorf("upload folder structure to %s: %w", parent, err))
	}
	s.record(ctx, entries...)

	s.logger.Info("folder structure uploaded",
		"parent_path", parent,
		"created_files", result.CreatedFiles,
		"created_folders", result.CreatedFolders,
		"skipped", len(result.Skipped),
		"user_id", p.UserID,
	)
	return result, nil
}

// structureTarget resolves a client-supplied relative path under parent.
func (s *treeService) structureTarget(parent, rel string) (string, error) {
	rel = strings.TrimLeft(strings.ReplaceAll(rel, "\\", "/"), "/")
	if rel == "" {
		return "", &domain.InvalidPathError{Path: rel, Reason: "empty relative path"}
	}
	target, err := s.normalizer.Normalize(pathutil.Join(parent, rel))
	if err != nil {
		return "", err
	}
	if !pathutil.IsAncestor(parent, target) {
		return "", &domain.InvalidPathError{Path: rel, Reason: "escapes the upload folder"}
	}
	for _, seg := range pathutil.Segments(target)[pathutil.Depth(parent):] {
		if err := pathutil.ValidateName(seg); err != nil {
			return "", err
		}
	}
	if err := checkPathLength(target); err != nil {
		return "", err
	}
	return target, nil
}

// structurePlan tracks what a folder-structure upload has staged so later
// entries see the folders and files of earlier ones.
type structurePlan struct {
	store   docsysRepo.TreeStore
	batch   *docsysRepo.Batch
	folders map[string]bool // path -> known to be a folder (staged or stored)
	files   map[string]bool // staged files
}

// ensureFolders makes every folder from below parent down to dir exist,
// calling create for each one that must be staged. It reports false when a
// file is in the way.
func (sp *structurePlan) ensureFolders(ctx context.Context, parent, dir string, create func(string)) (bool, error) {
	if dir == parent {
		return true, nil
	}
	var missing []string
	for cur := dir; cur != parent; cur = pathutil.Parent(cur) {
		if sp.folders[cur] {
			break
		}
		if sp.files[cur] {
			return false, nil
		}
		n, err := sp.store.Get(ctx, cur)
		if err == nil {
			if !n.IsFolder {
				return false, nil
			}
			sp.folders[cur] = true
			break
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return false, fmt.Errorf("look up %s: %w", cur, err)
		}
		missing = append(missing, cur)
	}
	for i := len(missing) - 1; i >= 0; i-- {
		sp.folders[missing[i]] = true
		create(missing[i])
	}
	return true, nil
}

// free reports whether nothing is stored or staged at path.
func (sp *structurePlan) free(ctx context.Context, path string) (bool, error) {
	if sp.folders[path] || sp.files[path] {
		return false, nil
	}
	_, err := sp.store.Get(ctx, path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	return false, fmt.Errorf("look up %s: %w", path, err)
}
