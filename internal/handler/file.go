package handler

import (
	"cmp"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/httputil"
)

// FileHandler handles file HTTP requests
type FileHandler struct {
	treeService   docsysSvc.TreeService
	searchService docsysSvc.SearchService
	maxMemory     int64
	maxBytes      int64
	logger        *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(
	treeService docsysSvc.TreeService,
	searchService docsysSvc.SearchService,
	maxMemory, maxBytes int64,
	logger *slog.Logger,
) *FileHandler {
	return &FileHandler{
		treeService:   treeService,
		searchService: searchService,
		maxMemory:     maxMemory,
		maxBytes:      maxBytes,
		logger:        logger,
	}
}

// Upload stores every "files" part under parent_path. Each file succeeds or
// fails on its own, so the response is 200 with per-file results.
// POST /api/files/upload
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	form, err := parseMultipart(w, r, h.maxMemory, h.maxBytes)
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer form.RemoveAll()

	overwrite, err := httputil.FormBool(r, "overwrite")
	if err != nil {
		handleError(w, r, err)
		return
	}

	files, closeAll, err := openParts(form.File["files"])
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer closeAll()

	results, err := h.treeService.UploadFiles(r.Context(), p, &docsysSvc.UploadFilesRequest{
		ParentPath: r.FormValue("parent_path"),
		Files:      files,
		Remark:     r.FormValue("remark"),
		Overwrite:  overwrite,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, results)
}

// Download streams the file bytes
// GET /api/files/download?path=
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	node, body, err := h.treeService.OpenContent(r.Context(), p, r.URL.Query().Get("path"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(node.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(node.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": node.Name}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		// Headers are already sent; all we can do is log.
		h.logger.Warn("download interrupted", "path", node.Path, "error", err)
	}
}

// Metadata returns the node of a file
// GET /api/files/metadata?path=
func (h *FileHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	node, err := h.treeService.GetNode(r.Context(), p, r.URL.Query().Get("path"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// RenameFile renames a file; the extension must stay the same
// PUT /api/files/rename
func (h *FileHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req docsysSvc.RenameRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := requireKind(r, h.treeService, p, req.Path, false); err != nil {
		handleError(w, r, err)
		return
	}

	node, err := h.treeService.Rename(r.Context(), p, &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// MoveFile moves a file to another path
// PUT /api/files/move
func (h *FileHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req docsysSvc.MoveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := requireKind(r, h.treeService, p, req.SourcePath, false); err != nil {
		handleError(w, r, err)
		return
	}

	node, err := h.treeService.Move(r.Context(), p, &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteFile deletes a file
// DELETE /api/files/delete
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	req, err := parseDeleteRequest(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := requireKind(r, h.treeService, p, req.Path, false); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := h.treeService.Delete(r.Context(), p, req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// Search matches node names case-insensitively
// GET /api/files/search?query=&root_path=&limit=
func (h *FileHandler) Search(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}

	q := r.URL.Query()
	results, err := h.searchService.Search(r.Context(), p, &docsystem.SearchOptions{
		Query:    q.Get("query"),
		RootPath: cmp.Or(q.Get("root_path"), q.Get("parent_path")),
		Limit:    limit,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, results)
}

// Filter returns the nodes matching every given predicate
// GET /api/files/filter?root_path=&is_folder=&min_size=&max_size=&owner=&created_after=&created_before=
// parent_path and owner_email are accepted for root_path and owner.
func (h *FileHandler) Filter(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	criteria, err := parseFilterCriteria(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	results, err := h.searchService.Filter(r.Context(), p, criteria)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, results)
}

func parseFilterCriteria(r *http.Request) (*docsystem.FilterCriteria, error) {
	q := r.URL.Query()
	c := &docsystem.FilterCriteria{RootPath: cmp.Or(q.Get("root_path"), q.Get("parent_path"))}

	var err error
	if c.IsFolder, err = httputil.QueryBoolPtr(r, "is_folder"); err != nil {
		return nil, err
	}
	if c.MinSize, err = httputil.QueryInt64Ptr(r, "min_size"); err != nil {
		return nil, err
	}
	if c.MaxSize, err = httputil.QueryInt64Ptr(r, "max_size"); err != nil {
		return nil, err
	}
	if c.CreatedAfter, err = httputil.QueryTimePtr(r, "created_after"); err != nil {
		return nil, err
	}
	if c.CreatedBefore, err = httputil.QueryTimeUntilPtr(r, "created_before"); err != nil {
		return nil, err
	}
	if c.Limit, err = httputil.QueryInt(r, "limit", 0); err != nil {
		return nil, err
	}
	if owner := cmp.Or(q.Get("owner"), q.Get("owner_email")); owner != "" {
		c.OwnerEmail = &owner
	}
	if c.MinSize != nil && *c.MinSize < 0 {
		return nil, &domain.ValidationError{Message: "min_size must not be negative"}
	}
	return c, nil
}
