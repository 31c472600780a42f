package handler

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/httputil"
	serviceDocsys "github.com/YugenJarwal13/InternalDMS/internal/service/docsystem"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	treeService docsysSvc.TreeService
	maxMemory   int64
	maxBytes    int64
	logger      *slog.Logger
}

// NewFolderHandler creates a new folder handler. maxMemory and maxBytes
// bound multipart parsing of folder-structure uploads.
func NewFolderHandler(treeService docsysSvc.TreeService, maxMemory, maxBytes int64, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		treeService: treeService,
		maxMemory:   maxMemory,
		maxBytes:    maxBytes,
		logger:      logger,
	}
}

// ListFolder returns the visible children of a folder
// GET /api/folders/list?parent_path=&limit=&offset=
func (h *FolderHandler) ListFolder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	offset, err := httputil.QueryInt(r, "offset", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}

	page, err := h.treeService.ListChildren(r.Context(), p, &docsysSvc.ListChildrenRequest{
		ParentPath: r.URL.Query().Get("parent_path"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	httputil.RespondJSON(w, http.StatusOK, page.Nodes)
}

// CreateFolder creates a new folder
// POST /api/folders/create
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req docsysSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	folder, err := h.treeService.CreateFolder(r.Context(), p, &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// RenameFolder renames a folder in place
// PUT /api/folders/rename
func (h *FolderHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req docsysSvc.RenameRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := requireKind(r, h.treeService, p, req.Path, true); err != nil {
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

// MoveFolder moves a folder with its subtree
// PUT /api/folders/move
func (h *FolderHandler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req docsysSvc.MoveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := requireKind(r, h.treeService, p, req.SourcePath, true); err != nil {
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

// DeleteFolder deletes a folder. A non-empty folder is only removed with
// force; otherwise the response is a warning with the subtree counts.
// DELETE /api/folders/delete
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	req, err := parseDeleteRequest(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := requireKind(r, h.treeService, p, req.Path, true); err != nil {
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

// Statistics summarises the child folders of root_path
// GET /api/folders/statistics?root_path=
func (h *FolderHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	stats, err := h.treeService.Statistics(r.Context(), p, r.URL.Query().Get("root_path"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, stats)
}

// UploadFolderStructure recreates a local folder tree under parent_path.
// Each "files" part is paired with the "relpaths" value at the same index;
// without relpaths the part's filename is used. A single "archive" part
// holding a zip is expanded instead.
// POST /api/folders/upload-folder-structure
func (h *FolderHandler) UploadFolderStructure(w http.ResponseWriter, r *http.Request) {
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

	entries, closeAll, err := structureEntries(form, h.maxBytes)
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer closeAll()

	result, err := h.treeService.UploadFolderStructure(r.Context(), p, &docsysSvc.UploadFolderStructureRequest{
		ParentPath: r.FormValue("parent_path"),
		Entries:    entries,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, result)
}

// structureEntries reads either one zip "archive" part or the "files" parts,
// paired by index with the optional "relpaths" values. An archive may expand
// to at most maxBytes.
func structureEntries(form *multipart.Form, maxBytes int64) ([]docsysSvc.StructureEntry, func(), error) {
	if archives := form.File["archive"]; len(archives) > 0 {
		if len(archives) > 1 || len(form.File["files"]) > 0 {
			return nil, nil, &domain.ValidationError{Message: "send either one archive or files, not both"}
		}
		f, err := archives[0].Open()
		if err != nil {
			return nil, nil, fmt.Errorf("open archive part: %w", err)
		}
		entries, closeEntries, err := serviceDocsys.ExpandArchive(f, archives[0].Size, maxBytes)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return entries, func() {
			closeEntries()
			f.Close()
		}, nil
	}

	headers := form.File["files"]
	relpaths := form.Value["relpaths"]
	if len(relpaths) > 0 && len(relpaths) != len(headers) {
		return nil, nil, &domain.ValidationError{Message: "relpaths must have one entry per file"}
	}

	files, closeAll, err := openParts(headers)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]docsysSvc.StructureEntry, len(files))
	for i, f := range files {
		rel := f.Filename
		if len(relpaths) > 0 {
			rel = relpaths[i]
		}
		entries[i] = docsysSvc.StructureEntry{RelativePath: rel, Content: f.Content}
	}
	return entries, closeAll, nil
}
