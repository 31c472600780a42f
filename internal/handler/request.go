package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/httputil"
)

// parseDeleteRequest accepts {path, force} as a JSON body, as query
// parameters, or both (query wins).
func parseDeleteRequest(w http.ResponseWriter, r *http.Request) (*docsysSvc.DeleteRequest, error) {
	var req docsysSvc.DeleteRequest
	if err := httputil.ParseOptionalJSON(w, r, &req); err != nil {
		return nil, err
	}
	q := r.URL.Query()
	if path := q.Get("path"); path != "" {
		req.Path = path
	}
	force, err := httputil.QueryBoolPtr(r, "force")
	if err != nil {
		return nil, err
	}
	if force != nil {
		req.Force = *force
	}
	if req.Path == "" {
		return nil, &domain.ValidationError{Message: "path is required"}
	}
	return &req, nil
}

func parseMultipart(w http.ResponseWriter, r *http.Request, maxMemory, maxBytes int64) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid multipart form: %v", err)}
	}
	return r.MultipartForm, nil
}

// openParts opens every file part. The returned func closes whatever was opened.
func openParts(headers []*multipart.FileHeader) ([]docsysSvc.UploadedFile, func(), error) {
	files := make([]docsysSvc.UploadedFile, 0, len(headers))
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open upload part %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		files = append(files, docsysSvc.UploadedFile{Filename: fh.Filename, Content: f})
	}
	return files, closeAll, nil
}

// requireKind keeps the folder and file routes apart: folder routes reject
// files and the other way round.
func requireKind(r *http.Request, tree docsysSvc.TreeService, p *models.Principal, path string, folder bool) error {
	node, err := tree.GetNode(r.Context(), p, path)
	if err != nil {
		return err
	}
	switch {
	case folder && !node.IsFolder:
		return &domain.ValidationError{Message: fmt.Sprintf("%s is a file, not a folder", node.Path)}
	case !folder && node.IsFolder:
		return &domain.ValidationError{Message: fmt.Sprintf("%s is a folder, not a file", node.Path)}
	}
	return nil
}
