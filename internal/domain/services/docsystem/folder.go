package docsystem

import (
	"io"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
)

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	ParentPath string `json:"parent_path"`
	Name       string `json:"name"`
	Remark     string `json:"remark,omitempty"`
}

// UploadFilesRequest carries the files of one multipart upload.
type UploadFilesRequest struct {
	ParentPath string
	Files      []UploadedFile
	Remark     string
	Overwrite  bool
}

// UploadedFile is one multipart part. Filename is the client's base name;
// directories in it are rejected by name validation.
type UploadedFile struct {
	Filename string
	Content  io.Reader
}

// UploadFolderStructureRequest carries the files of a folder upload.
type UploadFolderStructureRequest struct {
	ParentPath string
	Entries    []StructureEntry
}

// StructureEntry places Content at RelativePath ("/"-delimited) under the
// request's parent path. Missing folders on the way are created.
type StructureEntry struct {
	RelativePath string
	Content      io.Reader
}

// RenameRequest represents a rename of a file or folder
type RenameRequest struct {
	Path    string `json:"path"`
	NewName string `json:"new_name"`
}

// MoveRequest represents a move of a file or folder
type MoveRequest struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
}

// DeleteRequest represents a delete of a file or folder
type DeleteRequest struct {
	Path  string `json:"path"`
	Force bool   `json:"force"`
}

// ListChildrenRequest selects one page of a folder listing.
// Limit 0 returns every child.
type ListChildrenRequest struct {
	ParentPath string
	Limit      int
	Offset     int
}

// NodePage is one page of a listing with the unpaged total.
type NodePage struct {
	Nodes []docsystem.Node `json:"nodes"`
	Total int              `json:"total"`
}

// AuthorizeRequest is the body of the advisory authorization check.
type AuthorizeRequest struct {
	Action          string `json:"action"`
	Path            string `json:"path"`
	DestinationPath string `json:"destination_path,omitempty"`
}
