package docsystem

import (
	"time"
)

// RootOwner owns the root folder, which exists before any user does.
const RootOwner = "system"

// Node is a folder or file in the path-addressed tree.
// ID is stable across moves; Path is the canonical address.
type Node struct {
	ID         string     `json:"id" db:"id"`
	Path       string     `json:"path" db:"path"`
	Name       string     `json:"name" db:"name"`
	ParentPath string     `json:"parent_path" db:"parent_path"` // "" for root
	IsFolder   bool       `json:"is_folder" db:"is_folder"`
	Owner      string     `json:"owner" db:"owner_id"`
	OwnerEmail string     `json:"owner_email,omitempty"` // Resolved for responses, not stored
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty" db:"modified_at"` // Files only
	Size       int64      `json:"size" db:"size"`                         // Files only
	Remark     string     `json:"remark,omitempty" db:"remark"`
	ContentID  string     `json:"-" db:"content_id"` // Key of the file bytes in the content store
}

// IsRoot reports whether n is the tree root.
func (n *Node) IsRoot() bool {
	return n.Path == "/"
}

// Clone returns a copy that shares no pointers with n.
func (n *Node) Clone() *Node {
	c := *n
	if n.ModifiedAt != nil {
		t := *n.ModifiedAt
		c.ModifiedAt = &t
	}
	return &c
}

// NewRoot returns the root folder node.
func NewRoot(id string, createdAt time.Time) *Node {
	return &Node{
		ID:        id,
		Path:      "/",
		Name:      "",
		IsFolder:  true,
		Owner:     RootOwner,
		CreatedAt: createdAt,
	}
}

// UploadStatus is the per-file outcome of UploadFiles.
type UploadStatus string

const (
	UploadCreated     UploadStatus = "created"
	UploadOverwritten UploadStatus = "overwritten"
	UploadFailed      UploadStatus = "failed"
)

// UploadResult reports what happened to one uploaded file.
type UploadResult struct {
	Filename string       `json:"filename"`
	Path     string       `json:"path,omitempty"`
	Status   UploadStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
	Code     string       `json:"code,omitempty"`
	Node     *Node        `json:"node,omitempty"`
}

// FolderStructureResult summarises an UploadFolderStructure call.
type FolderStructureResult struct {
	ParentPath     string   `json:"parent_path"`
	CreatedFiles   int      `json:"created_files"`
	CreatedFolders int      `json:"created_folders"`
	Skipped        []string `json:"skipped,omitempty"`
}

// DeleteResult is either a confirmation warning (Deleted false, Warning set)
// or the outcome of a completed delete.
type DeleteResult struct {
	Path         string `json:"path"`
	Deleted      bool   `json:"deleted"`
	Warning      string `json:"warning,omitempty"`
	CanProceed   bool   `json:"can_proceed,omitempty"`
	FolderCount  int    `json:"folder_count"`
	FileCount    int    `json:"file_count"`
	TotalSize    int64  `json:"total_size"`
	DeletedNodes int    `json:"deleted_nodes,omitempty"`
}

// FolderStatistics aggregates one immediate child folder's subtree.
type FolderStatistics struct {
	FolderName     string `json:"folder_name"`
	Path           string `json:"path"`
	SubfolderCount int    `json:"subfolder_count"`
	FileCount      int    `json:"file_count"`
	TotalSize      int64  `json:"total_size"`
	SizeFormatted  string `json:"size_formatted"`
	Owner          string `json:"owner"`
}

// Statistics is the response of a statistics query rooted at RootPath.
type Statistics struct {
	RootPath     string             `json:"root_path"`
	TotalFolders int                `json:"total_folders"`
	Statistics   []FolderStatistics `json:"statistics"`
}
