package docsystem

import (
	"context"
	"io"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
)

// TreeService is the mutation engine and the read side of the folder tree.
// Every method authorizes the principal inside its lock scope.
type TreeService interface {
	// CreateFolder creates an empty folder under an existing folder.
	CreateFolder(ctx context.Context, p *models.Principal, req *CreateFolderRequest) (*docsystem.Node, error)

	// UploadFiles stores each file independently and reports per-file outcomes.
	UploadFiles(ctx context.Context, p *models.Principal, req *UploadFilesRequest) ([]docsystem.UploadResult, error)

	// UploadFolderStructure recreates a client-side folder tree under a parent.
	UploadFolderStructure(ctx context.Context, p *models.Principal, req *UploadFolderStructureRequest) (*docsystem.FolderStructureResult, error)

	// Rename moves a node within its parent.
	Rename(ctx context.Context, p *models.Principal, req *RenameRequest) (*docsystem.Node, error)

	// Move relocates a node and its subtree in one atomic step.
	Move(ctx context.Context, p *models.Principal, req *MoveRequest) (*docsystem.Node, error)

	// Delete removes a node, asking for confirmation before deleting a
	// non-empty folder unless Force is set.
	Delete(ctx context.Context, p *models.Principal, req *DeleteRequest) (*docsystem.DeleteResult, error)

	// Statistics summarises every immediate child folder of rootPath.
	Statistics(ctx context.Context, p *models.Principal, rootPath string) (*docsystem.Statistics, error)

	// GetNode returns the metadata of one node.
	GetNode(ctx context.Context, p *models.Principal, path string) (*docsystem.Node, error)

	// ListChildren returns one page of a folder's children, folders first.
	ListChildren(ctx context.Context, p *models.Principal, req *ListChildrenRequest) (*NodePage, error)

	// OpenContent returns a file's metadata and a reader for its bytes.
	// The caller closes the reader.
	OpenContent(ctx context.Context, p *models.Principal, path string) (*docsystem.Node, io.ReadCloser, error)

	// Authorize is the advisory pre-flight check. Mutations check again.
	Authorize(ctx context.Context, p *models.Principal, req *AuthorizeRequest) error
}

// SearchService scans subtrees for matching nodes.
type SearchService interface {
	// Search matches a case-insensitive substring of node names.
	Search(ctx context.Context, p *models.Principal, opts *docsystem.SearchOptions) ([]docsystem.Node, error)

	// Filter returns nodes satisfying every provided predicate.
	Filter(ctx context.Context, p *models.Principal, criteria *docsystem.FilterCriteria) ([]docsystem.Node, error)
}
