package docsystem

import (
	"context"
	"fmt"
	"iter"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
)

// TreeStore holds folder and file nodes addressed by canonical path.
//
// Every implementation maintains, at every commit point:
//   - every non-root node's parent exists and is a folder (no orphans)
//   - no two children of one folder share a name
//   - the root "/" exists and cannot be removed
type TreeStore interface {
	// Get returns the node at path or a *domain.NotFoundError.
	Get(ctx context.Context, path string) (*docsystem.Node, error)

	// FindByID returns the node with the given stable ID, wherever it now lives.
	FindByID(ctx context.Context, id string) (*docsystem.Node, error)

	// ListChildren returns the immediate children of a folder in name order.
	// Fails with *domain.NotAFolderError when path is a file.
	ListChildren(ctx context.Context, path string) ([]docsystem.Node, error)

	// WalkSubtree lazily yields the node at path and all its descendants in
	// pre-order. Each call starts a fresh walk. A failed lookup is yielded as
	// the error of the first pair.
	WalkSubtree(ctx context.Context, path string) iter.Seq2[*docsystem.Node, error]

	// Insert adds a node. Fails with *domain.DuplicatePathError when the path
	// is taken and *domain.NoSuchParentError when the parent folder is missing.
	Insert(ctx context.Context, node *docsystem.Node) error

	// Update overwrites the metadata of the node at node.Path.
	Update(ctx context.Context, node *docsystem.Node) error

	// Remove deletes exactly one node. Folders must be empty.
	Remove(ctx context.Context, path string) error

	// Apply validates and commits a batch as one unit: either every operation
	// becomes visible or none does.
	Apply(ctx context.Context, batch *Batch) error
}

// OpKind is the type of a staged batch operation.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpRemove
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpRemove:
		return "remove"
	}
	return "unknown"
}

// Op is one staged change. Node is set for inserts and updates, Path for removes.
type Op struct {
	Kind OpKind
	Node *docsystem.Node
	Path string
}

// Batch stages operations for TreeStore.Apply. Operations are validated in
// order against the state produced by the preceding ones, so a subtree
// rewrite removes the old nodes children-first and then inserts the new
// ones parents-first (node IDs are unique, so removes must come first).
type Batch struct {
	Ops []Op
}

func (b *Batch) Insert(n *docsystem.Node) {
	b.Ops = append(b.Ops, Op{Kind: OpInsert, Node: n, Path: n.Path})
}

func (b *Batch) Update(n *docsystem.Node) {
	b.Ops = append(b.Ops, Op{Kind: OpUpdate, Node: n, Path: n.Path})
}

func (b *Batch) Remove(path string) {
	b.Ops = append(b.Ops, Op{Kind: OpRemove, Path: path})
}

func (b *Batch) Len() int {
	return len(b.Ops)
}

// CheckInsertable validates the structural fields every backend relies on.
func CheckInsertable(n *docsystem.Node) error {
	if n.ID == "" {
		return &domain.ValidationError{Message: "node id is required"}
	}
	if n.Path == pathutil.Root {
		return &domain.DuplicatePathError{Path: n.Path}
	}
	if n.ParentPath != pathutil.Parent(n.Path) || n.Name != pathutil.Base(n.Path) {
		return &domain.ValidationError{Message: fmt.Sprintf("node %s has inconsistent parent_path or name", n.Path)}
	}
	return nil
}

// CheckUpdatable rejects updates that would change a node's identity or kind.
func CheckUpdatable(existing, n *docsystem.Node) error {
	if existing.ID != n.ID || existing.IsFolder != n.IsFolder {
		return &domain.ValidationError{Message: fmt.Sprintf("update of %s cannot change id or kind", n.Path)}
	}
	return nil
}
