// Package memory provides in-process implementations of the repositories.
// Suitable for development and tests; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
)

// TreeStore implements docsystem.TreeStore with maps guarded by one RWMutex.
type TreeStore struct {
	// mu protects all fields. Queries take the read lock, Apply the write lock.
	mu sync.RWMutex

	// nodes maps canonical path to node.
	nodes map[string]*docsystem.Node

	// children maps a folder path to the set of its child names.
	children map[string]map[string]struct{}

	// byID maps stable node ID to current path.
	byID map[string]string
}

// NewTreeStore creates a store containing only the root folder.
func NewTreeStore() *TreeStore {
	root := docsystem.NewRoot(uuid.NewString(), time.Now().UTC())
	return &TreeStore{
		nodes:    map[string]*docsystem.Node{root.Path: root},
		children: map[string]map[string]struct{}{root.Path: {}},
		byID:     map[string]string{root.ID: root.Path},
	}
}

var _ docsysRepo.TreeStore = (*TreeStore)(nil)

func (s *TreeStore) Get(ctx context.Context, path string) (*docsystem.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[path]
	if !ok {
		return nil, domain.NewNodeNotFound(path)
	}
	return n.Clone(), nil
}

func (s *TreeStore) FindByID(ctx context.Context, id string) (*docsystem.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, ok := s.byID[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}
	return s.nodes[path].Clone(), nil
}

func (s *TreeStore) ListChildren(ctx context.Context, path string) ([]docsystem.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[path]
	if !ok {
		return nil, domain.NewNodeNotFound(path)
	}
	if !n.IsFolder {
		return nil, &domain.NotAFolderError{Path: path}
	}

	names := s.sortedChildNames(path)
	out := make([]docsystem.Node, 0, len(names))
	for _, name := range names {
		out = append(out, *s.nodes[pathutil.Join(path, name)].Clone())
	}
	return out, nil
}

// WalkSubtree yields nodes in pre-order with siblings in name order. The read
// lock is held only while each node and its child names are copied, so callers
// may use the store from inside the loop. Consistency across the whole walk is
// the caller's concern (the service holds a subtree lock).
func (s *TreeStore) WalkSubtree(ctx context.Context, path string) iter.Seq2[*docsystem.Node, error] {
	return func(yield func(*docsystem.Node, error) bool) {
		stack := []string{path}
		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			s.mu.RLock()
			n, ok := s.nodes[p]
			var names []string
			if ok {
				n = n.Clone()
				if n.IsFolder {
					names = s.sortedChildNames(p)
				}
			}
			s.mu.RUnlock()

			if !ok {
				if p == path {
					yield(nil, domain.NewNodeNotFound(path))
					return
				}
				continue
			}
			if !yield(n, nil) {
				return
			}
			for i := len(names) - 1; i >= 0; i-- {
				stack = append(stack, pathutil.Join(p, names[i]))
			}
		}
	}
}

func (s *TreeStore) Insert(ctx context.Context, node *docsystem.Node) error {
	return s.Apply(ctx, &docsysRepo.Batch{Ops: []docsysRepo.Op{{Kind: docsysRepo.OpInsert, Node: node, Path: node.Path}}})
}

func (s *TreeStore) Update(ctx context.Context, node *docsystem.Node) error {
	return s.Apply(ctx, &docsysRepo.Batch{Ops: []docsysRepo.Op{{Kind: docsysRepo.OpUpdate, Node: node, Path: node.Path}}})
}

func (s *TreeStore) Remove(ctx context.Context, path string) error {
	return s.Apply(ctx, &docsysRepo.Batch{Ops: []docsysRepo.Op{{Kind: docsysRepo.OpRemove, Path: path}}})
}

// Apply validates the whole batch against a staged overlay, then commits it
// under the same write lock. Nothing is visible to readers until every
// operation has been validated.
func (s *TreeStore) Apply(ctx context.Context, batch *docsysRepo.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	view := newStagedView(s)
	for _, op := range batch.Ops {
		if err := view.apply(op); err != nil {
			return err
		}
	}

	// Validation passed; replay on the real maps.
	for _, op := range batch.Ops {
		switch op.Kind {
		case docsysRepo.OpInsert:
			n := op.Node.Clone()
			s.nodes[n.Path] = n
			s.children[n.ParentPath][n.Name] = struct{}{}
			if n.IsFolder {
				s.children[n.Path] = map[string]struct{}{}
			}
			s.byID[n.ID] = n.Path
		case docsysRepo.OpUpdate:
			s.nodes[op.Node.Path] = op.Node.Clone()
		case docsysRepo.OpRemove:
			n := s.nodes[op.Path]
			delete(s.nodes, op.Path)
			delete(s.children[n.ParentPath], n.Name)
			delete(s.children, op.Path)
			delete(s.byID, n.ID)
		}
	}
	return nil
}

func (s *TreeStore) sortedChildNames(path string) []string {
	names := make([]string, 0, len(s.children[path]))
	for name := range s.children[path] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// stagedView layers pending batch changes over the committed maps.
type stagedView struct {
	s          *TreeStore
	nodes      map[string]*docsystem.Node // nil value marks a staged removal
	childDelta map[string]int
	ids        map[string]string // "" marks a staged removal
}

func newStagedView(s *TreeStore) *stagedView {
	return &stagedView{
		s:          s,
		nodes:      map[string]*docsystem.Node{},
		childDelta: map[string]int{},
		ids:        map[string]string{},
	}
}

func (v *stagedView) get(path string) (*docsystem.Node, bool) {
	if n, staged := v.nodes[path]; staged {
		return n, n != nil
	}
	n, ok := v.s.nodes[path]
	return n, ok
}

func (v *stagedView) idTaken(id string) bool {
	if p, staged := v.ids[id]; staged {
		return p != ""
	}
	_, ok := v.s.byID[id]
	return ok
}

func (v *stagedView) childCount(path string) int {
	return len(v.s.children[path]) + v.childDelta[path]
}

func (v *stagedView) apply(op docsysRepo.Op) error {
	switch op.Kind {
	case docsysRepo.OpInsert:
		n := op.Node
		if err := docsysRepo.CheckInsertable(n); err != nil {
			return err
		}
		if _, exists := v.get(n.Path); exists {
			return &domain.DuplicatePathError{Path: n.Path}
		}
		parent, ok := v.get(n.ParentPath)
		if !ok {
			return &domain.NoSuchParentError{Path: n.Path, ParentPath: n.ParentPath}
		}
		if !parent.IsFolder {
			return &domain.NotAFolderError{Path: n.ParentPath}
		}
		if v.idTaken(n.ID) {
			return &domain.ConflictError{Message: fmt.Sprintf("node id %s already in use", n.ID), ResourceType: "node", ResourceID: n.ID}
		}
		v.nodes[n.Path] = n
		v.childDelta[n.ParentPath]++
		v.ids[n.ID] = n.Path

	case docsysRepo.OpUpdate:
		existing, ok := v.get(op.Node.Path)
		if !ok {
			return domain.NewNodeNotFound(op.Node.Path)
		}
		if err := docsysRepo.CheckUpdatable(existing, op.Node); err != nil {
			return err
		}
		v.nodes[op.Node.Path] = op.Node

	case docsysRepo.OpRemove:
		existing, ok := v.get(op.Path)
		if !ok {
			return domain.NewNodeNotFound(op.Path)
		}
		if existing.IsRoot() {
			return &domain.ValidationError{Message: "the root folder cannot be removed"}
		}
		if existing.IsFolder && v.childCount(op.Path) > 0 {
			return domain.NewFolderNotEmpty(op.Path)
		}
		v.nodes[op.Path] = nil
		v.childDelta[existing.ParentPath]--
		v.ids[existing.ID] = ""

	default:
		return fmt.Errorf("unknown batch operation %d", op.Kind)
	}
	return nil
}
