package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
)

// nodeRecord is the persisted form of a node. It differs from the API shape
// in that it keeps the content key.
type nodeRecord struct {
	ID         string     `json:"id"`
	Path       string     `json:"path"`
	Name       string     `json:"name"`
	ParentPath string     `json:"parent_path"`
	IsFolder   bool       `json:"is_folder"`
	Owner      string     `json:"owner"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	Size       int64      `json:"size"`
	Remark     string     `json:"remark,omitempty"`
	ContentID  string     `json:"content_id,omitempty"`
}

func encodeNode(n *docsystem.Node) ([]byte, error) {
	return json.Marshal(nodeRecord{
		ID:         n.ID,
		Path:       n.Path,
		Name:       n.Name,
		ParentPath: n.ParentPath,
		IsFolder:   n.IsFolder,
		Owner:      n.Owner,
		CreatedAt:  n.CreatedAt,
		ModifiedAt: n.ModifiedAt,
		Size:       n.Size,
		Remark:     n.Remark,
		ContentID:  n.ContentID,
	})
}

func decodeNode(data []byte) (*docsystem.Node, error) {
	var r nodeRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	return &docsystem.Node{
		ID:         r.ID,
		Path:       r.Path,
		Name:       r.Name,
		ParentPath: r.ParentPath,
		IsFolder:   r.IsFolder,
		Owner:      r.Owner,
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.ModifiedAt,
		Size:       r.Size,
		Remark:     r.Remark,
		ContentID:  r.ContentID,
	}, nil
}

func decodeNodeItem(item *badger.Item) (*docsystem.Node, error) {
	var n *docsystem.Node
	err := item.Value(func(val []byte) error {
		var err error
		n, err = decodeNode(val)
		return err
	})
	return n, err
}

func putNode(txn *badger.Txn, n *docsystem.Node) error {
	data, err := encodeNode(n)
	if err != nil {
		return err
	}
	if err := txn.Set(keyNode(n.Path), data); err != nil {
		return err
	}
	return txn.Set(keyNodeID(n.ID), []byte(n.Path))
}

func getNode(txn *badger.Txn, path string) (*docsystem.Node, error) {
	item, err := txn.Get(keyNode(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.NewNodeNotFound(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read node %s: %w", path, err)
	}
	return decodeNodeItem(item)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func hasChildren(txn *badger.Txn, path string) bool {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = keyDescendantPrefix(path)

	it := txn.NewIterator(opts)
	defer it.Close()
	it.Rewind()
	return it.Valid()
}

// TreeStore implements docsystem.TreeStore on badger. Apply runs as a single
// serializable transaction; reads use snapshot transactions.
type TreeStore struct {
	db *DB
}

func NewTreeStore(db *DB) *TreeStore {
	return &TreeStore{db: db}
}

var _ docsysRepo.TreeStore = (*TreeStore)(nil)

func (s *TreeStore) Get(ctx context.Context, path string) (*docsystem.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var n *docsystem.Node
	err := s.db.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = getNode(txn, path)
		return err
	})
	return n, err
}

func (s *TreeStore) FindByID(ctx context.Context, id string) (*docsystem.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var n *docsystem.Node
	err := s.db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyNodeID(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
		}
		if err != nil {
			return err
		}
		path, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		n, err = getNode(txn, string(path))
		return err
	})
	return n, err
}

// ListChildren scans the descendant range of path and, after each child,
// seeks past that child's own descendants.
func (s *TreeStore) ListChildren(ctx context.Context, path string) ([]docsystem.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []docsystem.Node
	err := s.db.db.View(func(txn *badger.Txn) error {
		parent, err := getNode(txn, path)
		if err != nil {
			return err
		}
		if !parent.IsFolder {
			return &domain.NotAFolderError{Path: path}
		}

		prefix := keyDescendantPrefix(path)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		out = []docsystem.Node{}
		for it.Seek(prefix); it.Valid(); {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := item.KeyCopy(nil)
			if bytes.IndexByte(key[len(prefix):], 0) < 0 {
				child, err := decodeNodeItem(item)
				if err != nil {
					return err
				}
				out = append(out, *child)
			}
			it.Seek(skipSubtree(key))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// skipSubtree returns the smallest key greater than every descendant of the
// node stored at key.
func skipSubtree(key []byte) []byte {
	next := make([]byte, len(key)+1)
	copy(next, key)
	next[len(key)] = 0x01
	return next
}

// WalkSubtree streams the subtree from one snapshot, so the walk is
// consistent even without an external lock.
func (s *TreeStore) WalkSubtree(ctx context.Context, path string) iter.Seq2[*docsystem.Node, error] {
	return func(yield func(*docsystem.Node, error) bool) {
		stopped := false
		err := s.db.db.View(func(txn *badger.Txn) error {
			root, err := getNode(txn, path)
			if err != nil {
				return err
			}
			if !yield(root, nil) {
				stopped = true
				return nil
			}
			if !root.IsFolder {
				return nil
			}

			opts := badger.DefaultIteratorOptions
			opts.Prefix = keyDescendantPrefix(path)
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				n, err := decodeNodeItem(it.Item())
				if err != nil {
					return err
				}
				if !yield(n, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

func (s *TreeStore) Insert(ctx context.Context, node *docsystem.Node) error {
	b := &docsysRepo.Batch{}
	b.Insert(node)
	return s.Apply(ctx, b)
}

func (s *TreeStore) Update(ctx context.Context, node *docsystem.Node) error {
	b := &docsysRepo.Batch{}
	b.Update(node)
	return s.Apply(ctx, b)
}

func (s *TreeStore) Remove(ctx context.Context, path string) error {
	b := &docsysRepo.Batch{}
	b.Remove(path)
	return s.Apply(ctx, b)
}

// Apply validates each operation against the transaction's own pending
// writes and commits everything at once.
func (s *TreeStore) Apply(ctx context.Context, batch *docsysRepo.Batch) error {
	err := s.db.update(ctx, func(txn *badger.Txn) error {
		for _, op := range batch.Ops {
			if err := applyOp(txn, op); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("batch of %d operations is too large for one transaction: %w", batch.Len(), err)
	}
	return err
}

func applyOp(txn *badger.Txn, op docsysRepo.Op) error {
	switch op.Kind {
	case docsysRepo.OpInsert:
		n := op.Node
		if err := docsysRepo.CheckInsertable(n); err != nil {
			return err
		}
		taken, err := exists(txn, keyNode(n.Path))
		if err != nil {
			return err
		}
		if taken {
			return &domain.DuplicatePathError{Path: n.Path}
		}
		parent, err := getNode(txn, n.ParentPath)
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NoSuchParentError{Path: n.Path, ParentPath: n.ParentPath}
		}
		if err != nil {
			return err
		}
		if !parent.IsFolder {
			return &domain.NotAFolderError{Path: n.ParentPath}
		}
		idTaken, err := exists(txn, keyNodeID(n.ID))
		if err != nil {
			return err
		}
		if idTaken {
			return &domain.ConflictError{Message: fmt.Sprintf("node id %s already in use", n.ID), ResourceType: "node", ResourceID: n.ID}
		}
		return putNode(txn, n)

	case docsysRepo.OpUpdate:
		existing, err := getNode(txn, op.Node.Path)
		if err != nil {
			return err
		}
		if err := docsysRepo.CheckUpdatable(existing, op.Node); err != nil {
			return err
		}
		return putNode(txn, op.Node)

	case docsysRepo.OpRemove:
		existing, err := getNode(txn, op.Path)
		if err != nil {
			return err
		}
		if existing.IsRoot() {
			return &domain.ValidationError{Message: "the root folder cannot be removed"}
		}
		if existing.IsFolder && hasChildren(txn, op.Path) {
			return domain.NewFolderNotEmpty(op.Path)
		}
		if err := txn.Delete(keyNode(op.Path)); err != nil {
			return err
		}
		return txn.Delete(keyNodeID(existing.ID))
	}
	return fmt.Errorf("unknown batch operation %d", op.Kind)
}
