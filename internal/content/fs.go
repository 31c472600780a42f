package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
)

// FSStore keeps each blob in its own file under a root directory, fanned out
// by the first two characters of the content ID.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, errors.New("filesystem content store: path is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve content root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}
	return &FSStore{root: abs}, nil
}

var _ docsysRepo.ContentStore = (*FSStore)(nil)

func (s *FSStore) blobPath(id string) (string, error) {
	if len(id) < 3 || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid content id %q", id)
	}
	return filepath.Join(s.root, id[:2], id), nil
}

// Write streams r into a temporary file and renames it into place, so a
// failed upload never leaves a partial blob under id.
func (s *FSStore) Write(ctx context.Context, id string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	target, err := s.blobPath(id)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return 0, fmt.Errorf("create content dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // No-op after a successful rename

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write content %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close content %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("commit content %s: %w", id, err)
	}
	return n, nil
}

func (s *FSStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.blobPath(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("open content %s: %w", id, err)
	}
	return f, nil
}

func (s *FSStore) Delete(_ context.Context, id string) error {
	target, err := s.blobPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete content %s: %w", id, err)
	}
	return nil
}

func (s *FSStore) HealthCheck(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("content root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("content root %s is not a directory", s.root)
	}
	return nil
}
