// Package storetest holds conformance suites shared by every repository backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TreeStoreFactory returns a fresh store containing only the root.
type TreeStoreFactory func(t *testing.T) docsysRepo.TreeStore

// RunTreeStoreSuite runs the TreeStore contract against a backend.
func RunTreeStoreSuite(t *testing.T, newStore TreeStoreFactory) {
	t.Run("RootExists", func(t *testing.T) { testRootExists(t, newStore(t)) })
	t.Run("InsertAndGet", func(t *testing.T) { testInsertAndGet(t, newStore(t)) })
	t.Run("InsertFailures", func(t *testing.T) { testInsertFailures(t, newStore(t)) })
	t.Run("ListChildren", func(t *testing.T) { testListChildren(t, newStore(t)) })
	t.Run("WalkSubtreePreOrder", func(t *testing.T) { testWalkSubtree(t, newStore(t)) })
	t.Run("WalkSubtreeStopsEarly", func(t *testing.T) { testWalkStopsEarly(t, newStore(t)) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, newStore(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("ApplyIsAtomic", func(t *testing.T) { testApplyAtomic(t, newStore(t)) })
	t.Run("ApplySubtreeRewrite", func(t *testing.T) { testApplyRewrite(t, newStore(t)) })
	t.Run("PrefixSiblingsAreIndependent", func(t *testing.T) { testPrefixSiblings(t, newStore(t)) })
}

// Folder builds a folder node at path.
func Folder(path string) *docsystem.Node {
	return &docsystem.Node{
		ID:         uuid.NewString(),
		Path:       path,
		Name:       pathutil.Base(path),
		ParentPath: pathutil.Parent(path),
		IsFolder:   true,
		Owner:      "owner-1",
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

// File builds a file node at path with the given size.
func File(path string, size int64) *docsystem.Node {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &docsystem.Node{
		ID:         uuid.NewString(),
		Path:       path,
		Name:       pathutil.Base(path),
		ParentPath: pathutil.Parent(path),
		Owner:      "owner-1",
		CreatedAt:  now,
		ModifiedAt: &now,
		Size:       size,
		ContentID:  uuid.NewString(),
	}
}

// MustInsert inserts nodes in order and fails the test on error.
func MustInsert(t *testing.T, s docsysRepo.TreeStore, nodes ...*docsystem.Node) {
	t.Helper()
	for _, n := range nodes {
		require.NoError(t, s.Insert(context.Background(), n), "insert %s", n.Path)
	}
}

// CollectPaths drains a walk into its paths.
func CollectPaths(t *testing.T, s docsysRepo.TreeStore, root string) []string {
	t.Helper()
	var paths []string
	for n, err := range s.WalkSubtree(context.Background(), root) {
		require.NoError(t, err)
		paths = append(paths, n.Path)
	}
	return paths
}

func testRootExists(t *testing.T, s docsysRepo.TreeStore) {
	root, err := s.Get(context.Background(), "/")
	require.NoError(t, err)
	assert.True(t, root.IsFolder)
	assert.True(t, root.IsRoot())
	assert.Equal(t, docsystem.RootOwner, root.Owner)

	byID, err := s.FindByID(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, "/", byID.Path)
}

func testInsertAndGet(t *testing.T, s docsysRepo.TreeStore) {
	ctx := context.Background()
	a := Folder("/a")
	a.Remark = "team docs"
	f := File("/a/report.pdf", 42)
	MustInsert(t, s, a, f)

	got, err := s.Get(ctx, "/a/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "report.pdf", got.Name)
	assert.Equal(t, "/a", got.ParentPath)
	assert.False(t, got.IsFolder)
	assert.Equal(t, int64(42), got.Size)
	assert.Equal(t, f.ContentID, got.ContentID)
	require.NotNil(t, got.ModifiedAt)
	assert.True(t, f.ModifiedAt.Equal(*got.ModifiedAt))
	assert.True(t, f.CreatedAt.Equal(got.CreatedAt))

	folder, err := s.Get(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "team docs", folder.Remark)
	assert.Nil(t, folder.ModifiedAt)

	byID, err := s.FindByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "/a/report.pdf", byID.Path)

	_, err = s.Get(ctx, "/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testInsertFailures(t *testing.T, s docsysRepo.TreeStore) {
	ctx := context.Background()
	MustInsert(t, s, Folder("/a"), File("/a/f.txt", 1))

	err := s.Insert(ctx, Folder("/a"))
	var dup *domain.DuplicatePathError
	require.ErrorAs(t, err, &dup)
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = s.Insert(ctx, Folder("/missing/child"))
	var nsp *domain.NoSuchParentError
	require.ErrorAs(t, err, &nsp)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.Insert(ctx, File("/a/f.txt/inner", 1))
	assert.Error(t, err)

	_, err = s.Get(ctx, "/a/f.txt/inner")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testListChildren(t *testing.T, s docsysRepo.TreeStore) {
	ctx := context.Background()
	MustInsert(t, s, Folder("/a"), Folder("/a/c"), File("/a/b.txt", 3), Folder("/a/c/deep"))

	children, err := s.ListChildren(ctx, "/a")
	require.NoError(t, err)
	require.Len(t, children, 2)
	names := []string{children[0].Name, children[1].Name}
	assert.ElementsMatch(t, []string{"b.txt", "c"}, names)

	empty, err := s.ListChildren(ctx, "/a/c/deep")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = s.ListChildren(ctx, "/a/b.txt")
	assert.ErrorIs(t, err, domain.ErrNotAFolder)

	_, err = s.ListChildren(ctx, "/nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testWalkSubtree(t *testing.T, s docsysRepo.TreeStore) {
	MustInsert(t, s,
		Folder("/a"),
		Folder("/a/b"),
		File("/a/b/x.txt", 1),
		Folder("/a/b-c"),
		File("/a/b-c/y.txt", 1),
		File("/a/z.txt", 1),
		Folder("/other"),
	)

	paths := CollectPaths(t, s, "/a")
	require.Len(t, paths, 6)
	assert.Equal(t, "/a", paths[0])

	// Pre-order: each node appears after its parent, and a folder's
	// descendants are contiguous.
	index := map[string]int{}
	for i, p := range paths {
		index[p] = i
	}
	for _, p := range paths[1:] {
		assert.Less(t, index[pathutil.Parent(p)], index[p], p)
	}
	assert.Equal(t, index["/a/b"]+1, index["/a/b/x.txt"])
	assert.Equal(t, index["/a/b-c"]+1, index["/a/b-c/y.txt"])
	assert.NotContains(t, paths, "/other")

	// Restartable
	assert.Equal(t, paths, CollectPaths(t, s, "/a"))

	// Single file
	assert.Equal(t, []string{"/a/z.txt"}, CollectPaths(t, s, "/a/z.txt"))

	for _, err := range s.WalkSubtree(context.Background(), "/missing") {
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func testWalkStopsEarly(t *testing.T, s docsysRepo.TreeStore) {
	MustInsert(t, s, Folder("/a"), File("/a/1", 1), File("/a/2", 1), File("/a/3", 1))

	seen := 0
	for _, err := range s.WalkSubtree(context.Background(), "/a") {
		require.NoError(t, err)
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func testRemove(t *testing.T, s docsysRepo.TreeStore) {
	ctx := context.Background()
	a := Folder("/a")
	f := File("/a/f", 1)
	MustInsert(t, s, a, f)

	err := s.Remove(ctx, "/a")
	assert.ErrorIs(t, err, domain.ErrConflict, "non-empty folder")

	err = s.Remove(ctx, "/")
	assert.Error(t, err)

	require.NoError(t, s.Remove(ctx, "/a/f"))
	require.NoError(t, s.Remove(ctx, "/a"))

	_, err = s.Get(ctx, "/a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.FindByID(ctx, f.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.Remove(ctx, "/a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	children, err := s.ListChildren(ctx, "/")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func testUpdate(t *testing.T, s docsysRepo.TreeStore) {
	ctx := context.Background()
	f := File("/f.txt", 1)
	MustInsert(t, s, f)

	updated := f.Clone()
	updated.Size = 99
	updated.ContentID = uuid.NewString()
	updated.Remark = "v2"
	require.NoError(t, s.Update(ctx, updated))

	got, err := s.Get(ctx, "/f.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.Size)
	assert.Equal(t, updated.ContentID, got.ContentID)
	assert.Equal(t, "v2", got.Remark)

	kind := f.Clone()
	kind.IsFolder = true
	assert.ErrorIs(t, s.Update(ctx, kind), domain.ErrValidation)

	assert.ErrorIs(t, s.Update(ctx, File("/nope", 1)), domain.ErrNotFound)
}

func testApplyAtomic(t *testing.T, s docsysRepo.TreeStore) {
	ctx := context.Background()
	MustInsert(t, s, Folder("/a"), File("/a/f", 1))

	var b docsysRepo.Batch
	b.Insert(Folder("/b"))
	b.Remove("/a/f")
	b.Insert(Folder("/a")) // duplicate: whole batch must fail
	err := s.Apply(ctx, &b)
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = s.Get(ctx, "/b")
	assert.ErrorIs(t, err, domain.ErrNotFound, "staged insert must not be visible")
	_, err = s.Get(ctx, "/a/f")
	assert.NoError(t, err, "staged remove must not be applied")
}

func testApplyRewrite(t *testing.T, s docsysRepo.TreeStore) {
	ctx := context.Background()
	src := []*docsystem.Node{Folder("/a"), Folder("/a/b"), File("/a/b/f", 7), File("/a/g", 3)}
	MustInsert(t, s, append(src, Folder("/dst"))...)

	// Remove old subtree children-first, insert rebased copies parents-first.
	var b docsysRepo.Batch
	for i := len(src) - 1; i >= 0; i-- {
		b.Remove(src[i].Path)
	}
	for _, n := range src {
		moved := n.Clone()
		moved.Path = pathutil.Rebase(n.Path, "/a", "/dst/a2")
		moved.ParentPath = pathutil.Parent(moved.Path)
		moved.Name = pathutil.Base(moved.Path)
		b.Insert(moved)
	}
	require.NoError(t, s.Apply(ctx, &b))

	assert.Equal(t, []string{"/dst/a2", "/dst/a2/b", "/dst/a2/b/f", "/dst/a2/g"}, CollectPaths(t, s, "/dst/a2"))
	_, err := s.Get(ctx, "/a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	moved, err := s.FindByID(ctx, src[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "/dst/a2/b/f", moved.Path)
	assert.Equal(t, int64(7), moved.Size)
	assert.Equal(t, src[2].ContentID, moved.ContentID)
}

func testPrefixSiblings(t *testing.T, s docsysRepo.TreeStore) {
	ctx := context.Background()
	MustInsert(t, s, Folder("/team"), Folder("/teamA"), File("/teamA/x", 1), File("/team/y", 1))

	assert.Equal(t, []string{"/team", "/team/y"}, CollectPaths(t, s, "/team"))

	children, err := s.ListChildren(ctx, "/team")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "y", children[0].Name)
}
