package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/repository/storetest"
)

// These tests need a real server: DMS_TEST_POSTGRES_URL=postgres://... go test
func testConfig(t *testing.T) *RepositoryConfig {
	t.Helper()
	url := os.Getenv("DMS_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("DMS_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	pool, err := CreateConnectionPool(ctx, url, PoolOptions{MaxConns: 4})
	require.NoError(t, err)

	prefix := fmt.Sprintf("t%s_", strings.ReplaceAll(uuid.NewString()[:8], "-", ""))
	tables, err := NewTableNames(prefix)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, pool, tables))

	t.Cleanup(func() {
		_ = DropSchema(context.Background(), pool, tables)
		pool.Close()
	})
	return &RepositoryConfig{Pool: pool, Tables: tables, Logger: slog.Default()}
}

func TestTreeStore(t *testing.T) {
	storetest.RunTreeStoreSuite(t, func(t *testing.T) docsysRepo.TreeStore {
		return NewTreeStore(testConfig(t))
	})
}

func TestDirectory(t *testing.T) {
	storetest.RunDirectorySuite(t, func(t *testing.T) storetest.Directory {
		cfg := testConfig(t)
		return storetest.Directory{
			Users:    NewUserRepository(cfg),
			Teams:    NewTeamRepository(cfg),
			Activity: NewActivityRepository(cfg),
		}
	})
}

func TestWalkSubtreeEscapesLikePattern(t *testing.T) {
	cfg := testConfig(t)
	store := NewTreeStore(cfg)
	storetest.MustInsert(t, store,
		storetest.Folder("/a_b"),
		storetest.File("/a_b/in.txt", 1),
		storetest.Folder("/axb"),
		storetest.File("/axb/out.txt", 1),
	)

	assert.Equal(t, []string{"/a_b", "/a_b/in.txt"}, storetest.CollectPaths(t, store, "/a_b"))
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	root, err := NewTreeStore(cfg).Get(ctx, "/")
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, cfg.Pool, cfg.Tables))

	again, err := NewTreeStore(cfg).Get(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, root.ID, again.ID)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `/a\_b\%c\\d`, escapeLike(`/a_b%c\d`))
}

func TestNewTableNamesRejectsUnsafePrefix(t *testing.T) {
	tables, err := NewTableNames("dms_")
	require.NoError(t, err)
	assert.Equal(t, "dms_nodes", tables.Nodes)

	_, err = NewTableNames("x; DROP TABLE users; --")
	assert.Error(t, err)
}
