package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/repository/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeStore(t *testing.T) {
	storetest.RunTreeStoreSuite(t, func(t *testing.T) docsysRepo.TreeStore {
		return NewTreeStore()
	})
}

func TestTreeStoreConcurrentInsertSameName(t *testing.T) {
	s := NewTreeStore()
	const workers = 16

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Insert(context.Background(), storetest.Folder("/x"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	children, err := s.ListChildren(context.Background(), "/")
	require.NoError(t, err)
	assert.Len(t, children, 1)
}

func TestTreeStoreReturnsCopies(t *testing.T) {
	s := NewTreeStore()
	f := storetest.File("/f", 1)
	storetest.MustInsert(t, s, f)

	f.Size = 1000
	got, err := s.Get(context.Background(), "/f")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Size)

	got.Size = 2000
	again, err := s.Get(context.Background(), "/f")
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.Size)
}

func TestDirectory(t *testing.T) {
	storetest.RunDirectorySuite(t, func(t *testing.T) storetest.Directory {
		return storetest.Directory{
			Users:    NewUserRepository(),
			Teams:    NewTeamRepository(),
			Activity: NewActivityRepository(),
		}
	})
}
