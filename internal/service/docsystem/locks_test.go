package docsystem

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtreeLockerConflicts(t *testing.T) {
	tests := []struct {
		name         string
		first        string
		firstExcl    bool
		second       string
		secondExcl   bool
		wantConflict bool
	}{
		{"shared same path", "/a", false, "/a", false, false},
		{"exclusive same path", "/a", true, "/a", false, true},
		{"exclusive ancestor", "/a", true, "/a/b/c", false, true},
		{"shared ancestor exclusive descendant", "/a", false, "/a/b", true, true},
		{"siblings", "/a/b", true, "/a/c", true, false},
		{"prefix but not ancestor", "/a/b", true, "/a/bc", true, false},
		{"root exclusive", "/", true, "/x", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewSubtreeLocker()
			release, err := l.acquire(context.Background(), tt.first, tt.firstExcl)
			require.NoError(t, err)
			defer release()

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			second, err := l.acquire(ctx, tt.second, tt.secondExcl)
			if tt.wantConflict {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
				assert.Equal(t, 0, l.Waiting(), "cancelled request must leave the queue")
				return
			}
			require.NoError(t, err)
			second()
		})
	}
}

func TestSubtreeLockerReleaseWakesWaiter(t *testing.T) {
	l := NewSubtreeLocker()
	release, err := l.Lock(context.Background(), "/team")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := l.RLock(context.Background(), "/team/docs")
		if err == nil {
			close(acquired)
			r()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("reader acquired while writer held an ancestor")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("reader was not woken after release")
	}
}

func TestSubtreeLockerQueuedWriterBlocksNewReaders(t *testing.T) {
	l := NewSubtreeLocker()
	ctx := context.Background()

	reader, err := l.RLock(ctx, "/a")
	require.NoError(t, err)

	writerDone := make(chan struct{})
	go func() {
		w, err := l.Lock(ctx, "/a")
		if err == nil {
			w()
		}
		close(writerDone)
	}()
	require.Eventually(t, func() bool { return l.Waiting() == 1 }, time.Second, time.Millisecond)

	// A new reader must queue behind the writer
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.RLock(short, "/a/b")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	reader()
	select {
	case <-writerDone:
	case <-time.After(time.Second):
		t.Fatal("writer starved")
	}
	assert.Equal(t, 0, l.Held())
}

func TestSubtreeLockerReleaseIsIdempotent(t *testing.T) {
	l := NewSubtreeLocker()
	release, err := l.Lock(context.Background(), "/a")
	require.NoError(t, err)
	release()
	release()
	assert.Equal(t, 0, l.Held())
}

func TestSubtreeLockerExclusiveIsMutual(t *testing.T) {
	l := NewSubtreeLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		path := "/a"
		if i%2 == 0 {
			path = "/a/b"
		}
		go func() {
			defer wg.Done()
			release, err := l.Lock(context.Background(), path)
			if err != nil {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.Held())
}
