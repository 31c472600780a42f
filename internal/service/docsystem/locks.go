package docsystem

import (
	"context"
	"sync"

	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
)

// SubtreeLocker hands out reader/writer locks on subtrees of the path tree.
// Two holds conflict when their paths overlap (equal, or one is an ancestor
// of the other) and at least one of them is exclusive.
//
// Requests are served in arrival order among overlapping paths: a request is
// granted only when it conflicts neither with an active hold nor with an
// older request still waiting, so a queued writer holds back later readers.
type SubtreeLocker struct {
	mu      sync.Mutex
	holds   []*lockRequest
	waiting []*lockRequest
}

type lockRequest struct {
	path      string
	exclusive bool
	granted   chan struct{}
}

func NewSubtreeLocker() *SubtreeLocker {
	return &SubtreeLocker{}
}

func (r *lockRequest) conflicts(o *lockRequest) bool {
	if !r.exclusive && !o.exclusive {
		return false
	}
	return pathutil.IsWithin(r.path, o.path) || pathutil.IsWithin(o.path, r.path)
}

// Lock takes an exclusive hold on the subtree at path.
func (l *SubtreeLocker) Lock(ctx context.Context, path string) (func(), error) {
	return l.acquire(ctx, path, true)
}

// RLock takes a shared hold on the subtree at path.
func (l *SubtreeLocker) RLock(ctx context.Context, path string) (func(), error) {
	return l.acquire(ctx, path, false)
}

func (l *SubtreeLocker) acquire(ctx context.Context, path string, exclusive bool) (func(), error) {
	req := &lockRequest{path: path, exclusive: exclusive, granted: make(chan struct{})}

	l.mu.Lock()
	if l.grantable(req, len(l.waiting)) {
		l.holds = append(l.holds, req)
		l.mu.Unlock()
		return l.releaser(req), nil
	}
	l.waiting = append(l.waiting, req)
	l.mu.Unlock()

	select {
	case <-req.granted:
		return l.releaser(req), nil
	case <-ctx.Done():
	}

	l.mu.Lock()
	select {
	case <-req.granted:
		// Granted while we were giving up
		l.mu.Unlock()
		l.release(req)
	default:
		l.removeWaiting(req)
		l.dispatch()
		l.mu.Unlock()
	}
	return nil, ctx.Err()
}

// grantable reports whether req conflicts with no active hold and with none
// of the first n waiting requests. Callers hold l.mu.
func (l *SubtreeLocker) grantable(req *lockRequest, n int) bool {
	for _, h := range l.holds {
		if req.conflicts(h) {
			return false
		}
	}
	for _, w := range l.waiting[:n] {
		if req.conflicts(w) {
			return false
		}
	}
	return true
}

// dispatch grants every waiting request that has become grantable.
// Callers hold l.mu.
func (l *SubtreeLocker) dispatch() {
	for i := 0; i < len(l.waiting); {
		w := l.waiting[i]
		if !l.grantable(w, i) {
			i++
			continue
		}
		l.waiting = append(l.waiting[:i], l.waiting[i+1:]...)
		l.holds = append(l.holds, w)
		close(w.granted)
	}
}

func (l *SubtreeLocker) removeWaiting(req *lockRequest) {
	for i, w := range l.waiting {
		if w == req {
			l.waiting = append(l.waiting[:i], l.waiting[i+1:]...)
			return
		}
	}
}

func (l *SubtreeLocker) releaser(req *lockRequest) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(req) })
	}
}

func (l *SubtreeLocker) release(req *lockRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, h := range l.holds {
		if h == req {
			l.holds = append(l.holds[:i], l.holds[i+1:]...)
			break
		}
	}
	l.dispatch()
}

// Held returns the number of active holds.
func (l *SubtreeLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.holds)
}

// Waiting returns the number of queued requests.
func (l *SubtreeLocker) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiting)
}
