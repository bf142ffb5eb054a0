package dbd

import (
	"runtime"
	"sync"

	"github.com/doublebuf/dbd/internal/tlsim"
)

// readerHandle is the per-scope registration record described in spec
// section 4.2: a reader lock plus an optional instance of the
// application's per-thread scratch type U.
//
// Unlike the source's per-OS-thread handle, a readerHandle here is kept
// alive by the [tlsim.Scope] that owns it, not by the Container's
// registry (the registry holds only a weak reference — see
// Container.readers). This lets the handle become collectible, and its
// registration removable, once the owning Scope is dropped.
type readerHandle[U any] struct {
	mu   sync.Mutex
	data U
}

// bindScope stores h in scope under key c, and arranges for h's
// registration to be removed from c.readers when either the scope is
// closed (deterministic) or h becomes unreachable (best-effort, GC-timed
// safety net) — the two approximations of "thread exit" spec section
// 4.2 requires a real platform TLS destructor for.
func (c *Container[T, U]) bindScope(scope *tlsim.Scope, h *readerHandle[U]) {
	scope.Store(c, h, func() {
		c.removeReader(scope)
	})

	runtime.AddCleanup(h, func(a cleanupArgs[T, U]) {
		a.c.removeReader(a.scope)
	}, cleanupArgs[T, U]{c: c, scope: scope})
}

// cleanupArgs is passed to runtime.AddCleanup. It must not itself
// reference the handle being cleaned up (that would prevent collection).
type cleanupArgs[T, U any] struct {
	c     *Container[T, U]
	scope *tlsim.Scope
}

func (c *Container[T, U]) removeReader(scope *tlsim.Scope) {
	c.registryMu.Lock()
	defer c.registryMu.Unlock()

	delete(c.readers, scope)
}

// drain waits for every reader that began its critical section before
// the publish in phase 3 to finish it, per spec section 4.1.2 phase 4.
// Readers whose handle has already been collected (scope dropped without
// an explicit Close) are pruned from the registry as they're found.
func (c *Container[T, U]) drain() {
	c.registryMu.Lock()
	defer c.registryMu.Unlock()

	for scope, weakHandle := range c.readers {
		h := weakHandle.Value()
		if h == nil {
			delete(c.readers, scope)

			continue
		}

		h.mu.Lock()
		h.mu.Unlock() //nolint:staticcheck // intentional lock/unlock to wait out a reader

	}
}

// ReaderCount returns the number of registrations currently in the
// registry. Intended for tests and diagnostics (spec section 8 scenario
// F); it is not part of the read/write hot path.
func (c *Container[T, U]) ReaderCount() int {
	c.registryMu.Lock()
	defer c.registryMu.Unlock()

	n := 0

	for scope, weakHandle := range c.readers {
		if weakHandle.Value() == nil {
			delete(c.readers, scope)

			continue
		}

		n++
	}

	return n
}
