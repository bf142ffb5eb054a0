package dbd

import (
	"sync"
	"sync/atomic"
	"weak"

	"github.com/doublebuf/dbd/internal/tlsim"
)

// Container holds one logical value of type T and publishes it to
// concurrent readers with minimal read-side contention. See the package
// doc for the publication protocol.
//
// A Container must be obtained via [NewContainer]; the zero value has no
// reader registry and every [Container.Read] on it fails with
// [ErrPerThreadStorageUnavailable].
type Container[T, U any] struct {
	_ [0]func() // prevent accidental copies that would duplicate the mutexes

	// mu guards closed. See the package-level locking-order comment below.
	mu     sync.RWMutex
	closed bool

	// slots holds the two value storage slots. fgIndex selects which one
	// is foreground; readers only ever touch slots[fgIndex.Load()].
	slots   [2]T
	fgIndex atomic.Int32

	// writerMu serializes Modify/ModifyWithForeground calls: at most one
	// writer is inside the protocol at a time (spec invariant 4).
	writerMu sync.Mutex

	// registryMu guards readers. Writers hold it only to iterate for the
	// drain phase; readers hold it only to insert or remove a registration.
	registryMu sync.Mutex
	readers    map[*tlsim.Scope]weak.Pointer[readerHandle[U]]

	inconsistency atomic.Pointer[func(r1, r2 uint64)]
}

// Locking order: Container.mu -> registryMu, and writerMu -> registryMu.
// A single Modify call holds writerMu for its whole duration and
// additionally takes registryMu only for the drain phase (never the
// reverse order).

// NewContainer constructs an empty Container. Both slots are
// zero-initialized, so a reader calling Read before any Modify observes
// a defined, zero T.
func NewContainer[T, U any]() *Container[T, U] {
	return &Container[T, U]{
		readers: make(map[*tlsim.Scope]weak.Pointer[readerHandle[U]], 64),
	}
}

// Close detaches every outstanding reader registration and marks the
// container unusable. Close never fails and is idempotent.
//
// Close does not wait for outstanding [ReadGuard]s to be released; the
// caller must ensure no reader or writer will touch the container again
// before calling Close, per the package's lifecycle contract.
func (c *Container[T, U]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	c.registryMu.Lock()
	c.readers = nil
	c.registryMu.Unlock()

	return nil
}

// Read registers scope (if this is its first Read on c), acquires its
// reader lock, and returns a guard pointing at the current foreground
// slot. The returned guard must be closed to release the reader lock.
//
// Read fails with [ErrClosed] if the container has been closed,
// [ErrPerThreadStorageUnavailable] if the container's reader registry
// was never initialized (a zero-value Container), or
// [ErrReaderRegistrationFailed] if scope is nil.
func (c *Container[T, U]) Read(scope *tlsim.Scope) (*ReadGuard[T, U], error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}

	h, err := c.handleFor(scope)
	if err != nil {
		return nil, err
	}

	h.mu.Lock() // begin-read

	idx := c.fgIndex.Load() // acquire: pairs with the release Store in modify

	return &ReadGuard[T, U]{slot: &c.slots[idx], handle: h}, nil
}

// handleFor resolves scope's readerHandle on this container, creating and
// registering one on first use.
func (c *Container[T, U]) handleFor(scope *tlsim.Scope) (*readerHandle[U], error) {
	if scope == nil {
		return nil, ErrReaderRegistrationFailed
	}

	if v, ok := scope.Load(c); ok {
		h, ok := v.(*readerHandle[U])
		if !ok {
			return nil, ErrReaderRegistrationFailed
		}

		return h, nil
	}

	c.registryMu.Lock()

	if c.readers == nil {
		c.registryMu.Unlock()

		return nil, ErrPerThreadStorageUnavailable
	}

	h := &readerHandle[U]{}
	c.readers[scope] = weak.Make(h)

	c.registryMu.Unlock()

	c.bindScope(scope, h)

	return h, nil
}
