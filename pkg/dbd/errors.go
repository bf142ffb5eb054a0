package dbd

import "errors"

// Sentinel errors returned by [Container] operations.
//
// Callers should use [errors.Is] to check error types:
//
//	guard, err := c.Read(scope)
//	if errors.Is(err, dbd.ErrPerThreadStorageUnavailable) {
//	    // container is unusable, stop calling Read on it
//	}
var (
	// ErrPerThreadStorageUnavailable indicates the container's reader
	// registry could not be initialized. Not recoverable: every
	// subsequent [Container.Read] call on this container will also fail.
	ErrPerThreadStorageUnavailable = errors.New("dbd: per-thread storage unavailable")

	// ErrReaderRegistrationFailed indicates a new reader could not be
	// registered: [Container.Read] returns it when scope is nil. Retrying
	// with the same scope fails the same way.
	ErrReaderRegistrationFailed = errors.New("dbd: reader registration failed")

	// ErrClosed indicates the container has already been closed.
	//
	// This is a programming error: callers must quiesce all readers and
	// writers before calling [Container.Close].
	ErrClosed = errors.New("dbd: closed")
)
