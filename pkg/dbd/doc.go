// Package dbd provides Doubly Buffered Data: a container that holds one
// logical value of an application type and supports a high rate of
// concurrent reads against rare writes.
//
// Readers take only an uncontended per-goroutine lock; writers pay the
// cost of synchronizing with every registered reader. DBD is intended for
// configuration-like state in request-serving systems — routing tables,
// backend lists, load-balancer state, feature flags — where readers vastly
// outnumber writers and readers must never observe a partially mutated
// value.
//
// # Basic usage
//
//	c := dbd.NewContainer[RouteTable, struct{}]()
//	defer c.Close()
//
//	scope := tlsim.NewScope()
//
//	dbd.Modify(c, func(t *RouteTable) uint64 {
//	    *t = newTable
//	    return 1
//	})
//
//	guard, err := c.Read(scope)
//	if err != nil {
//	    // handle [ErrPerThreadStorageUnavailable] / [ErrReaderRegistrationFailed]
//	}
//	defer guard.Close()
//	table := guard.Value()
//
// # Concurrency
//
//   - [Container.Read] is safe for concurrent use by any number of
//     goroutines, provided each goroutine uses its own [github.com/doublebuf/dbd/internal/tlsim.Scope].
//   - [Modify] and [ModifyWithForeground] serialize against each other.
//     After publishing, each call waits for every reader still holding a
//     guard; a [Container.Read] blocks only for the instant a writer holds
//     that reader's lock during this wait.
//   - fn passed to Modify/ModifyWithForeground is applied twice (once to
//     each slot) and must be deterministic on equivalent inputs.
//
// # Error handling
//
// [Container.Read] returns [ErrPerThreadStorageUnavailable] (unusable,
// do not retry) or [ErrReaderRegistrationFailed] (scope is nil).
// [Modify] never fails; it returns fn's result, or 0 if fn reported no
// effective change.
package dbd
