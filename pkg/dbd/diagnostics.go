package dbd

import (
	"fmt"
	"os"
)

// SetInconsistencyHandler installs fn to be called whenever
// Modify/ModifyWithForeground's two applications of a writer function
// return different results for equivalent inputs (spec section 7,
// WriterContractViolation). This is a caller bug, not a container
// fault: the mutation has already been applied to both slots by the
// time fn is invoked.
//
// Passing nil restores the default handler, which writes a single line
// to stderr — the pack has no logging framework anywhere, so this
// mirrors the way the teacher's own command-line tools report non-fatal
// anomalies without one.
//
// fn is invoked synchronously from inside Modify/ModifyWithForeground
// and must not call back into the container.
func (c *Container[T, U]) SetInconsistencyHandler(fn func(r1, r2 uint64)) {
	if fn == nil {
		c.inconsistency.Store(nil)

		return
	}

	c.inconsistency.Store(&fn)
}

func (c *Container[T, U]) reportInconsistency(r1, r2 uint64) {
	if p := c.inconsistency.Load(); p != nil {
		(*p)(r1, r2)

		return
	}

	fmt.Fprintf(os.Stderr, "dbd: writer fn returned inconsistent results across its two applications: %d != %d\n", r1, r2)
}
