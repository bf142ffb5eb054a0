package dbd

// modify implements the five-phase publish/drain protocol of spec
// section 4.1.2 for a writer function with no extra bound arguments.
// fn returns 0 to mean "no effective change"; any other value is a
// caller-defined magnitude.
func (c *Container[T, U]) modify(fn func(slot *T) uint64) uint64 {
	c.writerMu.Lock()
	defer c.writerMu.Unlock()

	// Phase 1: select background. The writer lock already orders writers
	// against each other, so a relaxed load is sufficient here.
	bg := 1 - c.fgIndex.Load()

	// Phase 2: mutate background.
	r1 := fn(&c.slots[bg])
	if r1 == 0 {
		return 0
	}

	// Phase 3: publish. Release store pairs with the acquire load in Read.
	c.fgIndex.Store(bg)

	// Phase 4: drain readers that entered before the publish.
	c.drain()

	// Phase 5: mutate the now-background (former foreground) slot so both
	// slots converge.
	formerFG := 1 - c.fgIndex.Load()
	r2 := fn(&c.slots[formerFG])

	if r1 != r2 {
		c.reportInconsistency(r1, r2)
	}

	return r2
}

// modifyWithForeground is identical to modify except fn also receives a
// read-only pointer to the slot not currently being written (spec
// section 4.1.3).
func (c *Container[T, U]) modifyWithForeground(fn func(slot, other *T) uint64) uint64 {
	c.writerMu.Lock()
	defer c.writerMu.Unlock()

	fg := c.fgIndex.Load()
	bg := 1 - fg

	r1 := fn(&c.slots[bg], &c.slots[fg])
	if r1 == 0 {
		return 0
	}

	c.fgIndex.Store(bg)
	c.drain()

	// bg is now the new foreground; fg is now background.
	r2 := fn(&c.slots[fg], &c.slots[bg])

	if r1 != r2 {
		c.reportInconsistency(r1, r2)
	}

	return r2
}

// Modify applies fn to the container's background slot, publishes it,
// waits out in-flight readers, and re-applies fn to the former
// foreground slot so both slots converge. fn must be deterministic on
// equivalent inputs (spec section 9, "Writer's double-apply
// requirement"): it is applied twice per call.
//
// Modify is a free function, not a method, because Go methods cannot
// introduce additional type parameters beyond the receiver's — this is
// the idiomatic-Go shape of the source's templated 0-argument writer
// adaptor (spec section 4.1.4).
func Modify[T, U any](c *Container[T, U], fn func(slot *T) uint64) uint64 {
	return c.modify(fn)
}

// Modify1 is [Modify] for a writer function that additionally takes one
// argument, bound by closure capture into the invocation (the Go
// equivalent of the source's single-extra-argument adaptor).
func Modify1[T, U, A any](c *Container[T, U], fn func(slot *T, a A) uint64, a A) uint64 {
	return c.modify(func(slot *T) uint64 { return fn(slot, a) })
}

// Modify2 is [Modify] for a writer function that additionally takes two
// arguments.
func Modify2[T, U, A, B any](c *Container[T, U], fn func(slot *T, a A, b B) uint64, a A, b B) uint64 {
	return c.modify(func(slot *T) uint64 { return fn(slot, a, b) })
}

// ModifyWithForeground is [Modify] for a writer function whose new value
// depends on the previous value, without separately snapshotting it
// (spec section 4.1.3). other is the current foreground while slot
// (background) is written, and the new foreground once slot (now
// background again) is re-written.
func ModifyWithForeground[T, U any](c *Container[T, U], fn func(slot, other *T) uint64) uint64 {
	return c.modifyWithForeground(fn)
}

// ModifyWithForeground1 is [ModifyWithForeground] with one bound argument.
func ModifyWithForeground1[T, U, A any](c *Container[T, U], fn func(slot, other *T, a A) uint64, a A) uint64 {
	return c.modifyWithForeground(func(slot, other *T) uint64 { return fn(slot, other, a) })
}

// ModifyWithForeground2 is [ModifyWithForeground] with two bound arguments.
func ModifyWithForeground2[T, U, A, B any](
	c *Container[T, U], fn func(slot, other *T, a A, b B) uint64, a A, b B,
) uint64 {
	return c.modifyWithForeground(func(slot, other *T) uint64 { return fn(slot, other, a, b) })
}
