package dbd_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doublebuf/dbd/internal/tlsim"
	"github.com/doublebuf/dbd/pkg/dbd"
)

// Test_Container_Read_RegistersOncePerScope verifies that a scope reused
// across multiple Read calls reuses the same registration rather than
// accumulating one per call — the "registration is lazy" boundary
// behavior from spec section 8.
func Test_Container_Read_RegistersOncePerScope(t *testing.T) {
	t.Parallel()

	c := dbd.NewContainer[int, struct{}]()
	defer c.Close()

	scope := tlsim.NewScope()

	for i := 0; i < 5; i++ {
		g, err := c.Read(scope)
		require.NoError(t, err)
		g.Close()
	}

	require.Equal(t, 1, c.ReaderCount())
}

// Test_Container_Scope_Close_RemovesRegistration is the deterministic
// analogue of "a thread exiting while no guard is outstanding removes
// its registration cleanly".
func Test_Container_Scope_Close_RemovesRegistration(t *testing.T) {
	t.Parallel()

	c := dbd.NewContainer[int, struct{}]()
	defer c.Close()

	scope := tlsim.NewScope()

	g, err := c.Read(scope)
	require.NoError(t, err)
	g.Close()

	require.Equal(t, 1, c.ReaderCount())

	scope.Close()

	require.Equal(t, 0, c.ReaderCount())
}

// Test_Container_PerThreadUserData is spec section 8 scenario D.
func Test_Container_PerThreadUserData(t *testing.T) {
	t.Parallel()

	c := dbd.NewContainer[int, int]()
	defer c.Close()

	dbd.Modify(c, func(slot *int) uint64 {
		*slot = 1

		return 1
	})

	run := func(scope *tlsim.Scope) int {
		for i := 0; i < 100; i++ {
			g, err := c.Read(scope)
			require.NoError(t, err)
			*g.TLS()++
			g.Close()
		}

		g, err := c.Read(scope)
		require.NoError(t, err)

		defer g.Close()

		return *g.TLS()
	}

	done := make(chan int, 2)

	go func() { done <- run(tlsim.NewScope()) }()
	go func() { done <- run(tlsim.NewScope()) }()

	first, second := <-done, <-done
	require.Equal(t, 100, first)
	require.Equal(t, 100, second)
}

// Test_Container_Close_DetachesRegistrations mirrors the lifecycle
// contract: Close never fails, and registrations no longer appear in
// ReaderCount afterwards. A late Scope.Close for a scope registered
// before Close must not panic (the back-pointer is effectively gone).
func Test_Container_Close_DetachesRegistrations(t *testing.T) {
	t.Parallel()

	c := dbd.NewContainer[int, struct{}]()

	scope := tlsim.NewScope()

	g, err := c.Read(scope)
	require.NoError(t, err)
	g.Close()

	require.NoError(t, c.Close())
	require.Equal(t, 0, c.ReaderCount())

	require.NotPanics(t, func() {
		scope.Close()
	})
}
