package dbd_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/doublebuf/dbd/internal/tlsim"
	"github.com/doublebuf/dbd/pkg/dbd"
)

// Test_Container_ReadStableAcrossWrite is spec section 8 scenario B: a
// held guard must not observe a concurrent writer's publication until
// the guard is released and a fresh Read is taken.
func Test_Container_ReadStableAcrossWrite(t *testing.T) {
	t.Parallel()

	c := dbd.NewContainer[record, struct{}]()
	defer c.Close()

	dbd.Modify(c, setRecord(1, "a"))

	g, err := c.Read(tlsim.NewScope())
	require.NoError(t, err)

	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)

		dbd.Modify(c, setRecord(2, "b"))
	}()

	// Give the writer every chance to race ahead if the guard were not
	// actually stable.
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.Equal(t, 1, g.Value().Index)
		require.Equal(t, "a", g.Value().Body)
	}

	g.Close()
	<-writerDone

	g2, err := c.Read(tlsim.NewScope())
	require.NoError(t, err)
	require.Equal(t, 2, g2.Value().Index)
	g2.Close()
}

// Test_Container_HighReadContention is spec section 8 scenario C.
func Test_Container_HighReadContention(t *testing.T) {
	t.Parallel()

	const (
		readers   = 64
		readsEach = 2000
		writes    = 100
	)

	c := dbd.NewContainer[versionedBody, struct{}]()
	defer c.Close()

	dbd.Modify(c, func(v *versionedBody) uint64 {
		v.version = 0
		v.body = "odd-0"

		return 1
	})

	var wg sync.WaitGroup

	errs := make(chan error, readers)

	for i := 0; i < readers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			scope := tlsim.NewScope()
			lastVersion := int64(-1)

			for j := 0; j < readsEach; j++ {
				g, err := c.Read(scope)
				if err != nil {
					errs <- fmt.Errorf("Read: %w", err)

					return
				}

				body := g.Value().body
				version := g.Value().version
				g.Close()

				if body != "odd" && body != "even" && body != "odd-0" {
					errs <- fmt.Errorf("observed torn body %q", body)

					return
				}

				if version < lastVersion {
					errs <- fmt.Errorf("observed non-monotonic version: %d after %d", version, lastVersion)

					return
				}

				lastVersion = version
			}
		}()
	}

	for k := 1; k <= writes; k++ {
		body := "even"
		if k%2 == 1 {
			body = "odd"
		}

		dbd.Modify1(c, func(v *versionedBody, k int) uint64 {
			v.version = int64(k)
			v.body = body

			return 1
		}, k)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

type versionedBody struct {
	version int64
	body    string
}

// Test_Container_WriterExclusion is spec section 8 property 4: two
// concurrent modify calls never have overlapping phase-2/phase-5
// executions on the same slot.
func Test_Container_WriterExclusion(t *testing.T) {
	t.Parallel()

	c := dbd.NewContainer[int, struct{}]()
	defer c.Close()

	var inside atomic.Int32

	var maxObserved atomic.Int32

	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			dbd.Modify(c, func(slot *int) uint64 {
				n := inside.Add(1)

				for {
					cur := maxObserved.Load()
					if n <= cur || maxObserved.CompareAndSwap(cur, n) {
						break
					}
				}

				defer inside.Add(-1)

				*slot = i

				return 1
			})
		}(i)
	}

	wg.Wait()

	require.LessOrEqual(t, maxObserved.Load(), int32(1))
}

// Test_Container_ThreadExitCleanup is spec section 8 scenario F.
func Test_Container_ThreadExitCleanup(t *testing.T) {
	t.Parallel()

	c := dbd.NewContainer[int, struct{}]()
	defer c.Close()

	const scopes = 1000

	var wg sync.WaitGroup

	for i := 0; i < scopes; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			scope := tlsim.NewScope()

			g, err := c.Read(scope)
			require.NoError(t, err)
			g.Close()

			scope.Close() // deterministic "thread exit"
		}()
	}

	wg.Wait()

	require.Equal(t, 0, c.ReaderCount())
}
