// Command dbdbench measures DBD read/write throughput under the
// high-read-contention shape of spec.md section 8 scenario C: N reader
// goroutines looping reads against a main goroutine alternating writes.
package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/doublebuf/dbd/internal/tlsim"
	"github.com/doublebuf/dbd/pkg/dbd"
)

type routingState struct {
	generation int64
	body       string
}

func main() {
	var (
		readers   = flag.IntP("readers", "n", 64, "number of concurrent reader goroutines")
		readsEach = flag.IntP("reads", "m", 200000, "reads performed by each reader goroutine")
		writes    = flag.IntP("writes", "w", 1000, "modify calls performed by the main goroutine")
	)

	flag.Parse()

	result, err := run(*readers, *readsEach, *writes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbdbench: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf(
		"readers=%d reads_each=%d writes=%d -> %d total reads in %s (%.0f reads/sec), %s/modify avg\n",
		*readers, *readsEach, *writes,
		result.totalReads, result.elapsed, result.readsPerSec,
		result.avgModifyLatency,
	)
}

type benchResult struct {
	totalReads       int64
	elapsed          time.Duration
	readsPerSec      float64
	avgModifyLatency time.Duration
}

func run(numReaders, readsEach, writes int) (benchResult, error) {
	c := dbd.NewContainer[routingState, struct{}]()
	defer c.Close()

	dbd.Modify(c, func(s *routingState) uint64 {
		s.generation = 0
		s.body = "initial"

		return 1
	})

	var (
		totalReads atomic.Int64
		wg         sync.WaitGroup
		start      = time.Now()
	)

	for i := 0; i < numReaders; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			scope := tlsim.NewScope()

			for j := 0; j < readsEach; j++ {
				g, err := c.Read(scope)
				if err != nil {
					return
				}

				_ = g.Value().body
				g.Close()
				totalReads.Add(1)
			}
		}()
	}

	var modifyTotal time.Duration

	for k := 0; k < writes; k++ {
		body := "even"
		if k%2 == 1 {
			body = "odd"
		}

		modifyStart := time.Now()

		dbd.Modify1(c, func(s *routingState, gen int) uint64 {
			s.generation = int64(gen)
			s.body = body

			return 1
		}, k)

		modifyTotal += time.Since(modifyStart)
	}

	wg.Wait()

	elapsed := time.Since(start)

	avgModify := time.Duration(0)
	if writes > 0 {
		avgModify = modifyTotal / time.Duration(writes)
	}

	return benchResult{
		totalReads:       totalReads.Load(),
		elapsed:          elapsed,
		readsPerSec:      float64(totalReads.Load()) / elapsed.Seconds(),
		avgModifyLatency: avgModify,
	}, nil
}
