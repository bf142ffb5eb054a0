// Command dbdseed writes a synthetic routing-table/feature-flag document
// to disk, atomically, for use as dbdctl/dbdbench fixtures.
package main

import (
	"fmt"
	"math/rand"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/doublebuf/dbd/pkg/dbdflags"
)

func main() {
	var (
		out      = flag.StringP("out", "o", "dbd-seed.json", "output document path")
		routes   = flag.IntP("routes", "r", 50, "number of routes to generate")
		backends = flag.IntP("backends", "b", 3, "backends per route")
		seed     = flag.Int64P("seed", "s", 1, "random seed")
	)

	flag.Parse()

	if err := run(*out, *routes, *backends, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "dbdseed: %v\n", err)
		os.Exit(1)
	}
}

func run(out string, numRoutes, backendsPerRoute int, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	doc := dbdflags.Document{
		Version: 1,
		Routes:  make(dbdflags.RouteTable, 0, numRoutes),
		Flags: dbdflags.FlagSet{
			"new_checkout":    rng.Intn(2) == 0,
			"canary_rollout":  rng.Intn(2) == 0,
			"strict_timeouts": true,
		},
	}

	for i := 0; i < numRoutes; i++ {
		backends := make([]string, backendsPerRoute)
		for j := range backends {
			backends[j] = fmt.Sprintf("10.%d.%d.%d:8080", rng.Intn(256), rng.Intn(256), j+1)
		}

		doc.Routes = append(doc.Routes, dbdflags.Route{
			Prefix:   fmt.Sprintf("/svc%03d", i),
			Backends: backends,
		})
	}

	if err := dbdflags.SaveDocument(out, doc); err != nil {
		return fmt.Errorf("seeding %s: %w", out, err)
	}

	fmt.Printf("wrote %d routes, %d flags -> %s\n", len(doc.Routes), len(doc.Flags), out)

	return nil
}
