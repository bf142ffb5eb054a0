package dbdflags

import "github.com/doublebuf/dbd/pkg/dbd"

// RouteContainer is a Container publishing a [RouteTable] with no
// per-reader scratch data.
type RouteContainer = dbd.Container[RouteTable, struct{}]

// FlagContainer is a Container publishing a [FlagSet], with a per-reader
// int scratch value modeling the request-local decision counter spec.md
// section 8 scenario D demonstrates.
type FlagContainer = dbd.Container[FlagSet, int]

// Publish replaces c's route table with routes in a single Modify call.
// It returns the magnitude Modify reports: 0 if routes is identical (by
// length and content) to what's already published, 1 otherwise.
func Publish(c *RouteContainer, routes RouteTable) uint64 {
	return dbd.Modify1(c, func(slot *RouteTable, routes RouteTable) uint64 {
		if routeTablesEqual(*slot, routes) {
			return 0
		}

		*slot = append(RouteTable(nil), routes...)

		return 1
	}, routes)
}

// PublishFlags replaces c's flag set in a single Modify call, following
// the same no-op-on-equal convention as [Publish].
func PublishFlags(c *FlagContainer, flags FlagSet) uint64 {
	return dbd.Modify1(c, func(slot *FlagSet, flags FlagSet) uint64 {
		if flagSetsEqual(*slot, flags) {
			return 0
		}

		next := make(FlagSet, len(flags))
		for k, v := range flags {
			next[k] = v
		}

		*slot = next

		return 1
	}, flags)
}

func routeTablesEqual(a, b RouteTable) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i].Prefix != b[i].Prefix || len(a[i].Backends) != len(b[i].Backends) {
			return false
		}

		for j := range a[i].Backends {
			if a[i].Backends[j] != b[i].Backends[j] {
				return false
			}
		}
	}

	return true
}

func flagSetsEqual(a, b FlagSet) bool {
	if len(a) != len(b) {
		return false
	}

	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}

	return true
}
