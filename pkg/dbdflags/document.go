// Package dbdflags supplements the DBD specification's named motivating
// use case — "configuration-like state... routing tables, backend
// lists, load-balancer state, feature flags" — with concrete value
// types meant to be published through a [github.com/doublebuf/dbd/pkg/dbd.Container].
//
// It is not part of the DBD core: it is a caller of pkg/dbd, the same
// way an application's own config package would be.
package dbdflags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// Route is a single routing-table entry.
type Route struct {
	Prefix   string   `json:"prefix"`
	Backends []string `json:"backends"`
}

// RouteTable is an ordered list of routes, the load-balancer-state shape
// spec.md section 1 names as DBD's target workload.
type RouteTable []Route

// FlagSet is a feature-flag map, the other shape spec.md section 1 names.
type FlagSet map[string]bool

// Document is the on-disk unit loaded and saved by [LoadDocument] and
// [SaveDocument]: a route table plus a flag set, versioned so a reader
// can detect which generation of config it last loaded.
type Document struct {
	Version int        `json:"version"`
	Routes  RouteTable `json:"routes"`
	Flags   FlagSet    `json:"flags"`
}

// LoadDocument reads a JSON-with-comments document from path, in the
// same hujson-standardize-then-unmarshal shape the teacher's config.go
// uses for its own config files.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled, same as config.go
	if err != nil {
		return Document{}, fmt.Errorf("reading document %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Document{}, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	var doc Document

	if err := json.Unmarshal(standardized, &doc); err != nil {
		return Document{}, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	return doc, nil
}

// SaveDocument writes doc to path using an atomic file replace, so a
// concurrent reader of the file (e.g. a second dbdctl process) never
// observes a torn write — the file-level echo of the guarantee
// [github.com/doublebuf/dbd/pkg/dbd.Container.Read] gives in memory.
func SaveDocument(path string, doc Document) error {
	sorted := make(RouteTable, len(doc.Routes))
	copy(sorted, doc.Routes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Prefix < sorted[j].Prefix })
	doc.Routes = sorted

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing document %s: %w", path, err)
	}

	return nil
}
