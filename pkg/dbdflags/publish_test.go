package dbdflags_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doublebuf/dbd/internal/tlsim"
	"github.com/doublebuf/dbd/pkg/dbd"
	"github.com/doublebuf/dbd/pkg/dbdflags"
)

func Test_Publish_RoutesVisibleToReaders(t *testing.T) {
	t.Parallel()

	c := dbd.NewContainer[dbdflags.RouteTable, struct{}]()
	defer c.Close()

	got := dbdflags.Publish(c, dbdflags.RouteTable{
		{Prefix: "/api", Backends: []string{"10.0.0.1"}},
	})
	require.Equal(t, uint64(1), got)

	g, err := c.Read(tlsim.NewScope())
	require.NoError(t, err)
	defer g.Close()

	require.Len(t, *g.Value(), 1)
	require.Equal(t, "/api", (*g.Value())[0].Prefix)
}

func Test_Publish_NoOpOnIdenticalTable(t *testing.T) {
	t.Parallel()

	c := dbd.NewContainer[dbdflags.RouteTable, struct{}]()
	defer c.Close()

	table := dbdflags.RouteTable{{Prefix: "/a", Backends: []string{"h"}}}

	require.Equal(t, uint64(1), dbdflags.Publish(c, table))
	require.Equal(t, uint64(0), dbdflags.Publish(c, table))
}

func Test_PublishFlags_PerReaderScratchPersistsAcrossReads(t *testing.T) {
	t.Parallel()

	c := dbd.NewContainer[dbdflags.FlagSet, int]()
	defer c.Close()

	dbdflags.PublishFlags(c, dbdflags.FlagSet{"beta": true})

	scope := tlsim.NewScope()

	g, err := c.Read(scope)
	require.NoError(t, err)

	*g.TLS() = 42

	require.True(t, (*g.Value())["beta"])
	g.Close()

	g2, err := c.Read(scope)
	require.NoError(t, err)
	defer g2.Close()

	require.Equal(t, 42, *g2.TLS())
}
