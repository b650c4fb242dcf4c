package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/devres/internal/devres"
	"github.com/robert-at-pretension-io/devres/internal/fabric/fabrictest"
	"github.com/robert-at-pretension-io/devres/internal/interchange"
	"github.com/robert-at-pretension-io/devres/internal/netlist/netlisttest"
)

func buildTables(t *testing.T) Tables {
	t.Helper()
	m := fabrictest.Memory(t, fabrictest.Description())
	dev, err := devres.NewBuilder(m, netlisttest.Libraries()).Build()
	require.NoError(t, err)
	return BuildTables(dev, "xctest-1", interchange.Encode(dev))
}

func TestBuildTables(t *testing.T) {
	tables := buildTables(t)

	assert.Equal(t, "xctest", tables.Device)
	assert.Equal(t, "xctest-1", tables.Part)
	assert.Len(t, tables.Fingerprint, 16)
	assert.Equal(t, 3, tables.Counts.Tiles)
	assert.Equal(t, 13, tables.Counts.Wires)
	assert.Equal(t, 2, tables.Counts.Nodes)
	assert.Positive(t, tables.Counts.Bytes)

	require.Len(t, tables.SiteTypes, 3)
	slicel := tables.SiteTypes[1]
	assert.Equal(t, SiteTypeRow{
		Name: "SLICEL", BELs: 7, BELPins: 12, SitePins: 4, LastInput: 2,
		SiteWires: 5, SitePIPs: 2, AltTypes: []string{"SLICEX"},
	}, slicel)
	assert.Empty(t, tables.SiteTypes[2].AltTypes)

	require.Len(t, tables.TileTypes, 2)
	assert.Equal(t, TileTypeRow{Name: "CLB", Wires: 6, PIPs: 5, RouteThrus: 1, Sites: 1, MaxPIPWire: 5}, tables.TileTypes[0])
	assert.Equal(t, -1, tables.TileTypes[1].MaxPIPWire)

	require.Len(t, tables.Tiles, 3)
	assert.Equal(t, TileRow{Name: "IOB_X0Y1", Type: "IOB_T", Row: 1, Col: 0}, tables.Tiles[2])

	assert.Equal(t, []PackageRow{
		{Name: "tpkg1", Pins: 2, BoundPins: 1, Grades: 2},
		{Name: "tpkg2", Pins: 1, BoundPins: 0, Grades: 0},
	}, tables.Packages)

	assert.Equal(t, []InversionRow{
		{Cell: "LUT2", Pin: "I0"},
		{Cell: "FDRE", Pin: "C"},
		{Cell: "FDRE", Pin: "D"},
	}, tables.Inversions)
}

func TestFingerprintStable(t *testing.T) {
	a := buildTables(t)
	b := buildTables(t)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, Fingerprint([]byte("a")), Fingerprint([]byte("b")))
}

func TestBuildTablesWithoutEncoding(t *testing.T) {
	m := fabrictest.Memory(t, fabrictest.Description())
	dev, err := devres.NewBuilder(m, nil).Build()
	require.NoError(t, err)

	tables := BuildTables(dev, "", nil)
	assert.Empty(t, tables.Fingerprint)
	assert.Zero(t, tables.Counts.Bytes)
	assert.NotNil(t, tables.Inversions)
}
