package fabric_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/devres/internal/fabric"
	"github.com/robert-at-pretension-io/devres/internal/fabric/fabrictest"
)

func TestMemoryTilesAndWires(t *testing.T) {
	m := fabrictest.Memory(t, fabrictest.Description())

	tiles := m.Tiles()
	require.Len(t, tiles, 3)
	for i, tile := range tiles {
		assert.Equal(t, fabric.TileID(i), tile.ID)
		got, ok := m.Tile(tile.ID)
		require.True(t, ok)
		assert.Same(t, tile, got)
	}
	_, ok := m.Tile(fabric.TileID(3))
	assert.False(t, ok)

	clb := tiles[0]
	assert.Equal(t, 6, m.WireCount(clb))
	assert.Equal(t, "OUT_E", m.WireName(clb, 4))

	pips := m.PIPs(clb)
	require.Len(t, pips, 5)
	assert.Equal(t, 5, pips[0].Wire0)
	assert.Equal(t, 0, pips[0].Wire1)
	assert.False(t, pips[0].Bidirectional())
	assert.True(t, pips[2].Bidirectional())
	assert.True(t, pips[4].IsRouteThru())
	assert.False(t, pips[3].IsRouteThru())
}

func TestMemoryNodes(t *testing.T) {
	m := fabrictest.Memory(t, fabrictest.Description())
	tiles := m.Tiles()

	inW := fabric.Wire{Tile: tiles[1].ID, Index: 5}
	rep, ok := m.Node(inW)
	require.True(t, ok)
	assert.Equal(t, fabric.Wire{Tile: tiles[0].ID, Index: 4}, rep)
	assert.Equal(t, []fabric.Wire{rep, inW}, m.NodeWires(rep))

	_, ok = m.Node(fabric.Wire{Tile: tiles[0].ID, Index: 0})
	assert.False(t, ok, "A1_W belongs to no node")
}

func TestMemorySiteView(t *testing.T) {
	m := fabrictest.Memory(t, fabrictest.Description())
	site := m.Tiles()[0].Sites[0]

	v, err := m.SiteView(site, "SLICEL")
	require.NoError(t, err)
	assert.Equal(t, 2, v.LastInput)
	assert.Equal(t, []string{"A1", "A2", "CLK", "AMUX"}, v.SitePins)
	require.Len(t, v.BELs, 7)

	inv := v.BELs[5]
	require.True(t, inv.CanInvert())
	assert.Equal(t, "CLK_B", inv.Inverting.Name)

	pips := v.SitePIPsFor(inv.Pins[1])
	require.Len(t, pips, 1)
	assert.Same(t, inv.Pins[2], pips[0].Out)

	bel, ok := v.SitePinBEL("AMUX")
	require.True(t, ok)
	assert.Equal(t, fabric.ClassPort, bel.Class)

	assert.Equal(t, 1, m.LiveViews())
	m.ReleaseSiteView(v)
	assert.Equal(t, 0, m.LiveViews())
}

func TestSitePIPsForReturnsEveryPIP(t *testing.T) {
	desc := fabrictest.Description()
	slicel := desc.SiteTypes["SLICEL"]
	slicel.BELs[5].Pins = append(slicel.BELs[5].Pins, fabric.BELPinDef{Name: "OUT2", Dir: "output"})
	slicel.SitePIPs = append(slicel.SitePIPs, fabric.SitePIPDef{BEL: "CLKINV", In: "CLK", Out: "OUT2"})
	desc.SiteTypes["SLICEL"] = slicel
	m := fabrictest.Memory(t, desc)

	v, err := m.SiteView(m.Tiles()[0].Sites[0], "SLICEL")
	require.NoError(t, err)
	defer m.ReleaseSiteView(v)

	inv := v.BELs[5]
	pips := v.SitePIPsFor(inv.Pins[0])
	require.Len(t, pips, 2)
	assert.Equal(t, "OUT", pips[0].Out.Name)
	assert.Equal(t, "OUT2", pips[1].Out.Name)
	assert.Empty(t, v.SitePIPsFor(inv.Pins[3]))
}

func TestMemorySiteViewPrimaryPins(t *testing.T) {
	desc := fabrictest.Description()
	desc.Tiles[1].Sites[0].PrimaryPins = map[string]map[string]string{
		"SLICEX": {"X2": "CLK"},
	}
	m := fabrictest.Memory(t, desc)

	v0, err := m.SiteView(m.Tiles()[0].Sites[0], "SLICEX")
	require.NoError(t, err)
	v1, err := m.SiteView(m.Tiles()[1].Sites[0], "SLICEX")
	require.NoError(t, err)

	assert.Equal(t, "A2", v0.PrimarySitePinName("X2"))
	assert.Equal(t, "CLK", v1.PrimarySitePinName("X2"))
	assert.Equal(t, "A1", v1.PrimarySitePinName("X1"))
	assert.Equal(t, "NOPE", v1.PrimarySitePinName("NOPE"))

	m.ReleaseSiteView(v0)
	m.ReleaseSiteView(v1)
	assert.Equal(t, 0, m.LiveViews())
}

func TestMemoryPackages(t *testing.T) {
	m := fabrictest.Memory(t, fabrictest.Description())
	assert.Equal(t, []string{"tpkg2", "tpkg1"}, m.Packages())

	pkg, ok := m.Package("tpkg1")
	require.True(t, ok)
	require.Len(t, pkg.Pins, 2)

	site, bound := pkg.Pins[1].BoundSite()
	assert.True(t, bound)
	assert.Equal(t, "IOB_X0Y1", site)
	_, bound = pkg.Pins[0].BoundBEL()
	assert.False(t, bound)
}

func TestNewMemoryRejectsInconsistentDescriptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *fabric.Description)
		want   string
	}{
		{
			name:   "unknown tile type",
			mutate: func(d *fabric.Description) { d.Tiles[0].Type = "NOPE" },
			want:   "unknown tile type",
		},
		{
			name:   "duplicate tile",
			mutate: func(d *fabric.Description) { d.Tiles[1].Name = d.Tiles[0].Name },
			want:   "duplicate tile name",
		},
		{
			name:   "site count mismatch",
			mutate: func(d *fabric.Description) { d.Tiles[2].Sites = nil },
			want:   "slots",
		},
		{
			name: "node wire unknown",
			mutate: func(d *fabric.Description) {
				d.Nodes[0][1].Wire = "MISSING"
			},
			want: "has no wire",
		},
		{
			name: "wire in two nodes",
			mutate: func(d *fabric.Description) {
				d.Nodes = append(d.Nodes, []fabric.WireRef{{Tile: "CLB_X1Y0", Wire: "IN_W"}})
			},
			want: "belongs to two nodes",
		},
		{
			name: "bad pip kind",
			mutate: func(d *fabric.Description) {
				tt := d.TileTypes["CLB"]
				tt.PIPs = append([]fabric.PIPDef(nil), tt.PIPs...)
				tt.PIPs[0].Kind = "sideways"
				d.TileTypes["CLB"] = tt
			},
			want: "unknown pip kind",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			desc := fabrictest.Description()
			tc.mutate(desc)
			_, err := fabric.NewMemory(desc)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.want), "error %q does not mention %q", err, tc.want)
		})
	}
}

func TestSiteViewRejectsInputAfterOutput(t *testing.T) {
	desc := fabrictest.Description()
	st := desc.SiteTypes["IOB"]
	st.BELs = append(st.BELs, fabric.BELDef{Name: "T", Type: "PORT", Class: "port", Pins: []fabric.BELPinDef{{Name: "T", Dir: "output"}}})
	st.SitePins = append(st.SitePins, fabric.SitePinDef{Name: "T", Dir: "input", BEL: "T"})
	desc.SiteTypes["IOB"] = st

	m := fabrictest.Memory(t, desc)
	_, err := m.SiteView(m.Tiles()[2].Sites[0], "IOB")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "follows an output")
	assert.Equal(t, 0, m.LiveViews())
}

func TestDecode(t *testing.T) {
	desc, err := fabric.Decode([]byte(`{"name":"d","series":"s","site_types":{},"tile_types":{"T":{"wires":["W"]}},"tiles":[{"name":"T0","type":"T","row":3,"col":4}]}`))
	require.NoError(t, err)
	m, err := fabric.NewMemory(desc)
	require.NoError(t, err)
	assert.Equal(t, "d", m.Name())
	assert.Equal(t, 3, m.Tiles()[0].Row)

	_, err = fabric.Decode([]byte(`{`))
	assert.Error(t, err)
}
