package netlist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/devres/internal/enumerator"
	"github.com/robert-at-pretension-io/devres/internal/netlist"
	"github.com/robert-at-pretension-io/devres/internal/netlist/netlisttest"
)

func name(t *testing.T, strs *enumerator.Registry[string], idx uint32) string {
	t.Helper()
	s, err := strs.Get(int(idx))
	require.NoError(t, err)
	return s
}

func TestPrimitivesDropMacroDuplicates(t *testing.T) {
	libs := netlisttest.Libraries()

	var prims []string
	for _, c := range libs.Primitives() {
		prims = append(prims, c.Name)
	}
	assert.Equal(t, []string{"FDRE", "LUT2", "INBUF", "IBUFCTRL"}, prims)
	assert.Len(t, libs.Cells(), 6)

	assert.Equal(t, "LUT2", libs.CollapsedName("LUT2_PAIR"))
	assert.Equal(t, "IBUF", libs.CollapsedName("IBUF"))
}

func TestWriterResolvesInstancesToMacros(t *testing.T) {
	strs := enumerator.New[string]()
	nl, err := netlist.NewWriter(strs).Write("PrimitiveLibs", netlisttest.Libraries())
	require.NoError(t, err)

	assert.Equal(t, "PrimitiveLibs", name(t, strs, nl.Name))
	require.Len(t, nl.CellDecls, 6)
	require.Len(t, nl.Cells, 6)

	ibuf := nl.CellDecls[4]
	assert.Equal(t, "IBUF", name(t, strs, ibuf.Name))
	assert.Equal(t, netlist.MacrosLibrary, name(t, strs, ibuf.Lib))

	pair := nl.Cells[5]
	require.Len(t, pair.Insts, 2)
	b := nl.Insts[pair.Insts[1]]
	assert.Equal(t, "B", name(t, strs, b.Name))
	assert.Equal(t, uint32(4), b.Cell, "IBUF instance must point at the macro definition")

	l := nl.Insts[pair.Insts[0]]
	assert.Equal(t, netlist.PrimitivesLibrary, name(t, strs, nl.CellDecls[l.Cell].Lib))
}

func TestWriterNets(t *testing.T) {
	strs := enumerator.New[string]()
	nl, err := netlist.NewWriter(strs).Write("PrimitiveLibs", netlisttest.Libraries())
	require.NoError(t, err)

	ibuf := nl.Cells[4]
	require.Len(t, ibuf.Nets, 3)

	in := ibuf.Nets[0]
	assert.Equal(t, "I", name(t, strs, in.Name))
	require.Len(t, in.PortInsts, 2)

	_, ok := in.PortInsts[0].Inst.Get()
	assert.False(t, ok, "cell port has no instance")
	assert.Equal(t, "I", name(t, strs, nl.Ports[in.PortInsts[0].Port].Name))

	inst, ok := in.PortInsts[1].Inst.Get()
	require.True(t, ok)
	assert.Equal(t, "INBUF_INST", name(t, strs, nl.Insts[inst].Name))
	assert.Equal(t, "PAD", name(t, strs, nl.Ports[in.PortInsts[1].Port].Name))

	ctrl := nl.Insts[ibuf.Insts[1]]
	require.Len(t, ctrl.Props, 2)
	assert.Equal(t, "DELAY_VALUE", name(t, strs, ctrl.Props[0].Key))
	assert.Equal(t, "USE_IBUFDISABLE", name(t, strs, ctrl.Props[1].Key))
}

func TestWriterSharesRegistry(t *testing.T) {
	strs := enumerator.New[string]()
	pre := strs.Insert("LUT2")

	nl, err := netlist.NewWriter(strs).Write("PrimitiveLibs", netlisttest.Libraries())
	require.NoError(t, err)
	assert.Equal(t, uint32(pre), nl.CellDecls[1].Name)
}

func TestWriterErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(l *netlist.Libraries)
	}{
		{"unknown instance cell", func(l *netlist.Libraries) { l.Macros[1].Instances[0].Cell = "MISSING" }},
		{"unknown net instance", func(l *netlist.Libraries) { l.Macros[1].Nets[0].Ports[1].Instance = "Z" }},
		{"unknown instance port", func(l *netlist.Libraries) { l.Macros[1].Nets[0].Ports[1].Port = "Z" }},
		{"unknown cell port", func(l *netlist.Libraries) { l.Macros[1].Nets[0].Ports[0].Port = "Z" }},
		{"bad direction", func(l *netlist.Libraries) { l.Prims[0].Ports[0].Dir = "sideways" }},
		{"duplicate cell", func(l *netlist.Libraries) { l.Prims = append(l.Prims, l.Prims[0]) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			libs := netlisttest.Libraries()
			tc.mutate(libs)
			_, err := netlist.NewWriter(enumerator.New[string]()).Write("x", libs)
			assert.Error(t, err)
		})
	}
}
