// Package fabrictest provides a small device description shared by the
// engine, encoder and exporter tests.
package fabrictest

import (
	"testing"

	"github.com/robert-at-pretension-io/devres/internal/fabric"
)

// Description returns a three-tile device: two CLB tiles sharing one tile
// type (each with a SLICEL site that can also be used as SLICEX) and one
// IOB tile bonded to package pins.
//
// Nodes: CLB_X0Y0/OUT_E drives CLB_X1Y0/IN_W, and IOB_X0Y1/PAD_I drives
// CLB_X0Y0/IN_W.
func Description() *fabric.Description {
	return &fabric.Description{
		Name:   "xctest",
		Series: "TestSeries",
		SiteTypes: map[string]fabric.SiteTypeDef{
			"SLICEL": {
				BELs: []fabric.BELDef{
					portBEL("A1", "output"),
					portBEL("A2", "output"),
					portBEL("CLK", "output"),
					portBEL("AMUX", "input"),
					{Name: "A6LUT", Type: "LUT6", Class: "logic", Pins: []fabric.BELPinDef{
						{Name: "A1", Dir: "input"}, {Name: "A2", Dir: "input"}, {Name: "O6", Dir: "output"},
					}},
					{Name: "CLKINV", Type: "CLKINV", Class: "routing", Pins: []fabric.BELPinDef{
						{Name: "CLK", Dir: "input"}, {Name: "CLK_B", Dir: "input"}, {Name: "OUT", Dir: "output"},
					}, Inverter: &fabric.InverterDef{NonInverting: "CLK", Inverting: "CLK_B"}},
					{Name: "FF", Type: "FDRE", Class: "logic", Pins: []fabric.BELPinDef{
						{Name: "CK", Dir: "input"}, {Name: "Q", Dir: "output"},
					}},
				},
				SitePins: []fabric.SitePinDef{
					{Name: "A1", Dir: "input", BEL: "A1"},
					{Name: "A2", Dir: "input", BEL: "A2"},
					{Name: "CLK", Dir: "input", BEL: "CLK"},
					{Name: "AMUX", Dir: "output", BEL: "AMUX"},
				},
				SiteWires: []fabric.SiteWireDef{
					{Name: "A1", Pins: []fabric.PinRef{{BEL: "A1", Pin: "A1"}, {BEL: "A6LUT", Pin: "A1"}}},
					{Name: "A2", Pins: []fabric.PinRef{{BEL: "A2", Pin: "A2"}, {BEL: "A6LUT", Pin: "A2"}}},
					{Name: "CLK", Pins: []fabric.PinRef{{BEL: "CLK", Pin: "CLK"}, {BEL: "CLKINV", Pin: "CLK"}, {BEL: "CLKINV", Pin: "CLK_B"}}},
					{Name: "CK", Pins: []fabric.PinRef{{BEL: "CLKINV", Pin: "OUT"}, {BEL: "FF", Pin: "CK"}}},
					{Name: "O6", Pins: []fabric.PinRef{{BEL: "A6LUT", Pin: "O6"}, {BEL: "AMUX", Pin: "AMUX"}}},
				},
				SitePIPs: []fabric.SitePIPDef{
					{BEL: "CLKINV", In: "CLK", Out: "OUT"},
					{BEL: "CLKINV", In: "CLK_B", Out: "OUT"},
				},
			},
			"SLICEX": {
				BELs: []fabric.BELDef{
					portBEL("X1", "output"),
					portBEL("X2", "output"),
					portBEL("XOUT", "input"),
					{Name: "XLUT", Type: "LUT2", Class: "logic", Pins: []fabric.BELPinDef{
						{Name: "I0", Dir: "input"}, {Name: "I1", Dir: "input"}, {Name: "O", Dir: "output"},
					}},
				},
				SitePins: []fabric.SitePinDef{
					{Name: "X1", Dir: "input", BEL: "X1"},
					{Name: "X2", Dir: "input", BEL: "X2"},
					{Name: "XOUT", Dir: "output", BEL: "XOUT"},
				},
				SiteWires: []fabric.SiteWireDef{
					{Name: "X1", Pins: []fabric.PinRef{{BEL: "X1", Pin: "X1"}, {BEL: "XLUT", Pin: "I0"}}},
					{Name: "X2", Pins: []fabric.PinRef{{BEL: "X2", Pin: "X2"}, {BEL: "XLUT", Pin: "I1"}}},
					{Name: "XO", Pins: []fabric.PinRef{{BEL: "XLUT", Pin: "O"}, {BEL: "XOUT", Pin: "XOUT"}}},
				},
				PrimaryPins: map[string]string{"X1": "A1", "X2": "A2", "XOUT": "AMUX"},
			},
			"IOB": {
				BELs: []fabric.BELDef{
					portBEL("I", "input"),
					{Name: "PAD", Type: "PAD", Class: "port", Pins: []fabric.BELPinDef{{Name: "PAD", Dir: "inout"}}},
					{Name: "INBUF", Type: "IBUF", Class: "logic", Pins: []fabric.BELPinDef{
						{Name: "PAD", Dir: "input"}, {Name: "O", Dir: "output"},
					}},
				},
				SitePins: []fabric.SitePinDef{
					{Name: "I", Dir: "output", BEL: "I"},
				},
				SiteWires: []fabric.SiteWireDef{
					{Name: "PAD", Pins: []fabric.PinRef{{BEL: "PAD", Pin: "PAD"}, {BEL: "INBUF", Pin: "PAD"}}},
					{Name: "I", Pins: []fabric.PinRef{{BEL: "INBUF", Pin: "O"}, {BEL: "I", Pin: "I"}}},
				},
			},
		},
		TileTypes: map[string]fabric.TileTypeDef{
			"CLB": {
				Wires: []string{"A1_W", "A2_W", "CLK_W", "AMUX_W", "OUT_E", "IN_W"},
				PIPs: []fabric.PIPDef{
					{Wire0: "IN_W", Wire1: "A1_W"},
					{Wire0: "IN_W", Wire1: "A2_W", Kind: "directional_buffered21"},
					{Wire0: "AMUX_W", Wire1: "OUT_E", Kind: "bidirectional_buffered20"},
					{Wire0: "CLK_W", Wire1: "OUT_E", Kind: "bidirectional_buffered21_buffered20"},
					{Wire0: "A1_W", Wire1: "AMUX_W", RouteThru: []fabric.RouteThruPin{
						{Site: 0, BEL: "A6LUT", Pin: "A1"},
						{Site: 0, BEL: "AMUX", Pin: "AMUX"},
						{Site: 0, BEL: "A6LUT", Pin: "O6"},
					}},
				},
				Sites: []fabric.SiteSlotDef{{
					Type:     "SLICEL",
					AltTypes: []string{"SLICEX"},
					Pins: []fabric.SlotPinDef{
						{Pin: "A1", Wire: "A1_W"},
						{Pin: "A2", Wire: "A2_W"},
						{Pin: "CLK", Wire: "CLK_W"},
						{Pin: "AMUX", Wire: "AMUX_W"},
					},
				}},
			},
			"IOB_T": {
				Wires: []string{"PAD_I"},
				Sites: []fabric.SiteSlotDef{{
					Type: "IOB",
					Pins: []fabric.SlotPinDef{{Pin: "I", Wire: "PAD_I"}},
				}},
			},
		},
		Tiles: []fabric.TileDef{
			{Name: "CLB_X0Y0", Type: "CLB", Row: 0, Col: 0, Sites: []fabric.SiteDef{{Name: "SLICE_X0Y0"}}},
			{Name: "CLB_X1Y0", Type: "CLB", Row: 0, Col: 1, Sites: []fabric.SiteDef{{Name: "SLICE_X1Y0"}}},
			{Name: "IOB_X0Y1", Type: "IOB_T", Row: 1, Col: 0, Sites: []fabric.SiteDef{{Name: "IOB_X0Y1"}}},
		},
		Nodes: [][]fabric.WireRef{
			{{Tile: "CLB_X0Y0", Wire: "OUT_E"}, {Tile: "CLB_X1Y0", Wire: "IN_W"}},
			{{Tile: "IOB_X0Y1", Wire: "PAD_I"}, {Tile: "CLB_X0Y0", Wire: "IN_W"}},
		},
		Packages: []fabric.PackageDef{
			{
				Name: "tpkg2",
				Pins: []fabric.PackagePinDef{{Name: "B1"}},
			},
			{
				Name: "tpkg1",
				Pins: []fabric.PackagePinDef{
					{Name: "A2"},
					{Name: "A1", Site: "IOB_X0Y1", BEL: "PAD"},
				},
				Grades: []fabric.GradeDef{
					{Name: "tpkg1-2", Speed: "2", Temperature: "I"},
					{Name: "tpkg1-1", Speed: "1", Temperature: "C"},
				},
			},
		},
	}
}

func portBEL(name, dir string) fabric.BELDef {
	return fabric.BELDef{Name: name, Type: "PORT", Class: "port", Pins: []fabric.BELPinDef{{Name: name, Dir: dir}}}
}

// Memory builds a Memory fabric from desc, failing the test on error.
func Memory(t testing.TB, desc *fabric.Description) *fabric.Memory {
	t.Helper()
	m, err := fabric.NewMemory(desc)
	if err != nil {
		t.Fatalf("building fabric: %v", err)
	}
	return m
}
