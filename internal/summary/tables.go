// Package summary flattens a built device into relational tables used by
// the integrity policy, the summary contract and run-to-run deltas.
package summary

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/robert-at-pretension-io/devres/internal/devres"
)

// Tables is the relational view of one device artifact.
// Each slice is a relation (table) with flat rows.
type Tables struct {
	Device      string         `json:"device"`
	Part        string         `json:"part"`
	Fingerprint string         `json:"fingerprint"`
	Counts      Counts         `json:"counts"`
	SiteTypes   []SiteTypeRow  `json:"site_types"`
	TileTypes   []TileTypeRow  `json:"tile_types"`
	Tiles       []TileRow      `json:"tiles"`
	Packages    []PackageRow   `json:"packages"`
	Inversions  []InversionRow `json:"inversions"`
}

type Counts struct {
	Strings        int `json:"strings"`
	SiteTypes      int `json:"site_types"`
	TileTypes      int `json:"tile_types"`
	Tiles          int `json:"tiles"`
	Wires          int `json:"wires"`
	Nodes          int `json:"nodes"`
	Packages       int `json:"packages"`
	ParameterDefs  int `json:"parameter_defs"`
	CellInversions int `json:"cell_inversions"`
	ExceptionMap   int `json:"exception_map"`
	Bytes          int `json:"bytes"`
}

type SiteTypeRow struct {
	Name      string   `json:"name"`
	BELs      int      `json:"bels"`
	BELPins   int      `json:"bel_pins"`
	SitePins  int      `json:"site_pins"`
	LastInput int      `json:"last_input"`
	SiteWires int      `json:"site_wires"`
	SitePIPs  int      `json:"site_pips"`
	AltTypes  []string `json:"alt_types"`
}

// TileTypeRow.MaxPIPWire is the largest wire index any PIP uses, or -1.
type TileTypeRow struct {
	Name       string `json:"name"`
	Wires      int    `json:"wires"`
	PIPs       int    `json:"pips"`
	RouteThrus int    `json:"route_thrus"`
	Sites      int    `json:"sites"`
	MaxPIPWire int    `json:"max_pip_wire"`
}

type TileRow struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

type PackageRow struct {
	Name      string `json:"name"`
	Pins      int    `json:"pins"`
	BoundPins int    `json:"bound_pins"`
	Grades    int    `json:"grades"`
}

type InversionRow struct {
	Cell string `json:"cell"`
	Pin  string `json:"pin"`
}

// Fingerprint returns the hex xxhash of an encoded artifact.
func Fingerprint(encoded []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(encoded))
}

// BuildTables flattens dev. encoded is the serialized artifact the
// fingerprint and byte count are taken from; it may be nil.
func BuildTables(dev *devres.Device, part string, encoded []byte) Tables {
	t := emptyTables()
	t.Device = dev.Str(dev.Name)
	t.Part = part
	if encoded != nil {
		t.Fingerprint = Fingerprint(encoded)
	}
	t.Counts = Counts{
		Strings:        len(dev.Strings),
		SiteTypes:      len(dev.SiteTypes),
		TileTypes:      len(dev.TileTypes),
		Tiles:          len(dev.Tiles),
		Wires:          len(dev.Wires),
		Nodes:          len(dev.Nodes),
		Packages:       len(dev.Packages),
		ParameterDefs:  len(dev.ParameterDefs),
		CellInversions: len(dev.CellInversions),
		ExceptionMap:   len(dev.ExceptionMap),
		Bytes:          len(encoded),
	}

	for _, st := range dev.SiteTypes {
		row := SiteTypeRow{
			Name:      dev.Str(st.Name),
			BELs:      len(st.BELs),
			BELPins:   len(st.BELPins),
			SitePins:  len(st.Pins),
			LastInput: int(st.LastInput),
			SiteWires: len(st.SiteWires),
			SitePIPs:  len(st.SitePIPs),
			AltTypes:  []string{},
		}
		for _, alt := range st.AltSiteTypes {
			if int(alt) < len(dev.SiteTypes) {
				row.AltTypes = append(row.AltTypes, dev.Str(dev.SiteTypes[alt].Name))
			}
		}
		t.SiteTypes = append(t.SiteTypes, row)
	}

	for _, tt := range dev.TileTypes {
		row := TileTypeRow{
			Name:       dev.Str(tt.Name),
			Wires:      len(tt.Wires),
			PIPs:       len(tt.PIPs),
			Sites:      len(tt.SiteTypes),
			MaxPIPWire: -1,
		}
		for _, pip := range tt.PIPs {
			if len(pip.PseudoCells) > 0 {
				row.RouteThrus++
			}
			row.MaxPIPWire = max(row.MaxPIPWire, int(pip.Wire0), int(pip.Wire1))
		}
		t.TileTypes = append(t.TileTypes, row)
	}

	for _, tile := range dev.Tiles {
		row := TileRow{Name: dev.Str(tile.Name), Row: int(tile.Row), Col: int(tile.Col)}
		if int(tile.Type) < len(dev.TileTypes) {
			row.Type = dev.Str(dev.TileTypes[tile.Type].Name)
		}
		t.Tiles = append(t.Tiles, row)
	}

	for _, pkg := range dev.Packages {
		row := PackageRow{Name: dev.Str(pkg.Name), Pins: len(pkg.PackagePins), Grades: len(pkg.Grades)}
		for _, pin := range pkg.PackagePins {
			if pin.Site.Present() {
				row.BoundPins++
			}
		}
		t.Packages = append(t.Packages, row)
	}

	for _, inv := range dev.CellInversions {
		for _, pin := range inv.CellPins {
			t.Inversions = append(t.Inversions, InversionRow{Cell: dev.Str(inv.Cell), Pin: dev.Str(pin.CellPin)})
		}
	}

	return t
}

func emptyTables() Tables {
	return Tables{
		SiteTypes:  []SiteTypeRow{},
		TileTypes:  []TileTypeRow{},
		Tiles:      []TileRow{},
		Packages:   []PackageRow{},
		Inversions: []InversionRow{},
	}
}
