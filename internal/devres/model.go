package devres

import (
	"fmt"

	"github.com/robert-at-pretension-io/devres/internal/netlist"
	"github.com/robert-at-pretension-io/devres/internal/opt"
)

// Device is the canonical device resources table set. Every uint32 that
// names text is an index into Strings; other indices are positions in the
// table the field names.
type Device struct {
	Name           uint32
	Strings        []string
	SiteTypes      []SiteType
	TileTypes      []TileType
	Tiles          []Tile
	Wires          []Wire
	Nodes          []Node
	Packages       []Package
	ParameterDefs  []CellParameterDefinition
	CellInversions []CellInversion
	ExceptionMap   []PrimToMacroExpansion
	PrimLibs       *netlist.Netlist
}

// Str returns the string at idx, or "" when idx is out of range.
func (d *Device) Str(idx uint32) string {
	if int(idx) >= len(d.Strings) {
		return ""
	}
	return d.Strings[idx]
}

type Direction uint8

const (
	DirInput Direction = iota
	DirOutput
	DirInout
)

func (d Direction) String() string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	case DirInout:
		return "inout"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

type BELCategory uint8

const (
	CategoryLogic BELCategory = iota
	CategoryRouting
	CategorySitePort
)

func (c BELCategory) String() string {
	switch c {
	case CategoryLogic:
		return "logic"
	case CategoryRouting:
		return "routing"
	case CategorySitePort:
		return "site_port"
	}
	return fmt.Sprintf("BELCategory(%d)", uint8(c))
}

type SiteType struct {
	Name uint32
	BELs []BEL
	// BELPins is local to this site type; every pin index in the record
	// points here.
	BELPins      []BELPin
	Pins         []SitePin
	LastInput    int32
	SiteWires    []SiteWire
	SitePIPs     []SitePIP
	AltSiteTypes []uint32
}

type BEL struct {
	Name      uint32
	Type      uint32
	Pins      []uint32
	Category  BELCategory
	Inverting opt.Value[BELInverter]
}

type BELInverter struct {
	NonInvertingPin uint32
	InvertingPin    uint32
}

type BELPin struct {
	Name uint32
	Dir  Direction
	BEL  uint32
}

type SitePin struct {
	Name   uint32
	Dir    Direction
	BELPin uint32
}

type SiteWire struct {
	Name uint32
	Pins []uint32
}

type SitePIP struct {
	InPin  uint32
	OutPin uint32
}

type TileType struct {
	Name      uint32
	SiteTypes []SiteTypeInTileType
	Wires     []uint32
	PIPs      []PIP
}

// SiteTypeInTileType is one site placement slot of a tile type.
// AltPinsToPrimaryPins holds, per alternate type of the primary type (in
// the primary type's AltSiteTypes order), the primary pin index of each
// alternate site pin.
type SiteTypeInTileType struct {
	PrimaryType            uint32
	PrimaryPinsToTileWires []uint32
	AltPinsToPrimaryPins   []ParentPins
}

type ParentPins struct {
	Pins []uint32
}

// PIP endpoints index the tile type's Wires.
type PIP struct {
	Wire0       uint32
	Wire1       uint32
	Directional bool
	Buffered20  bool
	Buffered21  bool
	PseudoCells []PseudoCell
}

type PseudoCell struct {
	BEL  uint32
	Pins []uint32
}

type Tile struct {
	Name  uint32
	Type  uint32
	Sites []Site
	Row   int16
	Col   int16
}

// Site.Type is the placement slot index within the tile's type.
type Site struct {
	Name uint32
	Type uint32
}

type Wire struct {
	Tile uint32
	Wire uint32
}

// Node lists member wires as indices into Device.Wires.
type Node struct {
	Wires []uint32
}

type Package struct {
	Name        uint32
	PackagePins []PackagePin
	Grades      []Grade
}

type PackagePin struct {
	PackagePin uint32
	Site       opt.Value[uint32]
	BEL        opt.Value[uint32]
}

type Grade struct {
	Name             uint32
	SpeedGrade       uint32
	TemperatureGrade uint32
}

type ParameterFormat uint8

const (
	FormatString ParameterFormat = iota
	FormatBoolean
	FormatInteger
	FormatFloatingPoint
	FormatVerilogBinary
	FormatVerilogHex
)

func (f ParameterFormat) String() string {
	switch f {
	case FormatString:
		return "STRING"
	case FormatBoolean:
		return "BOOLEAN"
	case FormatInteger:
		return "INTEGER"
	case FormatFloatingPoint:
		return "FLOATING_POINT"
	case FormatVerilogBinary:
		return "VERILOG_BINARY"
	case FormatVerilogHex:
		return "VERILOG_HEX"
	}
	return fmt.Sprintf("ParameterFormat(%d)", uint8(f))
}

type CellParameterDefinition struct {
	CellType   uint32
	Parameters []ParameterDefinition
}

type ParameterDefinition struct {
	Name    uint32
	Format  ParameterFormat
	Default PropertyEntry
}

type PropertyEntry struct {
	Key       uint32
	TextValue uint32
}

type CellInversion struct {
	Cell     uint32
	CellPins []CellPinInversion
}

type CellPinInversion struct {
	CellPin      uint32
	NotInverting PropertyEntry
	Inverting    PropertyEntry
}

type PrimToMacroExpansion struct {
	PrimName  uint32
	MacroName uint32
}
