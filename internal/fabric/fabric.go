// Package fabric defines the read-only device model the devres engine
// consumes, and an in-memory implementation loaded from a JSON device
// description.
package fabric

import "fmt"

// TileID is the unique address of a physical tile.
type TileID uint32

// Wire identifies a tile-local routing wire.
type Wire struct {
	Tile  TileID
	Index int
}

// Fabric is the query surface of a device. Implementations must return
// Tiles in the same order on every call and every run.
type Fabric interface {
	Name() string
	Series() string

	Tiles() []*Tile
	Tile(id TileID) (*Tile, bool)

	WireCount(tile *Tile) int
	WireName(tile *Tile, wire int) string
	PIPs(tile *Tile) []PIP

	// Node returns the representative wire of the node containing w.
	Node(w Wire) (Wire, bool)
	// NodeWires returns every wire aggregated under the node whose
	// representative is node.
	NodeWires(node Wire) []Wire

	// SiteView instantiates a transient view of site as siteType. Every
	// view must be handed back with ReleaseSiteView.
	SiteView(site *Site, siteType string) (*SiteView, error)
	ReleaseSiteView(v *SiteView)

	Packages() []string
	Package(name string) (*Package, bool)
}

// Tile is a physical tile.
type Tile struct {
	ID    TileID
	Name  string
	Type  string
	Row   int
	Col   int
	Sites []*Site
}

// Site is a physical site. Pins lists the primary site pins by index and
// PinWires maps a primary pin name to the tile wire it connects to.
type Site struct {
	Name     string
	Type     string
	AltTypes []string
	Tile     TileID
	Pins     []string
	PinWires map[string]string
}

// PinIndex returns the index of the named primary pin, or -1.
func (s *Site) PinIndex(name string) int {
	for i, p := range s.Pins {
		if p == name {
			return i
		}
	}
	return -1
}

// TileWireForPin returns the tile wire a primary pin connects to.
func (s *Site) TileWireForPin(name string) (string, bool) {
	w, ok := s.PinWires[name]
	return w, ok
}

// PIPKind is the buffering class of a PIP.
type PIPKind int

const (
	Directional PIPKind = iota
	DirectionalBuffered21
	BidirectionalUnbuffered
	BidirectionalBuffered20
	BidirectionalBuffered21Buffered20
)

var pipKindNames = map[PIPKind]string{
	Directional:                       "directional",
	DirectionalBuffered21:             "directional_buffered21",
	BidirectionalUnbuffered:           "bidirectional",
	BidirectionalBuffered20:           "bidirectional_buffered20",
	BidirectionalBuffered21Buffered20: "bidirectional_buffered21_buffered20",
}

func (k PIPKind) String() string {
	if s, ok := pipKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("PIPKind(%d)", int(k))
}

// ParsePIPKind maps a description string to a PIPKind. An empty string
// means Directional.
func ParsePIPKind(s string) (PIPKind, error) {
	if s == "" {
		return Directional, nil
	}
	for k, name := range pipKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown pip kind %q", s)
}

// PIP is a programmable connection between two tile-local wires.
type PIP struct {
	Wire0     int
	Wire1     int
	Kind      PIPKind
	RouteThru []BELPinRef
}

// Bidirectional reports whether the PIP conducts both ways.
func (p PIP) Bidirectional() bool {
	switch p.Kind {
	case BidirectionalUnbuffered, BidirectionalBuffered20, BidirectionalBuffered21Buffered20:
		return true
	}
	return false
}

// IsRouteThru reports whether a BEL realizes the PIP.
func (p PIP) IsRouteThru() bool {
	return len(p.RouteThru) > 0
}

// BELPinRef names a BEL pin consumed by a route-through. Site is the
// placement slot of the BEL's site within the tile.
type BELPinRef struct {
	Site int
	BEL  string
	Pin  string
}

// Package is a device package.
type Package struct {
	Name   string
	Pins   []PackagePin
	Grades []Grade
}

// PackagePin is a package pin. Site and BEL are empty when unbound.
type PackagePin struct {
	Name string
	Site string
	BEL  string
}

// BoundSite returns the site the pin is bonded to.
func (p PackagePin) BoundSite() (string, bool) {
	return p.Site, p.Site != ""
}

// BoundBEL returns the BEL the pin is bonded to.
func (p PackagePin) BoundBEL() (string, bool) {
	return p.BEL, p.BEL != ""
}

// Grade is a speed/temperature variant of a package.
type Grade struct {
	Name             string
	SpeedGrade       string
	TemperatureGrade string
}
