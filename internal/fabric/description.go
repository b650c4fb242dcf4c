package fabric

import (
	"encoding/json"
	"fmt"
	"os"
)

// Description is the JSON device description Memory is built from.
type Description struct {
	Name      string                 `json:"name"`
	Series    string                 `json:"series"`
	SiteTypes map[string]SiteTypeDef `json:"site_types"`
	TileTypes map[string]TileTypeDef `json:"tile_types"`
	Tiles     []TileDef              `json:"tiles"`
	Nodes     [][]WireRef            `json:"nodes,omitempty"`
	Packages  []PackageDef           `json:"packages,omitempty"`
}

// SiteTypeDef is the template every view of a site type is built from.
type SiteTypeDef struct {
	BELs      []BELDef       `json:"bels"`
	SitePins  []SitePinDef   `json:"site_pins"`
	SiteWires []SiteWireDef  `json:"site_wires,omitempty"`
	SitePIPs  []SitePIPDef   `json:"site_pips,omitempty"`
	// PrimaryPins maps pins of this type to the primary type's pin names
	// when the type is used as an alternate.
	PrimaryPins map[string]string `json:"primary_pins,omitempty"`
}

type BELDef struct {
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Class    string       `json:"class"`
	Pins     []BELPinDef  `json:"pins"`
	Inverter *InverterDef `json:"inverter,omitempty"`
}

type BELPinDef struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

type InverterDef struct {
	NonInverting string `json:"non_inverting"`
	Inverting    string `json:"inverting"`
}

// SitePinDef is a site pin realized by the port BEL named BEL.
type SitePinDef struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
	BEL  string `json:"bel"`
}

type SiteWireDef struct {
	Name string   `json:"name"`
	Pins []PinRef `json:"pins"`
}

type PinRef struct {
	BEL string `json:"bel"`
	Pin string `json:"pin"`
}

// SitePIPDef connects two pins of the routing BEL named BEL.
type SitePIPDef struct {
	BEL string `json:"bel"`
	In  string `json:"in"`
	Out string `json:"out"`
}

type TileTypeDef struct {
	Wires []string      `json:"wires"`
	PIPs  []PIPDef      `json:"pips,omitempty"`
	Sites []SiteSlotDef `json:"sites,omitempty"`
}

type PIPDef struct {
	Wire0     string         `json:"wire0"`
	Wire1     string         `json:"wire1"`
	Kind      string         `json:"kind,omitempty"`
	RouteThru []RouteThruPin `json:"route_thru,omitempty"`
}

// RouteThruPin is a BEL pin consumed by a route-through PIP. Site is the
// placement slot within the tile type.
type RouteThruPin struct {
	Site int    `json:"site"`
	BEL  string `json:"bel"`
	Pin  string `json:"pin"`
}

// SiteSlotDef is a site placement inside a tile type.
type SiteSlotDef struct {
	Type     string       `json:"type"`
	AltTypes []string     `json:"alt_types,omitempty"`
	Pins     []SlotPinDef `json:"pins"`
}

type SlotPinDef struct {
	Pin  string `json:"pin"`
	Wire string `json:"wire"`
}

type TileDef struct {
	Name  string    `json:"name"`
	Type  string    `json:"type"`
	Row   int       `json:"row"`
	Col   int       `json:"col"`
	Sites []SiteDef `json:"sites,omitempty"`
}

// SiteDef names the site realizing the slot at the same index of the tile
// type. PrimaryPins overrides the alternate-to-primary pin names per
// alternate type for this occurrence only.
type SiteDef struct {
	Name        string                       `json:"name"`
	PrimaryPins map[string]map[string]string `json:"primary_pins,omitempty"`
}

type WireRef struct {
	Tile string `json:"tile"`
	Wire string `json:"wire"`
}

type PackageDef struct {
	Name   string          `json:"name"`
	Pins   []PackagePinDef `json:"pins"`
	Grades []GradeDef      `json:"grades,omitempty"`
}

type PackagePinDef struct {
	Name string `json:"name"`
	Site string `json:"site,omitempty"`
	BEL  string `json:"bel,omitempty"`
}

type GradeDef struct {
	Name        string `json:"name"`
	Speed       string `json:"speed"`
	Temperature string `json:"temperature"`
}

// Decode parses a JSON device description.
func Decode(data []byte) (*Description, error) {
	var desc Description
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parsing device description: %w", err)
	}
	return &desc, nil
}

// LoadFile reads and parses a JSON device description.
func LoadFile(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device description: %w", err)
	}
	return Decode(data)
}
