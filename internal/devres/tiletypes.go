package devres

import (
	"slices"

	"github.com/robert-at-pretension-io/devres/internal/fabric"
)

// buildTileTypes freezes one record per tile type from its representative
// tile, in type name order.
func buildTileTypes(c *Context) error {
	names := sortedKeys(c.tileReps)
	c.dev.TileTypes = make([]TileType, 0, len(names))
	for _, name := range names {
		c.tileTypes.Insert(name)
		rec, err := tileTypeRecord(c, name, c.tileReps[name])
		if err != nil {
			return err
		}
		c.dev.TileTypes = append(c.dev.TileTypes, rec)
	}
	return nil
}

func tileTypeRecord(c *Context, name string, tile *fabric.Tile) (TileType, error) {
	rec := TileType{Name: c.str(name)}

	for _, site := range tile.Sites {
		slot, err := sitePlacement(c, site)
		if err != nil {
			return rec, err
		}
		rec.SiteTypes = append(rec.SiteTypes, slot)
	}

	n := c.fab.WireCount(tile)
	rec.Wires = make([]uint32, n)
	for i := 0; i < n; i++ {
		rec.Wires[i] = c.str(c.fab.WireName(tile, i))
	}

	for _, pip := range c.fab.PIPs(tile) {
		rec.PIPs = append(rec.PIPs, tilePIP(c, pip))
	}
	return rec, nil
}

func sitePlacement(c *Context, site *fabric.Site) (SiteTypeInTileType, error) {
	var slot SiteTypeInTileType
	primary, ok := c.siteTypes.Index(site.Type)
	if !ok {
		return slot, integrityf("site type", site.Type, "site %s has no site type record", site.Name)
	}
	slot.PrimaryType = uint32(primary)

	for _, pin := range site.Pins {
		wire, ok := site.TileWireForPin(pin)
		if !ok {
			return slot, integrityf("site pin", site.Name+"/"+pin, "pin has no tile wire")
		}
		slot.PrimaryPinsToTileWires = append(slot.PrimaryPinsToTileWires, c.str(wire))
	}

	rec := c.dev.SiteTypes[primary]
	if len(site.AltTypes) != len(rec.AltSiteTypes) {
		return slot, integrityf("site", site.Name, "has %d alternate types, site type %s has %d",
			len(site.AltTypes), site.Type, len(rec.AltSiteTypes))
	}
	for i, alt := range site.AltTypes {
		altIdx := rec.AltSiteTypes[i]
		if c.siteTypes.Values()[altIdx] != alt {
			return slot, integrityf("site", site.Name, "alternate type %d is %s, site type %s lists %s",
				i, alt, site.Type, c.siteTypes.Values()[altIdx])
		}
		// The correspondence can differ per site; share the remap
		// table's slice when it does not.
		pins, err := parentPins(c, site, alt)
		if err != nil {
			return slot, err
		}
		if shared := c.remap[remapKey{primary: uint32(primary), alternate: altIdx}]; slices.Equal(shared, pins) {
			pins = shared
		}
		slot.AltPinsToPrimaryPins = append(slot.AltPinsToPrimaryPins, ParentPins{Pins: pins})
	}
	return slot, nil
}

func tilePIP(c *Context, pip fabric.PIP) PIP {
	out := PIP{
		Wire0:       uint32(pip.Wire0),
		Wire1:       uint32(pip.Wire1),
		Directional: !pip.Bidirectional(),
	}
	switch pip.Kind {
	case fabric.BidirectionalBuffered20:
		out.Buffered20 = true
	case fabric.BidirectionalBuffered21Buffered20:
		out.Buffered20 = true
		out.Buffered21 = true
	case fabric.DirectionalBuffered21:
		out.Buffered21 = true
	}
	if pip.IsRouteThru() {
		out.PseudoCells = pseudoCells(c, pip.RouteThru)
	}
	return out
}

// pseudoCells groups route-through pins by the BEL that owns them, one
// cell per BEL in first-seen order.
func pseudoCells(c *Context, pins []fabric.BELPinRef) []PseudoCell {
	type belKey struct {
		site int
		bel  string
	}
	var cells []PseudoCell
	byBEL := make(map[belKey]int)
	for _, p := range pins {
		k := belKey{site: p.Site, bel: p.BEL}
		i, ok := byBEL[k]
		if !ok {
			i = len(cells)
			byBEL[k] = i
			cells = append(cells, PseudoCell{BEL: c.str(p.BEL)})
		}
		cells[i].Pins = append(cells[i].Pins, c.str(p.Pin))
	}
	return cells
}
