package devres

import (
	"github.com/robert-at-pretension-io/devres/internal/fabric"
	"github.com/robert-at-pretension-io/devres/internal/netlist"
)

// populate walks the fabric once in tile order, recording a representative
// tile and site for every type and interning the names those types carry.
// The string table's leading entries therefore follow fabric order.
func populate(c *Context, libs *netlist.Libraries) error {
	for _, tile := range c.fab.Tiles() {
		c.str(tile.Name)
		if _, seen := c.tileReps[tile.Type]; !seen {
			c.str(tile.Type)
			for i := 0; i < c.fab.WireCount(tile); i++ {
				c.str(c.fab.WireName(tile, i))
			}
			c.tileReps[tile.Type] = tile
		}
		for _, site := range tile.Sites {
			c.str(site.Name)
			c.str(site.Type)
			if err := populateSiteType(c, site, site.Type); err != nil {
				return err
			}
			for _, alt := range site.AltTypes {
				if err := populateSiteType(c, site, alt); err != nil {
					return err
				}
			}
		}
	}

	if libs != nil {
		for _, prim := range sortedKeys(libs.MacroExpandExceptions) {
			c.str(prim)
			c.str(libs.MacroExpandExceptions[prim])
		}
	}
	return nil
}

func populateSiteType(c *Context, site *fabric.Site, typ string) error {
	if _, seen := c.siteReps[typ]; seen {
		return nil
	}
	c.siteReps[typ] = site
	c.str(typ)
	return c.views.with(site, typ, func(v *fabric.SiteView) error {
		for _, sw := range v.SiteWires {
			c.str(sw.Name)
		}
		for _, bel := range v.BELs {
			c.str(bel.Name)
			c.str(bel.Type)
			for _, pin := range bel.Pins {
				c.str(pin.Name)
			}
		}
		for _, pin := range v.SitePins {
			c.str(pin)
		}
		return nil
	})
}
