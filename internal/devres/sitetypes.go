package devres

import (
	"fmt"

	"github.com/robert-at-pretension-io/devres/internal/enumerator"
	"github.com/robert-at-pretension-io/devres/internal/fabric"
	"github.com/robert-at-pretension-io/devres/internal/opt"
)

// buildSiteTypes freezes one record per site type, in type name order.
func buildSiteTypes(c *Context) error {
	names := sortedKeys(c.siteReps)
	c.dev.SiteTypes = make([]SiteType, 0, len(names))
	for _, name := range names {
		c.siteTypes.Insert(name)
		site := c.siteReps[name]
		err := c.views.with(site, name, func(v *fabric.SiteView) error {
			rec, err := siteTypeRecord(c, site, v)
			if err != nil {
				return err
			}
			c.dev.SiteTypes = append(c.dev.SiteTypes, rec)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func siteTypeRecord(c *Context, site *fabric.Site, v *fabric.SiteView) (SiteType, error) {
	rec := SiteType{
		Name:      c.str(v.Type),
		LastInput: int32(v.LastInput),
	}
	belPins := enumerator.New[*fabric.BELPin]()
	pinIndex := func(p *fabric.BELPin) uint32 { return uint32(belPins.Insert(p)) }

	for _, bel := range v.BELs {
		out := BEL{
			Name:     c.str(bel.Name),
			Type:     c.str(bel.Type),
			Category: belCategory(bel.Class),
		}
		for _, p := range bel.Pins {
			out.Pins = append(out.Pins, pinIndex(p))
		}
		if bel.CanInvert() {
			out.Inverting = opt.Some(BELInverter{
				NonInvertingPin: pinIndex(bel.NonInverting),
				InvertingPin:    pinIndex(bel.Inverting),
			})
		}
		rec.BELs = append(rec.BELs, out)
	}

	for j, name := range v.SitePins {
		if _, err := resolveSitePin(site, v, name); err != nil {
			return rec, err
		}
		dir := DirOutput
		if j <= v.LastInput {
			dir = DirInput
		}
		bel, ok := v.SitePinBEL(name)
		if !ok {
			return rec, integrityf("site pin", v.Type+"/"+name, "no BEL realizes the pin")
		}
		if len(bel.Pins) != 1 {
			return rec, integrityf("site pin", v.Type+"/"+name, "BEL %s has %d pins, want 1", bel.Name, len(bel.Pins))
		}
		rec.Pins = append(rec.Pins, SitePin{
			Name:   c.str(name),
			Dir:    dir,
			BELPin: pinIndex(bel.Pins[0]),
		})
	}

	for _, sw := range v.SiteWires {
		out := SiteWire{Name: c.str(sw.Name)}
		for _, p := range sw.Pins {
			out.Pins = append(out.Pins, pinIndex(p))
		}
		rec.SiteWires = append(rec.SiteWires, out)
	}

	// Site PIPs are discovered through the pins, so their order follows
	// the BEL pin table.
	sitePIPs := enumerator.New[*fabric.SitePIP]()
	for _, p := range belPins.Values() {
		rec.BELPins = append(rec.BELPins, BELPin{
			Name: c.str(p.Name),
			Dir:  pinDirection(p.Dir),
			BEL:  c.str(p.BEL.Name),
		})
		for _, sp := range v.SitePIPsFor(p) {
			sitePIPs.Insert(sp)
		}
	}
	for _, sp := range sitePIPs.Values() {
		in, ok1 := belPins.Index(sp.In)
		out, ok2 := belPins.Index(sp.Out)
		if !ok1 || !ok2 {
			return rec, integrityf("site pip", v.Type+"/"+sp.In.BEL.Name, "pip pins are not pins of the site type")
		}
		rec.SitePIPs = append(rec.SitePIPs, SitePIP{InPin: uint32(in), OutPin: uint32(out)})
	}
	return rec, nil
}

// resolveSitePin finds the physical pin index of a view's site pin,
// going through the primary pin name when the view's own name is not a
// pin of the site.
func resolveSitePin(site *fabric.Site, v *fabric.SiteView, name string) (int, error) {
	if idx := site.PinIndex(name); idx >= 0 {
		return idx, nil
	}
	primary := v.PrimarySitePinName(name)
	if idx := site.PinIndex(primary); idx >= 0 {
		return idx, nil
	}
	return -1, integrityf("site pin", v.Type+"/"+name,
		"no pin index at site %s (primary pin name %s)", site.Name, primary)
}

// linkAlternates fills each primary type's alternate list and the pin
// remap table. It needs every record to exist first.
func linkAlternates(c *Context) error {
	primaries := primarySites(c)
	for i := range c.dev.SiteTypes {
		name := c.siteTypes.Values()[i]
		site, ok := primaries[name]
		if !ok {
			continue
		}
		rec := &c.dev.SiteTypes[i]
		for _, alt := range site.AltTypes {
			altIdx, ok := c.siteTypes.Index(alt)
			if !ok {
				return integrityf("site type", alt, "alternate of %s has no record", name)
			}
			rec.AltSiteTypes = append(rec.AltSiteTypes, uint32(altIdx))

			pins, err := parentPins(c, site, alt)
			if err != nil {
				return err
			}
			c.remap[remapKey{primary: uint32(i), alternate: uint32(altIdx)}] = pins
		}
	}
	return nil
}

// primarySites returns, per site type, the first site in fabric order
// whose primary type it is.
func primarySites(c *Context) map[string]*fabric.Site {
	out := make(map[string]*fabric.Site)
	for _, tile := range c.fab.Tiles() {
		for _, site := range tile.Sites {
			if _, ok := out[site.Type]; !ok {
				out[site.Type] = site
			}
		}
	}
	return out
}

// parentPins maps every site pin of alt, as instantiated at site, to the
// index of the primary pin it corresponds to.
func parentPins(c *Context, site *fabric.Site, alt string) ([]uint32, error) {
	var pins []uint32
	err := c.views.with(site, alt, func(v *fabric.SiteView) error {
		pins = make([]uint32, 0, len(v.SitePins))
		for _, name := range v.SitePins {
			parent := v.PrimarySitePinName(name)
			idx := site.PinIndex(parent)
			if idx < 0 {
				return integrityf("site pin", fmt.Sprintf("%s/%s", alt, name),
					"primary pin %s is not a pin of site %s", parent, site.Name)
			}
			pins = append(pins, uint32(idx))
		}
		return nil
	})
	return pins, err
}

func belCategory(class fabric.BELClass) BELCategory {
	switch class {
	case fabric.ClassRouting:
		return CategoryRouting
	case fabric.ClassPort:
		return CategorySitePort
	}
	return CategoryLogic
}

func pinDirection(d fabric.Direction) Direction {
	switch d {
	case fabric.Output:
		return DirOutput
	case fabric.Inout:
		return DirInout
	}
	return DirInput
}
