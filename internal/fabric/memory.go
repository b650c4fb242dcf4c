package fabric

import "fmt"

// Memory is a Fabric backed by a Description. Tiles are enumerated in
// description order and addressed by their position.
type Memory struct {
	desc      *Description
	tiles     []*Tile
	tileTypes map[string]*tileTypeData
	siteDefs  map[*Site]SiteDef
	nodeOf    map[Wire]Wire
	nodeWires map[Wire][]Wire
	packages  map[string]*Package
	pkgNames  []string
	liveViews int
}

type tileTypeData struct {
	wires   []string
	wireIdx map[string]int
	pips    []PIP
}

var _ Fabric = (*Memory)(nil)

// NewMemory indexes a description. Every name reference in the description
// must resolve.
func NewMemory(desc *Description) (*Memory, error) {
	if desc == nil {
		return nil, fmt.Errorf("fabric: description is nil")
	}
	m := &Memory{
		desc:      desc,
		tileTypes: make(map[string]*tileTypeData, len(desc.TileTypes)),
		siteDefs:  make(map[*Site]SiteDef),
		nodeOf:    make(map[Wire]Wire),
		nodeWires: make(map[Wire][]Wire),
		packages:  make(map[string]*Package, len(desc.Packages)),
	}

	for name, def := range desc.TileTypes {
		data, err := newTileTypeData(name, def)
		if err != nil {
			return nil, err
		}
		m.tileTypes[name] = data
	}

	byName := make(map[string]*Tile, len(desc.Tiles))
	for i, td := range desc.Tiles {
		tt, ok := desc.TileTypes[td.Type]
		if !ok {
			return nil, fmt.Errorf("fabric: tile %s: unknown tile type %q", td.Name, td.Type)
		}
		if _, dup := byName[td.Name]; dup {
			return nil, fmt.Errorf("fabric: duplicate tile name %q", td.Name)
		}
		if len(td.Sites) != len(tt.Sites) {
			return nil, fmt.Errorf("fabric: tile %s has %d sites, tile type %s has %d slots",
				td.Name, len(td.Sites), td.Type, len(tt.Sites))
		}
		tile := &Tile{
			ID:   TileID(i),
			Name: td.Name,
			Type: td.Type,
			Row:  td.Row,
			Col:  td.Col,
		}
		for j, sd := range td.Sites {
			slot := tt.Sites[j]
			if _, ok := desc.SiteTypes[slot.Type]; !ok {
				return nil, fmt.Errorf("fabric: site %s: unknown site type %q", sd.Name, slot.Type)
			}
			site := &Site{
				Name:     sd.Name,
				Type:     slot.Type,
				AltTypes: slot.AltTypes,
				Tile:     tile.ID,
				Pins:     make([]string, 0, len(slot.Pins)),
				PinWires: make(map[string]string, len(slot.Pins)),
			}
			for _, p := range slot.Pins {
				site.Pins = append(site.Pins, p.Pin)
				site.PinWires[p.Pin] = p.Wire
			}
			tile.Sites = append(tile.Sites, site)
			m.siteDefs[site] = sd
		}
		m.tiles = append(m.tiles, tile)
		byName[td.Name] = tile
	}

	for i, members := range desc.Nodes {
		if len(members) == 0 {
			return nil, fmt.Errorf("fabric: node %d has no wires", i)
		}
		wires := make([]Wire, 0, len(members))
		for _, ref := range members {
			w, err := m.resolveWire(byName, ref)
			if err != nil {
				return nil, fmt.Errorf("fabric: node %d: %w", i, err)
			}
			wires = append(wires, w)
		}
		rep := wires[0]
		for _, w := range wires {
			if prev, ok := m.nodeOf[w]; ok && prev != rep {
				return nil, fmt.Errorf("fabric: wire %s/%s belongs to two nodes", members[0].Tile, members[0].Wire)
			}
			m.nodeOf[w] = rep
		}
		m.nodeWires[rep] = wires
	}

	for i := range desc.Packages {
		pd := desc.Packages[i]
		pkg := &Package{Name: pd.Name}
		for _, p := range pd.Pins {
			pkg.Pins = append(pkg.Pins, PackagePin{Name: p.Name, Site: p.Site, BEL: p.BEL})
		}
		for _, g := range pd.Grades {
			pkg.Grades = append(pkg.Grades, Grade{Name: g.Name, SpeedGrade: g.Speed, TemperatureGrade: g.Temperature})
		}
		m.packages[pd.Name] = pkg
		m.pkgNames = append(m.pkgNames, pd.Name)
	}

	return m, nil
}

func newTileTypeData(name string, def TileTypeDef) (*tileTypeData, error) {
	data := &tileTypeData{
		wires:   def.Wires,
		wireIdx: make(map[string]int, len(def.Wires)),
	}
	for i, w := range def.Wires {
		if _, dup := data.wireIdx[w]; dup {
			return nil, fmt.Errorf("fabric: tile type %s: duplicate wire %q", name, w)
		}
		data.wireIdx[w] = i
	}
	for _, pd := range def.PIPs {
		w0, ok0 := data.wireIdx[pd.Wire0]
		w1, ok1 := data.wireIdx[pd.Wire1]
		if !ok0 || !ok1 {
			return nil, fmt.Errorf("fabric: tile type %s: pip %s->%s references unknown wire", name, pd.Wire0, pd.Wire1)
		}
		kind, err := ParsePIPKind(pd.Kind)
		if err != nil {
			return nil, fmt.Errorf("fabric: tile type %s: %w", name, err)
		}
		pip := PIP{Wire0: w0, Wire1: w1, Kind: kind}
		for _, rt := range pd.RouteThru {
			if rt.Site < 0 || rt.Site >= len(def.Sites) {
				return nil, fmt.Errorf("fabric: tile type %s: route-through site slot %d out of range", name, rt.Site)
			}
			pip.RouteThru = append(pip.RouteThru, BELPinRef{Site: rt.Site, BEL: rt.BEL, Pin: rt.Pin})
		}
		data.pips = append(data.pips, pip)
	}
	return data, nil
}

func (m *Memory) resolveWire(byName map[string]*Tile, ref WireRef) (Wire, error) {
	tile, ok := byName[ref.Tile]
	if !ok {
		return Wire{}, fmt.Errorf("unknown tile %q", ref.Tile)
	}
	idx, ok := m.tileTypes[tile.Type].wireIdx[ref.Wire]
	if !ok {
		return Wire{}, fmt.Errorf("tile %s has no wire %q", ref.Tile, ref.Wire)
	}
	return Wire{Tile: tile.ID, Index: idx}, nil
}

func (m *Memory) Name() string   { return m.desc.Name }
func (m *Memory) Series() string { return m.desc.Series }

func (m *Memory) Tiles() []*Tile { return m.tiles }

func (m *Memory) Tile(id TileID) (*Tile, bool) {
	if int(id) >= len(m.tiles) {
		return nil, false
	}
	return m.tiles[id], true
}

func (m *Memory) WireCount(tile *Tile) int {
	return len(m.tileTypes[tile.Type].wires)
}

func (m *Memory) WireName(tile *Tile, wire int) string {
	return m.tileTypes[tile.Type].wires[wire]
}

func (m *Memory) PIPs(tile *Tile) []PIP {
	return m.tileTypes[tile.Type].pips
}

func (m *Memory) Node(w Wire) (Wire, bool) {
	rep, ok := m.nodeOf[w]
	return rep, ok
}

func (m *Memory) NodeWires(node Wire) []Wire {
	return m.nodeWires[node]
}

// SiteView builds a fresh view of site as siteType from the site type
// template, applying the site's own primary pin overrides.
func (m *Memory) SiteView(site *Site, siteType string) (*SiteView, error) {
	def, ok := m.desc.SiteTypes[siteType]
	if !ok {
		return nil, fmt.Errorf("fabric: unknown site type %q", siteType)
	}
	v := &SiteView{
		Type:        siteType,
		Site:        site,
		LastInput:   -1,
		PrimaryPins: make(map[string]string, len(def.PrimaryPins)),
		PinBELs:     make(map[string]*BEL, len(def.SitePins)),
	}
	bels := make(map[string]*BEL, len(def.BELs))
	for _, bd := range def.BELs {
		class, err := ParseBELClass(bd.Class)
		if err != nil {
			return nil, fmt.Errorf("fabric: site type %s bel %s: %w", siteType, bd.Name, err)
		}
		bel := &BEL{Name: bd.Name, Type: bd.Type, Class: class}
		for _, pd := range bd.Pins {
			dir, err := ParseDirection(pd.Dir)
			if err != nil {
				return nil, fmt.Errorf("fabric: site type %s bel %s pin %s: %w", siteType, bd.Name, pd.Name, err)
			}
			bel.Pins = append(bel.Pins, &BELPin{Name: pd.Name, Dir: dir, BEL: bel})
		}
		if bd.Inverter != nil {
			ni, ok1 := bel.Pin(bd.Inverter.NonInverting)
			inv, ok2 := bel.Pin(bd.Inverter.Inverting)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("fabric: site type %s bel %s: inverter pins not found", siteType, bd.Name)
			}
			bel.NonInverting, bel.Inverting = ni, inv
		}
		v.BELs = append(v.BELs, bel)
		bels[bel.Name] = bel
	}
	lookupPin := func(belName, pinName string) (*BELPin, error) {
		bel, ok := bels[belName]
		if !ok {
			return nil, fmt.Errorf("fabric: site type %s: unknown bel %q", siteType, belName)
		}
		pin, ok := bel.Pin(pinName)
		if !ok {
			return nil, fmt.Errorf("fabric: site type %s: bel %s has no pin %q", siteType, belName, pinName)
		}
		return pin, nil
	}

	for i, sp := range def.SitePins {
		dir, err := ParseDirection(sp.Dir)
		if err != nil {
			return nil, fmt.Errorf("fabric: site type %s site pin %s: %w", siteType, sp.Name, err)
		}
		if dir == Input {
			if v.LastInput != i-1 {
				return nil, fmt.Errorf("fabric: site type %s: input site pin %s follows an output", siteType, sp.Name)
			}
			v.LastInput = i
		}
		bel, ok := bels[sp.BEL]
		if !ok {
			return nil, fmt.Errorf("fabric: site type %s site pin %s: unknown bel %q", siteType, sp.Name, sp.BEL)
		}
		v.SitePins = append(v.SitePins, sp.Name)
		v.PinBELs[sp.Name] = bel
	}
	for _, wd := range def.SiteWires {
		sw := &SiteWire{Name: wd.Name}
		for _, ref := range wd.Pins {
			pin, err := lookupPin(ref.BEL, ref.Pin)
			if err != nil {
				return nil, err
			}
			sw.Pins = append(sw.Pins, pin)
		}
		v.SiteWires = append(v.SiteWires, sw)
	}
	for _, pd := range def.SitePIPs {
		in, err := lookupPin(pd.BEL, pd.In)
		if err != nil {
			return nil, err
		}
		out, err := lookupPin(pd.BEL, pd.Out)
		if err != nil {
			return nil, err
		}
		v.SitePIPs = append(v.SitePIPs, &SitePIP{In: in, Out: out})
	}

	for k, p := range def.PrimaryPins {
		v.PrimaryPins[k] = p
	}
	if sd, ok := m.siteDefs[site]; ok {
		for k, p := range sd.PrimaryPins[siteType] {
			v.PrimaryPins[k] = p
		}
	}

	m.liveViews++
	return v, nil
}

func (m *Memory) ReleaseSiteView(v *SiteView) {
	if v != nil {
		m.liveViews--
	}
}

// LiveViews returns the number of site views not yet released.
func (m *Memory) LiveViews() int { return m.liveViews }

// Packages returns package names in description order.
func (m *Memory) Packages() []string {
	out := make([]string, len(m.pkgNames))
	copy(out, m.pkgNames)
	return out
}

func (m *Memory) Package(name string) (*Package, bool) {
	p, ok := m.packages[name]
	return p, ok
}
