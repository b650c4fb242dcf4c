// Package interchange encodes device resources tables into the binary
// artifact: a protobuf wire-format Device message, optionally gzip framed.
package interchange

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/robert-at-pretension-io/devres/internal/devres"
	"github.com/robert-at-pretension-io/devres/internal/netlist"
	"github.com/robert-at-pretension-io/devres/internal/opt"
)

const (
	Magic         = "devres"
	FormatVersion = 1
)

// Device message fields.
const (
	fieldMagic protowire.Number = iota + 1
	fieldVersion
	fieldName
	fieldStrings
	fieldSiteTypes
	fieldTileTypes
	fieldTiles
	fieldWires
	fieldNodes
	fieldPackages
	fieldParameterDefs
	fieldCellInversions
	fieldExceptionMap
	fieldPrimLibs
)

type enc struct {
	b []byte
}

func (e *enc) varint(num protowire.Number, v uint64) {
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *enc) zigzag(num protowire.Number, v int64) {
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, protowire.EncodeZigZag(v))
}

func (e *enc) flag(num protowire.Number, v bool) {
	if v {
		e.varint(num, 1)
	}
}

func (e *enc) str(num protowire.Number, s string) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, s)
}

// packed writes a packed repeated uint32 field; empty lists are omitted.
func (e *enc) packed(num protowire.Number, vs []uint32) {
	if len(vs) == 0 {
		return
	}
	var p []byte
	for _, v := range vs {
		p = protowire.AppendVarint(p, uint64(v))
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, p)
}

// message writes a nested message built by fn.
func (e *enc) message(num protowire.Number, fn func(*enc)) {
	var m enc
	fn(&m)
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, m.b)
}

// optional writes some when v is present, or an empty none message.
func (e *enc) optional(some, none protowire.Number, v opt.Value[uint32]) {
	if idx, ok := v.Get(); ok {
		e.varint(some, uint64(idx))
		return
	}
	e.message(none, func(*enc) {})
}

// Encode serializes dev into the Device message.
func Encode(dev *devres.Device) []byte {
	e := &enc{}
	e.str(fieldMagic, Magic)
	e.varint(fieldVersion, FormatVersion)
	e.varint(fieldName, uint64(dev.Name))
	for _, s := range dev.Strings {
		e.str(fieldStrings, s)
	}
	for i := range dev.SiteTypes {
		st := &dev.SiteTypes[i]
		e.message(fieldSiteTypes, func(m *enc) { encodeSiteType(m, st) })
	}
	for i := range dev.TileTypes {
		tt := &dev.TileTypes[i]
		e.message(fieldTileTypes, func(m *enc) { encodeTileType(m, tt) })
	}
	for _, t := range dev.Tiles {
		e.message(fieldTiles, func(m *enc) {
			m.varint(1, uint64(t.Name))
			m.varint(2, uint64(t.Type))
			for _, s := range t.Sites {
				m.message(3, func(sm *enc) {
					sm.varint(1, uint64(s.Name))
					sm.varint(2, uint64(s.Type))
				})
			}
			m.zigzag(4, int64(t.Row))
			m.zigzag(5, int64(t.Col))
		})
	}
	for _, w := range dev.Wires {
		e.message(fieldWires, func(m *enc) {
			m.varint(1, uint64(w.Tile))
			m.varint(2, uint64(w.Wire))
		})
	}
	for _, n := range dev.Nodes {
		e.message(fieldNodes, func(m *enc) { m.packed(1, n.Wires) })
	}
	for i := range dev.Packages {
		p := &dev.Packages[i]
		e.message(fieldPackages, func(m *enc) { encodePackage(m, p) })
	}
	for _, cp := range dev.ParameterDefs {
		e.message(fieldParameterDefs, func(m *enc) {
			m.varint(1, uint64(cp.CellType))
			for _, p := range cp.Parameters {
				m.message(2, func(pm *enc) {
					pm.varint(1, uint64(p.Name))
					pm.varint(2, uint64(p.Format))
					pm.message(3, func(dm *enc) { encodeProperty(dm, p.Default) })
				})
			}
		})
	}
	for _, inv := range dev.CellInversions {
		e.message(fieldCellInversions, func(m *enc) {
			m.varint(1, uint64(inv.Cell))
			for _, p := range inv.CellPins {
				m.message(2, func(pm *enc) {
					pm.varint(1, uint64(p.CellPin))
					pm.message(2, func(dm *enc) { encodeProperty(dm, p.NotInverting) })
					pm.message(3, func(dm *enc) { encodeProperty(dm, p.Inverting) })
				})
			}
		})
	}
	for _, x := range dev.ExceptionMap {
		e.message(fieldExceptionMap, func(m *enc) {
			m.varint(1, uint64(x.PrimName))
			m.varint(2, uint64(x.MacroName))
		})
	}
	if dev.PrimLibs != nil {
		e.message(fieldPrimLibs, func(m *enc) { encodeNetlist(m, dev.PrimLibs) })
	}
	return e.b
}

func encodeSiteType(m *enc, st *devres.SiteType) {
	m.varint(1, uint64(st.Name))
	for _, bel := range st.BELs {
		m.message(2, func(bm *enc) {
			bm.varint(1, uint64(bel.Name))
			bm.varint(2, uint64(bel.Type))
			bm.packed(3, bel.Pins)
			bm.varint(4, uint64(bel.Category))
			if inv, ok := bel.Inverting.Get(); ok {
				bm.message(5, func(im *enc) {
					im.varint(1, uint64(inv.NonInvertingPin))
					im.varint(2, uint64(inv.InvertingPin))
				})
			} else {
				bm.message(6, func(*enc) {})
			}
		})
	}
	for _, p := range st.BELPins {
		m.message(3, func(pm *enc) {
			pm.varint(1, uint64(p.Name))
			pm.varint(2, uint64(p.Dir))
			pm.varint(3, uint64(p.BEL))
		})
	}
	for _, p := range st.Pins {
		m.message(4, func(pm *enc) {
			pm.varint(1, uint64(p.Name))
			pm.varint(2, uint64(p.Dir))
			pm.varint(3, uint64(p.BELPin))
		})
	}
	m.zigzag(5, int64(st.LastInput))
	for _, sw := range st.SiteWires {
		m.message(6, func(wm *enc) {
			wm.varint(1, uint64(sw.Name))
			wm.packed(2, sw.Pins)
		})
	}
	for _, sp := range st.SitePIPs {
		m.message(7, func(pm *enc) {
			pm.varint(1, uint64(sp.InPin))
			pm.varint(2, uint64(sp.OutPin))
		})
	}
	m.packed(8, st.AltSiteTypes)
}

func encodeTileType(m *enc, tt *devres.TileType) {
	m.varint(1, uint64(tt.Name))
	for _, slot := range tt.SiteTypes {
		m.message(2, func(sm *enc) {
			sm.varint(1, uint64(slot.PrimaryType))
			sm.packed(2, slot.PrimaryPinsToTileWires)
			for _, pp := range slot.AltPinsToPrimaryPins {
				sm.message(3, func(pm *enc) { pm.packed(1, pp.Pins) })
			}
		})
	}
	m.packed(3, tt.Wires)
	for _, pip := range tt.PIPs {
		m.message(4, func(pm *enc) {
			pm.varint(1, uint64(pip.Wire0))
			pm.varint(2, uint64(pip.Wire1))
			pm.flag(3, pip.Directional)
			pm.flag(4, pip.Buffered20)
			pm.flag(5, pip.Buffered21)
			for _, pc := range pip.PseudoCells {
				pm.message(6, func(cm *enc) {
					cm.varint(1, uint64(pc.BEL))
					cm.packed(2, pc.Pins)
				})
			}
		})
	}
}

func encodePackage(m *enc, p *devres.Package) {
	m.varint(1, uint64(p.Name))
	for _, pin := range p.PackagePins {
		m.message(2, func(pm *enc) {
			pm.varint(1, uint64(pin.PackagePin))
			pm.optional(2, 3, pin.Site)
			pm.optional(4, 5, pin.BEL)
		})
	}
	for _, g := range p.Grades {
		m.message(3, func(gm *enc) {
			gm.varint(1, uint64(g.Name))
			gm.varint(2, uint64(g.SpeedGrade))
			gm.varint(3, uint64(g.TemperatureGrade))
		})
	}
}

func encodeProperty(m *enc, p devres.PropertyEntry) {
	m.varint(1, uint64(p.Key))
	m.varint(2, uint64(p.TextValue))
}

func encodeNetlist(m *enc, nl *netlist.Netlist) {
	m.varint(1, uint64(nl.Name))
	for _, d := range nl.CellDecls {
		m.message(2, func(dm *enc) {
			dm.varint(1, uint64(d.Name))
			dm.varint(2, uint64(d.View))
			dm.varint(3, uint64(d.Lib))
			dm.packed(4, d.Ports)
		})
	}
	for _, c := range nl.Cells {
		m.message(3, func(cm *enc) {
			cm.varint(1, uint64(c.Decl))
			cm.packed(2, c.Insts)
			for _, n := range c.Nets {
				cm.message(3, func(nm *enc) {
					nm.varint(1, uint64(n.Name))
					for _, pi := range n.PortInsts {
						nm.message(2, func(pm *enc) {
							pm.varint(1, uint64(pi.Port))
							pm.optional(2, 3, pi.Inst)
						})
					}
				})
			}
		})
	}
	for _, p := range nl.Ports {
		m.message(4, func(pm *enc) {
			pm.varint(1, uint64(p.Name))
			pm.varint(2, uint64(p.Dir))
		})
	}
	for _, inst := range nl.Insts {
		m.message(5, func(im *enc) {
			im.varint(1, uint64(inst.Name))
			im.varint(2, uint64(inst.Cell))
			im.varint(3, uint64(inst.View))
			for _, p := range inst.Props {
				im.message(4, func(pm *enc) {
					pm.varint(1, uint64(p.Key))
					pm.varint(2, uint64(p.Value))
				})
			}
		})
	}
}
