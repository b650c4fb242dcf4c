package netlist

import (
	"fmt"
	"sort"

	"github.com/robert-at-pretension-io/devres/internal/enumerator"
	"github.com/robert-at-pretension-io/devres/internal/opt"
)

// PortDir is the direction of a cell port.
type PortDir int

const (
	PortInput PortDir = iota
	PortOutput
	PortInout
)

// ParsePortDir maps a library direction string to a PortDir.
func ParsePortDir(s string) (PortDir, error) {
	switch s {
	case "input":
		return PortInput, nil
	case "output":
		return PortOutput, nil
	case "inout":
		return PortInout, nil
	}
	return 0, fmt.Errorf("unknown port direction %q", s)
}

const defaultView = "netlist"

// Netlist is the string-indexed logical netlist section. Every uint32
// naming a string is an index into the shared string registry; Ports,
// Insts and CellDecls are referenced by position.
type Netlist struct {
	Name      uint32
	CellDecls []CellDecl
	Cells     []CellBody
	Ports     []PortDecl
	Insts     []InstDecl
}

type CellDecl struct {
	Name  uint32
	View  uint32
	Lib   uint32
	Ports []uint32
}

type CellBody struct {
	Decl  uint32
	Insts []uint32
	Nets  []NetBody
}

type PortDecl struct {
	Name uint32
	Dir  PortDir
}

type InstDecl struct {
	Name  uint32
	Cell  uint32
	View  uint32
	Props []Prop
}

type Prop struct {
	Key   uint32
	Value uint32
}

type NetBody struct {
	Name      uint32
	PortInsts []PortInst
}

// PortInst is one net connection. Inst is absent for a port of the
// enclosing cell.
type PortInst struct {
	Port uint32
	Inst opt.Value[uint32]
}

// Writer serializes cell libraries into a Netlist, interning names into a
// registry shared with the rest of the artifact.
type Writer struct {
	strings *enumerator.Registry[string]
}

func NewWriter(strings *enumerator.Registry[string]) *Writer {
	return &Writer{strings: strings}
}

func (w *Writer) str(s string) uint32 {
	return uint32(w.strings.Insert(s))
}

type libCell struct {
	lib  string
	cell Cell
}

// Write builds the netlist named name from libs. Primitives duplicated in
// the macro library are dropped, so instances inside macros resolve to
// the macro definition when one exists.
func (w *Writer) Write(name string, libs *Libraries) (*Netlist, error) {
	var cells []libCell
	for _, c := range libs.Primitives() {
		cells = append(cells, libCell{lib: PrimitivesLibrary, cell: c})
	}
	for _, c := range libs.Macros {
		cells = append(cells, libCell{lib: MacrosLibrary, cell: c})
	}

	nl := &Netlist{Name: w.str(name)}
	declOf := make(map[string]uint32, len(cells))
	portOf := make([]map[string]uint32, 0, len(cells))

	for _, lc := range cells {
		if _, dup := declOf[lc.cell.Name]; dup {
			return nil, fmt.Errorf("netlist: duplicate cell %q in library %s", lc.cell.Name, lc.lib)
		}
		decl := CellDecl{
			Name: w.str(lc.cell.Name),
			View: w.str(defaultView),
			Lib:  w.str(lc.lib),
		}
		ports := make(map[string]uint32, len(lc.cell.Ports))
		for _, p := range lc.cell.Ports {
			dir, err := ParsePortDir(p.Dir)
			if err != nil {
				return nil, fmt.Errorf("netlist: cell %s port %s: %w", lc.cell.Name, p.Name, err)
			}
			idx := uint32(len(nl.Ports))
			nl.Ports = append(nl.Ports, PortDecl{Name: w.str(p.Name), Dir: dir})
			decl.Ports = append(decl.Ports, idx)
			ports[p.Name] = idx
		}
		declOf[lc.cell.Name] = uint32(len(nl.CellDecls))
		nl.CellDecls = append(nl.CellDecls, decl)
		portOf = append(portOf, ports)
	}

	for i, lc := range cells {
		body, err := w.cellBody(nl, uint32(i), lc.cell, declOf, portOf)
		if err != nil {
			return nil, err
		}
		nl.Cells = append(nl.Cells, body)
	}
	return nl, nil
}

func (w *Writer) cellBody(nl *Netlist, decl uint32, cell Cell, declOf map[string]uint32, portOf []map[string]uint32) (CellBody, error) {
	body := CellBody{Decl: decl}
	type localInst struct {
		index uint32
		decl  uint32
	}
	insts := make(map[string]localInst, len(cell.Instances))

	for _, inst := range cell.Instances {
		instDecl, ok := declOf[inst.Cell]
		if !ok {
			return body, fmt.Errorf("netlist: cell %s instance %s: unknown cell %q", cell.Name, inst.Name, inst.Cell)
		}
		if _, dup := insts[inst.Name]; dup {
			return body, fmt.Errorf("netlist: cell %s: duplicate instance %q", cell.Name, inst.Name)
		}
		rec := InstDecl{
			Name: w.str(inst.Name),
			Cell: instDecl,
			View: w.str(defaultView),
		}
		keys := make([]string, 0, len(inst.Properties))
		for k := range inst.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rec.Props = append(rec.Props, Prop{Key: w.str(k), Value: w.str(inst.Properties[k])})
		}
		idx := uint32(len(nl.Insts))
		nl.Insts = append(nl.Insts, rec)
		body.Insts = append(body.Insts, idx)
		insts[inst.Name] = localInst{index: idx, decl: instDecl}
	}

	for _, net := range cell.Nets {
		nb := NetBody{Name: w.str(net.Name)}
		for _, ref := range net.Ports {
			if ref.Instance == "" {
				port, ok := portOf[decl][ref.Port]
				if !ok {
					return body, fmt.Errorf("netlist: cell %s net %s: no port %q", cell.Name, net.Name, ref.Port)
				}
				nb.PortInsts = append(nb.PortInsts, PortInst{Port: port, Inst: opt.None[uint32]()})
				continue
			}
			li, ok := insts[ref.Instance]
			if !ok {
				return body, fmt.Errorf("netlist: cell %s net %s: unknown instance %q", cell.Name, net.Name, ref.Instance)
			}
			port, ok := portOf[li.decl][ref.Port]
			if !ok {
				return body, fmt.Errorf("netlist: cell %s net %s: instance %s has no port %q", cell.Name, net.Name, ref.Instance, ref.Port)
			}
			nb.PortInsts = append(nb.PortInsts, PortInst{Port: port, Inst: opt.Some(li.index)})
		}
		body.Nets = append(body.Nets, nb)
	}
	return body, nil
}
