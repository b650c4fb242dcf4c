// Package netlisttest provides a small cell library shared by tests.
package netlisttest

import "github.com/robert-at-pretension-io/devres/internal/netlist"

// Libraries returns a library where IBUF exists both as a primitive and as
// a macro, and the LUT2_PAIR macro instantiates LUT2 and IBUF.
func Libraries() *netlist.Libraries {
	in := func(n string) netlist.Port { return netlist.Port{Name: n, Dir: "input"} }
	out := func(n string) netlist.Port { return netlist.Port{Name: n, Dir: "output"} }
	ref := func(inst, port string) netlist.PortRef { return netlist.PortRef{Instance: inst, Port: port} }

	return &netlist.Libraries{
		Prims: []netlist.Cell{
			{Name: "FDRE", Ports: []netlist.Port{in("C"), in("CE"), in("D"), in("R"), out("Q")}},
			{Name: "LUT2", Ports: []netlist.Port{in("I0"), in("I1"), out("O")}},
			{Name: "INBUF", Ports: []netlist.Port{in("PAD"), out("O")}},
			{Name: "IBUFCTRL", Ports: []netlist.Port{in("I"), out("O")}},
			{Name: "IBUF", Ports: []netlist.Port{in("I"), out("O")}},
		},
		Macros: []netlist.Cell{
			{
				Name:  "IBUF",
				Ports: []netlist.Port{in("I"), out("O")},
				Instances: []netlist.Instance{
					{Name: "INBUF_INST", Cell: "INBUF"},
					{Name: "IBUFCTRL_INST", Cell: "IBUFCTRL", Properties: map[string]string{"USE_IBUFDISABLE": "FALSE", "DELAY_VALUE": "0"}},
				},
				Nets: []netlist.Net{
					{Name: "I", Ports: []netlist.PortRef{ref("", "I"), ref("INBUF_INST", "PAD")}},
					{Name: "O", Ports: []netlist.PortRef{ref("IBUFCTRL_INST", "O"), ref("", "O")}},
					{Name: "ib", Ports: []netlist.PortRef{ref("INBUF_INST", "O"), ref("IBUFCTRL_INST", "I")}},
				},
			},
			{
				Name:  "LUT2_PAIR",
				Ports: []netlist.Port{in("A"), in("B"), out("O")},
				Instances: []netlist.Instance{
					{Name: "L", Cell: "LUT2"},
					{Name: "B", Cell: "IBUF"},
				},
				Nets: []netlist.Net{
					{Name: "a", Ports: []netlist.PortRef{ref("", "A"), ref("L", "I0")}},
					{Name: "b", Ports: []netlist.PortRef{ref("", "B"), ref("B", "I")}},
					{Name: "bo", Ports: []netlist.PortRef{ref("B", "O"), ref("L", "I1")}},
					{Name: "o", Ports: []netlist.PortRef{ref("L", "O"), ref("", "O")}},
				},
			},
		},
		MacroExpandExceptions:   map[string]string{"LUT2": "LUT2_PAIR"},
		MacroCollapseExceptions: map[string]string{"LUT2_PAIR": "LUT2"},
		DefaultParameters: map[string]map[string]netlist.Property{
			"FDRE": {
				"INIT":          {Value: "1'b0", Type: "binary"},
				"IS_C_INVERTED": {Value: "1'b0", Type: "binary"},
			},
			"LUT2": {
				"INIT": {Value: "4'h0", Type: "hex"},
			},
			"IBUFCTRL": {
				"REFCLK_FREQUENCY": {Value: "200.0", Type: "double"},
				"DELAY_VALUE":      {Value: "0", Type: "int"},
			},
			"IBUF": {
				"IOSTANDARD":   {Value: "DEFAULT", Type: "string"},
				"IBUF_LOW_PWR": {Value: "TRUE", Type: "bool"},
			},
			"LUT2_PAIR": {},
		},
		InvertiblePins: map[string]map[string]string{
			"FDRE": {"D": "IS_D_INVERTED", "C": "IS_C_INVERTED"},
			"LUT2": {"I0": "IS_I0_INVERTED"},
		},
	}
}
