package devres

import "github.com/robert-at-pretension-io/devres/internal/netlist"

// NetlistName names the embedded primitive library netlist.
const NetlistName = "PrimitiveLibs"

const (
	notInvertingValue = "FALSE"
	invertingValue    = "TRUE"
)

// ParseParameterFormat maps a library property type to its format tag.
func ParseParameterFormat(typ string) (ParameterFormat, bool) {
	switch typ {
	case "binary":
		return FormatVerilogBinary, true
	case "bool":
		return FormatBoolean, true
	case "double":
		return FormatFloatingPoint, true
	case "hex":
		return FormatVerilogHex, true
	case "int":
		return FormatInteger, true
	case "string":
		return FormatString, true
	}
	return 0, false
}

// buildPrimLibs emits the cell inversions, the embedded netlist, the
// parameter definitions and the prim-to-macro exception map.
func buildPrimLibs(c *Context, libs *netlist.Libraries) error {
	buildCellInversions(c, libs)

	nl, err := netlist.NewWriter(c.strings).Write(NetlistName, libs)
	if err != nil {
		return err
	}
	c.dev.PrimLibs = nl

	if err := buildParameterDefinitions(c, libs); err != nil {
		return err
	}

	for _, prim := range sortedKeys(libs.MacroExpandExceptions) {
		c.dev.ExceptionMap = append(c.dev.ExceptionMap, PrimToMacroExpansion{
			PrimName:  c.str(prim),
			MacroName: c.str(libs.MacroExpandExceptions[prim]),
		})
	}
	return nil
}

// buildCellInversions lists macros first, through their collapse
// exception, then primitives. A cell reached twice is emitted once.
func buildCellInversions(c *Context, libs *netlist.Libraries) {
	var cells []string
	for _, m := range libs.Macros {
		cells = append(cells, libs.CollapsedName(m.Name))
	}
	for _, p := range libs.Primitives() {
		cells = append(cells, p.Name)
	}

	seen := make(map[string]bool, len(cells))
	for _, cell := range cells {
		pins := libs.InvertiblePins[cell]
		if len(pins) == 0 || seen[cell] {
			continue
		}
		seen[cell] = true

		rec := CellInversion{Cell: c.str(cell)}
		for _, port := range sortedKeys(pins) {
			param := c.str(pins[port])
			rec.CellPins = append(rec.CellPins, CellPinInversion{
				CellPin:      c.str(port),
				NotInverting: PropertyEntry{Key: param, TextValue: c.str(notInvertingValue)},
				Inverting:    PropertyEntry{Key: param, TextValue: c.str(invertingValue)},
			})
		}
		c.dev.CellInversions = append(c.dev.CellInversions, rec)
	}
}

func buildParameterDefinitions(c *Context, libs *netlist.Libraries) error {
	for _, cell := range libs.Cells() {
		params := libs.DefaultParameters[cell.Name]
		if len(params) == 0 {
			continue
		}
		rec := CellParameterDefinition{CellType: c.str(cell.Name)}
		for _, name := range sortedKeys(params) {
			prop := params[name]
			format, ok := ParseParameterFormat(prop.Type)
			if !ok {
				return integrityf("parameter", cell.Name+"."+name, "unknown format %q", prop.Type)
			}
			key := c.str(name)
			rec.Parameters = append(rec.Parameters, ParameterDefinition{
				Name:    key,
				Format:  format,
				Default: PropertyEntry{Key: key, TextValue: c.str(prop.Value)},
			})
		}
		c.dev.ParameterDefs = append(c.dev.ParameterDefs, rec)
	}
	return nil
}
