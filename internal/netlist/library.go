// Package netlist holds the primitive and macro cell libraries of a device
// series and writes them into the string-indexed netlist section embedded
// in a device resources artifact.
package netlist

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	PrimitivesLibrary = "hdi_primitives"
	MacrosLibrary     = "macros"
)

// Libraries is the per-series cell library input.
//
// MacroExpandExceptions maps a primitive name to the macro it expands to
// when the primitive is instantiated directly. MacroCollapseExceptions maps
// a macro name back to the primitive it collapses to. DefaultParameters and
// InvertiblePins are keyed by cell name.
type Libraries struct {
	Prims                   []Cell                         `json:"prims"`
	Macros                  []Cell                         `json:"macros"`
	MacroExpandExceptions   map[string]string              `json:"macro_expand_exceptions,omitempty"`
	MacroCollapseExceptions map[string]string              `json:"macro_collapse_exceptions,omitempty"`
	DefaultParameters       map[string]map[string]Property `json:"default_parameters,omitempty"`
	InvertiblePins          map[string]map[string]string   `json:"invertible_pins,omitempty"`
}

type Cell struct {
	Name      string     `json:"name"`
	Ports     []Port     `json:"ports"`
	Instances []Instance `json:"instances,omitempty"`
	Nets      []Net      `json:"nets,omitempty"`
}

type Port struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

type Instance struct {
	Name       string            `json:"name"`
	Cell       string            `json:"cell"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Net connects ports. A PortRef with an empty Instance is a port of the
// enclosing cell.
type Net struct {
	Name  string    `json:"name"`
	Ports []PortRef `json:"ports"`
}

type PortRef struct {
	Instance string `json:"instance,omitempty"`
	Port     string `json:"port"`
}

// Property is a default parameter value and its format name (binary,
// bool, double, hex, int or string).
type Property struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Decode parses a JSON library file.
func Decode(data []byte) (*Libraries, error) {
	var libs Libraries
	if err := json.Unmarshal(data, &libs); err != nil {
		return nil, fmt.Errorf("parsing cell libraries: %w", err)
	}
	return &libs, nil
}

// LoadFile reads and parses a JSON library file.
func LoadFile(path string) (*Libraries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cell libraries: %w", err)
	}
	return Decode(data)
}

// Primitives returns the primitive cells that have no macro of the same
// name, in library order.
func (l *Libraries) Primitives() []Cell {
	macros := make(map[string]bool, len(l.Macros))
	for _, c := range l.Macros {
		macros[c.Name] = true
	}
	out := make([]Cell, 0, len(l.Prims))
	for _, c := range l.Prims {
		if !macros[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

// Cells returns the deduplicated primitives followed by the macros.
func (l *Libraries) Cells() []Cell {
	return append(l.Primitives(), l.Macros...)
}

// CollapsedName resolves a macro name to the primitive it collapses to,
// or returns name unchanged.
func (l *Libraries) CollapsedName(name string) string {
	if prim, ok := l.MacroCollapseExceptions[name]; ok {
		return prim
	}
	return name
}
