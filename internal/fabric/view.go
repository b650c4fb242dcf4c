package fabric

import "fmt"

// Direction of a BEL pin or site pin.
type Direction int

const (
	Input Direction = iota
	Output
	Inout
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	case Inout:
		return "inout"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection maps a description string to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "input":
		return Input, nil
	case "output":
		return Output, nil
	case "inout":
		return Inout, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// BELClass is the category of a BEL.
type BELClass int

const (
	ClassLogic BELClass = iota
	ClassRouting
	ClassPort
)

func (c BELClass) String() string {
	switch c {
	case ClassLogic:
		return "logic"
	case ClassRouting:
		return "routing"
	case ClassPort:
		return "port"
	}
	return fmt.Sprintf("BELClass(%d)", int(c))
}

// ParseBELClass maps a description string to a BELClass.
func ParseBELClass(s string) (BELClass, error) {
	switch s {
	case "logic":
		return ClassLogic, nil
	case "routing":
		return ClassRouting, nil
	case "port":
		return ClassPort, nil
	}
	return 0, fmt.Errorf("unknown bel class %q", s)
}

// BEL is a primitive element inside a site view.
type BEL struct {
	Name         string
	Type         string
	Class        BELClass
	Pins         []*BELPin
	NonInverting *BELPin
	Inverting    *BELPin
}

// CanInvert reports whether the BEL has an inverter pin pair.
func (b *BEL) CanInvert() bool {
	return b.NonInverting != nil && b.Inverting != nil
}

// Pin returns the named pin of the BEL.
func (b *BEL) Pin(name string) (*BELPin, bool) {
	for _, p := range b.Pins {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// BELPin is a pin of a BEL. Pins are compared by pointer identity.
type BELPin struct {
	Name string
	Dir  Direction
	BEL  *BEL
}

// SiteWire connects BEL pins inside a site.
type SiteWire struct {
	Name string
	Pins []*BELPin
}

// SitePIP is a programmable connection between two BEL pins of a routing BEL.
type SitePIP struct {
	In  *BELPin
	Out *BELPin
}

// SiteView is a transient instantiation of a site as one of its types.
//
// SitePins lists input pins first; LastInput is the index of the last
// input pin, or -1. PrimaryPins maps a pin name of this view to the pin
// name of the site's primary type when they differ. PinBELs maps each
// site pin to the port BEL realizing it.
type SiteView struct {
	Type        string
	Site        *Site
	BELs        []*BEL
	SitePins    []string
	LastInput   int
	SiteWires   []*SiteWire
	SitePIPs    []*SitePIP
	PrimaryPins map[string]string
	PinBELs     map[string]*BEL
}

// PrimarySitePinName resolves a pin of this view to the primary type's
// pin name.
func (v *SiteView) PrimarySitePinName(pin string) string {
	if p, ok := v.PrimaryPins[pin]; ok {
		return p
	}
	return pin
}

// SitePinBEL returns the port BEL realizing a site pin.
func (v *SiteView) SitePinBEL(pin string) (*BEL, bool) {
	b, ok := v.PinBELs[pin]
	return b, ok
}

// SitePIPsFor returns every site PIP driven by the given input BEL pin,
// in declaration order.
func (v *SiteView) SitePIPsFor(pin *BELPin) []*SitePIP {
	var out []*SitePIP
	for _, sp := range v.SitePIPs {
		if sp.In == pin {
			out = append(out, sp)
		}
	}
	return out
}
