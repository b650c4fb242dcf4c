package interchange

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrNotArtifact is returned when a message does not carry the artifact
// magic.
var ErrNotArtifact = errors.New("interchange: not a device resources artifact")

// Header summarizes an encoded artifact without decoding its tables.
type Header struct {
	Version        uint64 `json:"version"`
	Name           string `json:"name"`
	Strings        int    `json:"strings"`
	SiteTypes      int    `json:"site_types"`
	TileTypes      int    `json:"tile_types"`
	Tiles          int    `json:"tiles"`
	Wires          int    `json:"wires"`
	Nodes          int    `json:"nodes"`
	Packages       int    `json:"packages"`
	ParameterDefs  int    `json:"parameter_defs"`
	CellInversions int    `json:"cell_inversions"`
	ExceptionMap   int    `json:"exception_map"`
	PrimLibs       bool   `json:"prim_libs"`
}

// Inspect reads the top level of an encoded Device message.
func Inspect(msg []byte) (*Header, error) {
	h := &Header{}
	var magic string
	var name uint64
	var strs []string

	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return nil, fmt.Errorf("interchange: tag: %w", protowire.ParseError(n))
		}
		msg = msg[n:]

		switch {
		case typ == protowire.VarintType && (num == fieldVersion || num == fieldName):
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return nil, fmt.Errorf("interchange: field %d: %w", num, protowire.ParseError(n))
			}
			msg = msg[n:]
			if num == fieldVersion {
				h.Version = v
			} else {
				name = v
			}
		case typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return nil, fmt.Errorf("interchange: field %d: %w", num, protowire.ParseError(n))
			}
			msg = msg[n:]
			switch num {
			case fieldMagic:
				magic = string(v)
			case fieldStrings:
				strs = append(strs, string(v))
			case fieldSiteTypes:
				h.SiteTypes++
			case fieldTileTypes:
				h.TileTypes++
			case fieldTiles:
				h.Tiles++
			case fieldWires:
				h.Wires++
			case fieldNodes:
				h.Nodes++
			case fieldPackages:
				h.Packages++
			case fieldParameterDefs:
				h.ParameterDefs++
			case fieldCellInversions:
				h.CellInversions++
			case fieldExceptionMap:
				h.ExceptionMap++
			case fieldPrimLibs:
				h.PrimLibs = true
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return nil, fmt.Errorf("interchange: field %d: %w", num, protowire.ParseError(n))
			}
			msg = msg[n:]
		}
	}

	if magic != Magic {
		return nil, ErrNotArtifact
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("interchange: unsupported format version %d", h.Version)
	}
	if name >= uint64(len(strs)) {
		return nil, fmt.Errorf("interchange: device name index %d out of range", name)
	}
	h.Name = strs[name]
	h.Strings = len(strs)
	return h, nil
}

// InspectFile reads the header of the artifact at path.
func InspectFile(path string) (*Header, error) {
	msg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Inspect(msg)
}
