package summary

import (
	"strconv"
	"strings"
)

// Delta captures added and removed rows between two runs. Two runs over
// the same input must produce an empty delta and equal fingerprints.
type Delta struct {
	FingerprintChanged bool   `json:"fingerprint_changed"`
	Added              Tables `json:"added"`
	Removed            Tables `json:"removed"`
}

// ComputeDelta computes row-level additions and removals between two runs.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		FingerprintChanged: prev.Fingerprint != next.Fingerprint,
		Added:              diffTables(prev, next),
		Removed:            diffTables(next, prev),
	}
}

// Empty reports whether no row changed.
func (d Delta) Empty() bool {
	for _, t := range []Tables{d.Added, d.Removed} {
		if len(t.SiteTypes)+len(t.TileTypes)+len(t.Tiles)+len(t.Packages)+len(t.Inversions) > 0 {
			return false
		}
	}
	return true
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()
	out.Device = to.Device
	out.Part = to.Part

	out.SiteTypes = diffRows(from.SiteTypes, to.SiteTypes, func(r SiteTypeRow) string {
		return key(r.Name, itoa(r.BELs), itoa(r.BELPins), itoa(r.SitePins), itoa(r.LastInput),
			itoa(r.SiteWires), itoa(r.SitePIPs), strings.Join(r.AltTypes, ","))
	})
	out.TileTypes = diffRows(from.TileTypes, to.TileTypes, func(r TileTypeRow) string {
		return key(r.Name, itoa(r.Wires), itoa(r.PIPs), itoa(r.RouteThrus), itoa(r.Sites), itoa(r.MaxPIPWire))
	})
	out.Tiles = diffRows(from.Tiles, to.Tiles, func(r TileRow) string {
		return key(r.Name, r.Type, itoa(r.Row), itoa(r.Col))
	})
	out.Packages = diffRows(from.Packages, to.Packages, func(r PackageRow) string {
		return key(r.Name, itoa(r.Pins), itoa(r.BoundPins), itoa(r.Grades))
	})
	out.Inversions = diffRows(from.Inversions, to.Inversions, func(r InversionRow) string {
		return key(r.Cell, r.Pin)
	})

	return out
}

func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]struct{}, len(from))
	for _, row := range from {
		fromSet[key(row)] = struct{}{}
	}
	diff := []T{}
	for _, row := range to {
		if _, ok := fromSet[key(row)]; !ok {
			diff = append(diff, row)
		}
	}
	return diff
}

func key(parts ...string) string {
	return strings.Join(parts, "|")
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
