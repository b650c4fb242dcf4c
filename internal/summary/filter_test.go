package summary

import "testing"

func TestFilterTablesByTileTypes(t *testing.T) {
	tables := Tables{
		Device: "xctest",
		TileTypes: []TileTypeRow{
			{Name: "CLB", Wires: 6},
			{Name: "IOB_T", Wires: 1, MaxPIPWire: -1},
		},
		Tiles: []TileRow{
			{Name: "CLB_X0Y0", Type: "CLB"},
			{Name: "CLB_X1Y0", Type: "CLB", Col: 1},
			{Name: "IOB_X0Y1", Type: "IOB_T", Row: 1},
		},
		SiteTypes: []SiteTypeRow{{Name: "SLICEL"}},
	}

	filtered := FilterTablesByTileTypes(tables, map[string]bool{"IOB_T": true})

	if filtered.Device != "xctest" {
		t.Fatalf("expected device name kept, got %q", filtered.Device)
	}
	if len(filtered.TileTypes) != 1 || filtered.TileTypes[0].Name != "IOB_T" {
		t.Fatalf("expected only IOB_T tile type row, got %#v", filtered.TileTypes)
	}
	if len(filtered.Tiles) != 1 || filtered.Tiles[0].Name != "IOB_X0Y1" {
		t.Fatalf("expected only IOB tile rows, got %#v", filtered.Tiles)
	}
	if len(filtered.SiteTypes) != 1 {
		t.Fatalf("expected site type rows kept, got %#v", filtered.SiteTypes)
	}
}

func TestFilterDeltaByTileTypesEmpty(t *testing.T) {
	delta := Delta{
		Added: Tables{
			Tiles: []TileRow{{Name: "A", Type: "CLB"}},
		},
		Removed: Tables{
			Tiles: []TileRow{{Name: "B", Type: "CLB"}},
		},
	}

	filtered := FilterDeltaByTileTypes(delta, map[string]bool{})
	if len(filtered.Added.Tiles) != 0 || len(filtered.Removed.Tiles) != 0 {
		t.Fatalf("expected empty delta, got %#v", filtered)
	}
	if !filtered.Empty() {
		t.Fatalf("expected Empty to report true")
	}
}
