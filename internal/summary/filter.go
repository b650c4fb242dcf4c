package summary

// FilterTablesByTileTypes returns a new Tables object containing only tile
// type rows and tile rows of the given tile types. Site type, package and
// inversion rows are device-wide and kept as is.
func FilterTablesByTileTypes(tables Tables, types map[string]bool) Tables {
	if len(types) == 0 {
		return emptyTables()
	}
	out := emptyTables()
	out.Device = tables.Device
	out.Part = tables.Part
	out.Fingerprint = tables.Fingerprint
	out.Counts = tables.Counts

	for _, row := range tables.TileTypes {
		if types[row.Name] {
			out.TileTypes = append(out.TileTypes, row)
		}
	}
	for _, row := range tables.Tiles {
		if types[row.Type] {
			out.Tiles = append(out.Tiles, row)
		}
	}
	out.SiteTypes = append(out.SiteTypes, tables.SiteTypes...)
	out.Packages = append(out.Packages, tables.Packages...)
	out.Inversions = append(out.Inversions, tables.Inversions...)

	return out
}

// FilterDeltaByTileTypes returns a new Delta restricted to the given tile types.
func FilterDeltaByTileTypes(delta Delta, types map[string]bool) Delta {
	if len(types) == 0 {
		return Delta{
			Added:   emptyTables(),
			Removed: emptyTables(),
		}
	}
	return Delta{
		FingerprintChanged: delta.FingerprintChanged,
		Added:              FilterTablesByTileTypes(delta.Added, types),
		Removed:            FilterTablesByTileTypes(delta.Removed, types),
	}
}
