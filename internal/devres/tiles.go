package devres

import "math"

// buildTiles emits one record per physical tile in fabric order.
func buildTiles(c *Context) error {
	tiles := c.fab.Tiles()
	c.dev.Tiles = make([]Tile, 0, len(tiles))
	for _, tile := range tiles {
		typ, ok := c.tileTypes.Index(tile.Type)
		if !ok {
			return integrityf("tile type", tile.Type, "tile %s has no tile type record", tile.Name)
		}
		row, err := narrow16(tile.Name, "row", tile.Row)
		if err != nil {
			return err
		}
		col, err := narrow16(tile.Name, "col", tile.Col)
		if err != nil {
			return err
		}
		rec := Tile{
			Name: c.str(tile.Name),
			Type: uint32(typ),
			Row:  row,
			Col:  col,
		}
		for slot, site := range tile.Sites {
			rec.Sites = append(rec.Sites, Site{Name: c.str(site.Name), Type: uint32(slot)})
		}
		c.dev.Tiles = append(c.dev.Tiles, rec)
	}
	return nil
}

func narrow16(tile, field string, v int) (int16, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, &RangeError{Entity: "tile " + tile, Field: field, Value: int64(v)}
	}
	return int16(v), nil
}
