package devres

import (
	"fmt"

	"github.com/robert-at-pretension-io/devres/internal/enumerator"
	"github.com/robert-at-pretension-io/devres/internal/fabric"
)

// MakeKey packs a tile address and a tile-local wire index into one key.
func MakeKey(tile fabric.TileID, wire int) uint64 {
	return uint64(tile)<<32 | uint64(uint32(wire))
}

// DecodeKey is the inverse of MakeKey.
func DecodeKey(key uint64) (fabric.TileID, int) {
	return fabric.TileID(key >> 32), int(uint32(key))
}

func wireKey(w fabric.Wire) uint64 {
	return MakeKey(w.Tile, w.Index)
}

func keyName(key uint64) string {
	tile, wire := DecodeKey(key)
	return fmt.Sprintf("%d:%d", tile, wire)
}

// buildWiresAndNodes deduplicates every wire and node of the fabric. The
// first pass only interns keys; the second decodes them, so every node
// member is known before any node is emitted.
func buildWiresAndNodes(c *Context) error {
	wires := enumerator.NewKeyRegistry()
	nodes := enumerator.NewKeyRegistry()

	internNode := func(w fabric.Wire) {
		if rep, ok := c.fab.Node(w); ok {
			nodes.Insert(wireKey(rep))
		}
	}
	for _, tile := range c.fab.Tiles() {
		n := c.fab.WireCount(tile)
		for i := 0; i < n; i++ {
			w := fabric.Wire{Tile: tile.ID, Index: i}
			wires.Insert(wireKey(w))
			internNode(w)
		}
		for _, pip := range c.fab.PIPs(tile) {
			internNode(fabric.Wire{Tile: tile.ID, Index: pip.Wire0})
			internNode(fabric.Wire{Tile: tile.ID, Index: pip.Wire1})
		}
	}

	c.dev.Wires = make([]Wire, 0, wires.Len())
	for _, key := range wires.Keys() {
		id, idx := DecodeKey(key)
		tile, ok := c.fab.Tile(id)
		if !ok {
			return integrityf("wire", keyName(key), "tile %d does not exist", id)
		}
		c.dev.Wires = append(c.dev.Wires, Wire{
			Tile: c.str(tile.Name),
			Wire: c.str(c.fab.WireName(tile, idx)),
		})
	}

	c.dev.Nodes = make([]Node, 0, nodes.Len())
	for _, key := range nodes.Keys() {
		id, idx := DecodeKey(key)
		members := c.fab.NodeWires(fabric.Wire{Tile: id, Index: idx})
		if len(members) == 0 {
			return integrityf("node", keyName(key), "node has no wires")
		}
		node := Node{Wires: make([]uint32, 0, len(members))}
		for _, m := range members {
			wi, ok := wires.Index(wireKey(m))
			if !ok {
				return integrityf("node", keyName(key), "member wire %s was never enumerated", keyName(wireKey(m)))
			}
			node.Wires = append(node.Wires, uint32(wi))
		}
		c.dev.Nodes = append(c.dev.Nodes, node)
	}
	return nil
}
