package devres

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robert-at-pretension-io/devres/internal/fabric"
)

func TestWireKeyRoundTrip(t *testing.T) {
	cases := []struct {
		tile fabric.TileID
		wire int
	}{
		{0, 0},
		{1, 0},
		{0, 1},
		{12345, 678},
		{math.MaxUint32, math.MaxUint32},
		{math.MaxUint32, 0},
	}
	seen := make(map[uint64]bool)
	for _, tc := range cases {
		key := MakeKey(tc.tile, tc.wire)
		tile, wire := DecodeKey(key)
		assert.Equal(t, tc.tile, tile)
		assert.Equal(t, tc.wire, wire)
		assert.Equal(t, key, MakeKey(tile, wire))
		assert.False(t, seen[key], "key collision for %v", tc)
		seen[key] = true
	}
}

func TestPseudoCellsKeyedBySiteAndBEL(t *testing.T) {
	c, err := newContext(nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	cells := pseudoCells(c, []fabric.BELPinRef{
		{Site: 0, BEL: "LUT", Pin: "A"},
		{Site: 1, BEL: "LUT", Pin: "A"},
		{Site: 0, BEL: "LUT", Pin: "O"},
	})
	assert.Len(t, cells, 2)
	assert.Len(t, cells[0].Pins, 2)
	assert.Len(t, cells[1].Pins, 1)
}

func TestNarrow16(t *testing.T) {
	v, err := narrow16("T", "row", math.MaxInt16)
	assert.NoError(t, err)
	assert.Equal(t, int16(math.MaxInt16), v)

	_, err = narrow16("T", "row", math.MaxInt16+1)
	assert.ErrorIs(t, err, ErrRange)
	_, err = narrow16("T", "col", math.MinInt16-1)
	assert.ErrorIs(t, err, ErrRange)
}
