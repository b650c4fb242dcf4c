// Package devres canonicalizes a device fabric into device resources
// tables: one record per site type, tile type, wire and node, with every
// name replaced by an index into a single deduplicated string table.
package devres

import (
	"fmt"
	"time"

	"github.com/robert-at-pretension-io/devres/internal/fabric"
	"github.com/robert-at-pretension-io/devres/internal/netlist"
)

// DefaultViewCacheSize is the number of site views kept alive between
// passes.
const DefaultViewCacheSize = 256

// Phase names reported to OnPhase, in run order.
const (
	PhasePopulate  = "populate"
	PhaseSiteTypes = "site_types"
	PhaseTileTypes = "tile_types"
	PhaseTiles     = "tiles"
	PhaseWires     = "wires_nodes"
	PhasePrimLibs  = "prims_macros"
	PhasePackages  = "packages"
	PhaseStrings   = "strings"
)

// Builder runs one conversion. It is not safe for concurrent use.
type Builder struct {
	Fabric fabric.Fabric
	// Libraries may be nil for a device without a cell library.
	Libraries *netlist.Libraries
	// ViewCacheSize bounds the site view cache; zero releases every view
	// immediately.
	ViewCacheSize int
	// OnPhase, when set, is called after each phase completes.
	OnPhase func(phase string, start time.Time, elapsed time.Duration)
}

// NewBuilder returns a Builder with the default view cache.
func NewBuilder(fab fabric.Fabric, libs *netlist.Libraries) *Builder {
	return &Builder{Fabric: fab, Libraries: libs, ViewCacheSize: DefaultViewCacheSize}
}

// Build runs every phase and returns the finished tables. Any error
// aborts the run; no partial Device is returned.
func (b *Builder) Build() (*Device, error) {
	if b.Fabric == nil {
		return nil, fmt.Errorf("devres: no fabric")
	}
	libs := b.Libraries
	if libs == nil {
		libs = &netlist.Libraries{}
	}
	c, err := newContext(b.Fabric, b.ViewCacheSize)
	if err != nil {
		return nil, err
	}
	defer c.views.release()

	phases := []struct {
		name string
		run  func(*Context) error
	}{
		{PhasePopulate, func(c *Context) error {
			if err := populate(c, libs); err != nil {
				return err
			}
			c.dev.Name = c.str(c.fab.Name())
			return nil
		}},
		{PhaseSiteTypes, func(c *Context) error {
			if err := buildSiteTypes(c); err != nil {
				return err
			}
			return linkAlternates(c)
		}},
		{PhaseTileTypes, buildTileTypes},
		{PhaseTiles, buildTiles},
		{PhaseWires, buildWiresAndNodes},
		{PhasePrimLibs, func(c *Context) error { return buildPrimLibs(c, libs) }},
		{PhasePackages, buildPackages},
		{PhaseStrings, func(c *Context) error {
			c.dev.Strings = append([]string(nil), c.strings.Values()...)
			return nil
		}},
	}

	for _, p := range phases {
		start := time.Now()
		if err := p.run(c); err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		if b.OnPhase != nil {
			b.OnPhase(p.name, start, time.Since(start))
		}
	}
	return c.dev, nil
}
