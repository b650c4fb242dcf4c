package devres

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/robert-at-pretension-io/devres/internal/enumerator"
	"github.com/robert-at-pretension-io/devres/internal/fabric"
)

// Context is the state of one conversion run. Each phase reads and extends
// it; nothing is shared between runs.
type Context struct {
	fab     fabric.Fabric
	strings *enumerator.Registry[string]

	// Representative site and tile for each type, first seen in fabric
	// order.
	siteReps map[string]*fabric.Site
	tileReps map[string]*fabric.Tile

	// Record order of site and tile types.
	siteTypes *enumerator.Registry[string]
	tileTypes *enumerator.Registry[string]

	// remap holds the pin correspondence computed at each type's
	// representative site. Placements reuse its slices when their own
	// correspondence is equal; the emitted values always come from the
	// placement.
	remap map[remapKey][]uint32
	views *viewCache

	dev *Device
}

// remapKey identifies the pin correspondence of an alternate type used at
// a site whose primary type is primary.
type remapKey struct {
	primary   uint32
	alternate uint32
}

func newContext(fab fabric.Fabric, viewCacheSize int) (*Context, error) {
	views, err := newViewCache(fab, viewCacheSize)
	if err != nil {
		return nil, err
	}
	return &Context{
		fab:       fab,
		strings:   enumerator.New[string](),
		siteReps:  make(map[string]*fabric.Site),
		tileReps:  make(map[string]*fabric.Tile),
		siteTypes: enumerator.New[string](),
		tileTypes: enumerator.New[string](),
		remap:     make(map[remapKey][]uint32),
		views:     views,
		dev:       &Device{},
	}, nil
}

// str interns s and returns its string table index.
func (c *Context) str(s string) uint32 {
	return uint32(c.strings.Insert(s))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type viewKey struct {
	site *fabric.Site
	typ  string
}

// viewCache keeps recently materialized site views alive so the populate,
// site type and tile type passes do not rebuild the same view. Evicted
// views are handed back to the fabric. A size of zero disables caching and
// every view is released right after use.
type viewCache struct {
	fab fabric.Fabric
	lru *lru.Cache[viewKey, *fabric.SiteView]
}

func newViewCache(fab fabric.Fabric, size int) (*viewCache, error) {
	c := &viewCache{fab: fab}
	if size <= 0 {
		return c, nil
	}
	cache, err := lru.NewWithEvict[viewKey, *fabric.SiteView](size, func(_ viewKey, v *fabric.SiteView) {
		fab.ReleaseSiteView(v)
	})
	if err != nil {
		return nil, fmt.Errorf("creating site view cache: %w", err)
	}
	c.lru = cache
	return c, nil
}

// with calls fn with a view of site instantiated as typ.
func (c *viewCache) with(site *fabric.Site, typ string, fn func(*fabric.SiteView) error) error {
	key := viewKey{site: site, typ: typ}
	if c.lru != nil {
		if v, ok := c.lru.Get(key); ok {
			return fn(v)
		}
	}
	v, err := c.fab.SiteView(site, typ)
	if err != nil {
		return fmt.Errorf("site %s as %s: %w", site.Name, typ, err)
	}
	if c.lru == nil {
		defer c.fab.ReleaseSiteView(v)
		return fn(v)
	}
	c.lru.Add(key, v)
	return fn(v)
}

// release hands every cached view back to the fabric.
func (c *viewCache) release() {
	if c.lru != nil {
		c.lru.Purge()
	}
}
