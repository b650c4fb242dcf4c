package devres

import (
	"sort"

	"github.com/robert-at-pretension-io/devres/internal/fabric"
	"github.com/robert-at-pretension-io/devres/internal/opt"
)

// buildPackages emits packages and their pins sorted by byte-wise name
// order; grades keep the fabric's order.
func buildPackages(c *Context) error {
	names := c.fab.Packages()
	sort.Strings(names)
	c.dev.Packages = make([]Package, 0, len(names))
	for _, name := range names {
		pkg, ok := c.fab.Package(name)
		if !ok {
			return integrityf("package", name, "listed but not found")
		}
		rec := Package{Name: c.str(pkg.Name)}

		pins := make([]fabric.PackagePin, len(pkg.Pins))
		copy(pins, pkg.Pins)
		sort.SliceStable(pins, func(i, j int) bool { return pins[i].Name < pins[j].Name })
		for _, p := range pins {
			out := PackagePin{PackagePin: c.str(p.Name)}
			if site, ok := p.BoundSite(); ok {
				out.Site = opt.Some(c.str(site))
			}
			if bel, ok := p.BoundBEL(); ok {
				out.BEL = opt.Some(c.str(bel))
			}
			rec.PackagePins = append(rec.PackagePins, out)
		}

		for _, g := range pkg.Grades {
			rec.Grades = append(rec.Grades, Grade{
				Name:             c.str(g.Name),
				SpeedGrade:       c.str(g.SpeedGrade),
				TemperatureGrade: c.str(g.TemperatureGrade),
			})
		}
		c.dev.Packages = append(c.dev.Packages, rec)
	}
	return nil
}
