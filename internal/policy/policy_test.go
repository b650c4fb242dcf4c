package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/devres/internal/devres"
	"github.com/robert-at-pretension-io/devres/internal/fabric/fabrictest"
	"github.com/robert-at-pretension-io/devres/internal/netlist/netlisttest"
	"github.com/robert-at-pretension-io/devres/internal/summary"
)

func fixtureTables(t *testing.T) summary.Tables {
	t.Helper()
	dev, err := devres.NewBuilder(fabrictest.Memory(t, fabrictest.Description()), netlisttest.Libraries()).Build()
	require.NoError(t, err)
	return summary.BuildTables(dev, "", nil)
}

func rules(result *Result) []string {
	var out []string
	for _, v := range result.Violations {
		out = append(out, v.Rule)
	}
	return out
}

func TestCleanDeviceHasNoViolations(t *testing.T) {
	engine, err := New("")
	require.NoError(t, err)

	result, err := engine.Evaluate(Input{Summary: fixtureTables(t)})
	require.NoError(t, err)
	assert.Empty(t, result.Violations)
	assert.Equal(t, Summary{}, result.Summary)
	assert.False(t, result.Failed())
}

func TestBuiltinRulesFire(t *testing.T) {
	engine, err := New("")
	require.NoError(t, err)

	tables := fixtureTables(t)
	tables.SiteTypes[0].LastInput = tables.SiteTypes[0].SitePins
	tables.SiteTypes[1].BELs = 0
	tables.TileTypes[0].MaxPIPWire = tables.TileTypes[0].Wires
	tables.Packages = append(tables.Packages, summary.PackageRow{Name: "bare"})
	tables.Tiles = append(tables.Tiles, summary.TileRow{Name: "CLB_X0Y0", Type: "CLB"})

	result, err := engine.Evaluate(Input{Summary: tables})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"duplicate_tile_name",
		"empty_package",
		"last_input_range",
		"pip_wire_range",
		"site_type_without_bels",
	}, rules(result))
	assert.Equal(t, Summary{TotalViolations: 5, Errors: 3, Warnings: 2}, result.Summary)
	assert.True(t, result.Failed())

	for _, v := range result.Violations {
		if v.Rule == "duplicate_tile_name" {
			assert.Equal(t, "CLB_X0Y0", v.Entity)
		}
		if v.Rule == "empty_package" {
			assert.Equal(t, "bare", v.Entity)
			assert.Equal(t, "warning", v.Severity)
		}
	}
}

func TestSeverityOverrides(t *testing.T) {
	engine, err := New("")
	require.NoError(t, err)

	tables := fixtureTables(t)
	tables.Packages = append(tables.Packages, summary.PackageRow{Name: "bare"})
	tables.Tiles = append(tables.Tiles, summary.TileRow{Name: "CLB_X0Y0", Type: "CLB"})

	result, err := engine.Evaluate(Input{
		Summary: tables,
		Config: RuleConfig{Rules: map[string]string{
			"empty_package":       "error",
			"duplicate_tile_name": "off",
		}},
	})
	require.NoError(t, err)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "empty_package", result.Violations[0].Rule)
	assert.Equal(t, "error", result.Violations[0].Severity)
	assert.Equal(t, Summary{TotalViolations: 1, Errors: 1}, result.Summary)
}

func TestExtraPolicyDir(t *testing.T) {
	dir := t.TempDir()
	module := `package devres_custom

import rego.v1

violations contains v if {
	some tt in input.summary.tile_types
	tt.pips == 0
	v := {"rule": "tile_type_without_pips", "severity": "info", "entity": tt.name, "message": "tile type has no PIPs"}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.rego"), []byte(module), 0o644))

	engine, err := New(dir)
	require.NoError(t, err)

	result, err := engine.Evaluate(Input{Summary: fixtureTables(t)})
	require.NoError(t, err)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, Violation{
		Rule:     "tile_type_without_pips",
		Severity: "info",
		Entity:   "IOB_T",
		Message:  "tile type has no PIPs",
	}, result.Violations[0])
	assert.Equal(t, 1, result.Summary.Info)
	assert.False(t, result.Failed())
}

func TestNewRejectsBrokenModule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.rego"), []byte("package x\n\nthis is not rego"), 0o644))

	_, err := New(dir)
	assert.Error(t, err)
}
