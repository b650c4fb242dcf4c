package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/devres/internal/artifact"
	"github.com/robert-at-pretension-io/devres/internal/config"
	"github.com/robert-at-pretension-io/devres/internal/devres"
	"github.com/robert-at-pretension-io/devres/internal/fabric"
	"github.com/robert-at-pretension-io/devres/internal/fabric/fabrictest"
	"github.com/robert-at-pretension-io/devres/internal/interchange"
	"github.com/robert-at-pretension-io/devres/internal/netlist/netlisttest"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// writeFixture lays out a project with one device description and a cell
// library and returns the resolved device.
func writeFixture(t *testing.T, root string, desc *fabric.Description) config.ResolvedDevice {
	t.Helper()
	dev := config.ResolvedDevice{
		Fabric:    filepath.Join(root, "parts", "xctest.json"),
		Libraries: filepath.Join(root, "cells.json"),
		OutputDir: filepath.Join(root, "build"),
	}
	writeJSON(t, dev.Fabric, desc)
	writeJSON(t, dev.Libraries, netlisttest.Libraries())
	return dev
}

func newTestExporter(cfg *config.Config) (*Exporter, *bytes.Buffer) {
	var out bytes.Buffer
	e := New(cfg)
	e.Out = &out
	return e, &out
}

func TestRunWritesArtifact(t *testing.T) {
	t.Setenv("DEVRES_TIMING_JSONL", "")
	root := t.TempDir()
	dev := writeFixture(t, root, fabrictest.Description())

	e, out := newTestExporter(config.DefaultConfig())
	e.Verbose = true
	reports, err := e.Run(context.Background(), root, []config.ResolvedDevice{dev})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	r := reports[0]
	assert.Equal(t, "xctest", r.Device)
	assert.Equal(t, filepath.Join(root, "build", "xctest.device"), r.Output)
	assert.False(t, r.Cached)
	assert.Positive(t, r.Bytes)
	assert.Len(t, r.Fingerprint, 16)
	require.NotNil(t, r.Policy)
	assert.Empty(t, r.Policy.Violations)

	header, err := interchange.InspectFile(r.Output)
	require.NoError(t, err)
	assert.Equal(t, "xctest", header.Name)
	assert.Equal(t, 3, header.Tiles)
	assert.True(t, header.PrimLibs)

	assert.Contains(t, out.String(), "✓ xctest -> ")
	assert.Contains(t, out.String(), "wires: 13")
}

func TestRunSkipsUnchangedInput(t *testing.T) {
	root := t.TempDir()
	dev := writeFixture(t, root, fabrictest.Description())
	cfg := config.DefaultConfig()

	e, _ := newTestExporter(cfg)
	first, err := e.Run(context.Background(), root, []config.ResolvedDevice{dev})
	require.NoError(t, err)
	require.False(t, first[0].Cached)

	e, out := newTestExporter(cfg)
	second, err := e.Run(context.Background(), root, []config.ResolvedDevice{dev})
	require.NoError(t, err)
	assert.True(t, second[0].Cached)
	assert.Equal(t, first[0].Fingerprint, second[0].Fingerprint)
	assert.Equal(t, first[0].Bytes, second[0].Bytes)
	assert.Contains(t, out.String(), "unchanged")

	// A removed output invalidates the entry.
	require.NoError(t, os.Remove(first[0].Output))
	e, _ = newTestExporter(cfg)
	third, err := e.Run(context.Background(), root, []config.ResolvedDevice{dev})
	require.NoError(t, err)
	assert.False(t, third[0].Cached)
	assert.FileExists(t, first[0].Output)

	// So does a changed option.
	cfg.Encoding.Compression = interchange.CompressionNone
	e, _ = newTestExporter(cfg)
	fourth, err := e.Run(context.Background(), root, []config.ResolvedDevice{dev})
	require.NoError(t, err)
	assert.False(t, fourth[0].Cached)
	assert.Equal(t, first[0].Fingerprint, fourth[0].Fingerprint, "framing does not change the encoded message")
}

func TestRunReportsFailuresAndContinues(t *testing.T) {
	root := t.TempDir()
	good := writeFixture(t, root, fabrictest.Description())

	bad := config.ResolvedDevice{
		Fabric:    filepath.Join(root, "parts", "bad.json"),
		OutputDir: filepath.Join(root, "build"),
	}
	require.NoError(t, os.WriteFile(bad.Fabric, []byte(`{"name":"bad","series":"S","site_types":{},"tile_types":{},"tiles":[],"bogus":1}`), 0o644))

	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = boolPtr(false)
	e, out := newTestExporter(cfg)
	reports, err := e.Run(context.Background(), root, []config.ResolvedDevice{bad, good})
	require.Error(t, err)
	require.Len(t, reports, 2)
	assert.NotEmpty(t, reports[0].Error)
	assert.Empty(t, reports[1].Error)
	assert.FileExists(t, reports[1].Output)
	assert.Contains(t, out.String(), "✗ "+bad.Fabric)
}

func TestPolicyFailureBlocksArtifact(t *testing.T) {
	root := t.TempDir()
	desc := fabrictest.Description()
	desc.Packages = append(desc.Packages, fabric.PackageDef{Name: "bare", Pins: []fabric.PackagePinDef{}})
	dev := writeFixture(t, root, desc)

	cfg := config.DefaultConfig()
	cfg.Policy.Rules["empty_package"] = "error"
	e, _ := newTestExporter(cfg)
	report, err := e.Export(context.Background(), dev)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPolicy))
	require.NotNil(t, report.Policy)
	require.Len(t, report.Policy.Violations, 1)
	assert.Equal(t, "bare", report.Policy.Violations[0].Entity)
	assert.NoFileExists(t, filepath.Join(dev.OutputDir, "xctest.device"))

	cfg.Policy.Rules["empty_package"] = "warning"
	e, _ = newTestExporter(cfg)
	report, err = e.Export(context.Background(), dev)
	require.NoError(t, err)
	assert.FileExists(t, report.Output)
}

func TestIntegrityErrorSurfaces(t *testing.T) {
	root := t.TempDir()
	desc := fabrictest.Description()
	slot := desc.TileTypes["CLB"]
	slot.Sites[0].AltTypes = []string{"IOB"}
	desc.TileTypes["CLB"] = slot
	dev := writeFixture(t, root, desc)

	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = boolPtr(false)
	e, _ := newTestExporter(cfg)
	_, err := e.Export(context.Background(), dev)
	require.Error(t, err)
	assert.ErrorIs(t, err, devres.ErrIntegrity)
	assert.NoFileExists(t, filepath.Join(dev.OutputDir, "xctest.device"))
}

func TestRunUploadsToStore(t *testing.T) {
	root := t.TempDir()
	dev := writeFixture(t, root, fabrictest.Description())

	cfg := config.DefaultConfig()
	cfg.Upload.Prefix = "nightly"
	store := artifact.NewMemoryStore()
	e, _ := newTestExporter(cfg)
	e.Store = store
	reports, err := e.Run(context.Background(), root, []config.ResolvedDevice{dev})
	require.NoError(t, err)

	require.NotEmpty(t, e.RunID)
	assert.Equal(t, e.RunID+"/nightly/xctest.device", reports[0].Uploaded)

	paths, err := store.List(context.Background(), e.RunID)
	require.NoError(t, err)
	assert.Equal(t, []string{"nightly/xctest.device"}, paths)

	stored, err := store.Get(context.Background(), e.RunID, "nightly/xctest.device")
	require.NoError(t, err)
	onDisk, err := os.ReadFile(reports[0].Output)
	require.NoError(t, err)
	assert.Equal(t, onDisk, stored)
}

func TestRunJSONOutput(t *testing.T) {
	root := t.TempDir()
	dev := writeFixture(t, root, fabrictest.Description())

	e, out := newTestExporter(config.DefaultConfig())
	e.JSONOutput = true
	e.Progress = true
	_, err := e.Run(context.Background(), root, []config.ResolvedDevice{dev})
	require.NoError(t, err)

	var reports []Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &reports), "progress lines must not leak into JSON output")
	require.Len(t, reports, 1)
	assert.Equal(t, "xctest", reports[0].Device)
}

func TestTimingJSONLWritten(t *testing.T) {
	root := t.TempDir()
	dev := writeFixture(t, root, fabrictest.Description())
	timingPath := filepath.Join(root, "timing.jsonl")

	e, _ := newTestExporter(config.DefaultConfig())
	e.Timing = true
	e.TimingPath = timingPath
	_, err := e.Run(context.Background(), root, []config.ResolvedDevice{dev})
	require.NoError(t, err)

	raw, err := os.ReadFile(timingPath)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))

	kinds := map[string]bool{}
	for _, line := range lines {
		var s span
		require.NoError(t, json.Unmarshal(line, &s))
		kinds[string(s.Kind)+":"+s.Name] = true
		if s.Kind == spanPhase {
			assert.Equal(t, dev.Fabric, s.Device)
		}
	}
	for _, want := range []string{"phase:" + devres.PhasePopulate, "phase:" + devres.PhaseStrings, "stage:encode", "stage:policy", "device:export", "stage:total"} {
		assert.True(t, kinds[want], "missing timing event %s", want)
	}
}

func TestResolveTimingPath(t *testing.T) {
	e := New(nil)
	t.Setenv("DEVRES_TIMING_JSONL", "")
	t.Setenv("DEVRES_TIMING", "")
	assert.Empty(t, e.resolveTimingPath("/proj"))

	t.Setenv("DEVRES_TIMING", "yes")
	assert.Equal(t, filepath.Join("/proj", "timing.jsonl"), e.resolveTimingPath("/proj"))

	e.Timing = true
	e.TimingPath = "/tmp/t.jsonl"
	assert.Equal(t, "/tmp/t.jsonl", e.resolveTimingPath("/proj"))

	t.Setenv("DEVRES_TIMING_JSONL", "/var/x.jsonl")
	assert.Equal(t, "/var/x.jsonl", e.resolveTimingPath("/proj"))
}

func TestConvertWithoutWriting(t *testing.T) {
	root := t.TempDir()
	dev := writeFixture(t, root, fabrictest.Description())

	e := New(nil)
	conv, err := e.Convert(dev)
	require.NoError(t, err)
	assert.Equal(t, "xctest", conv.Tables.Device)
	assert.Equal(t, len(conv.Encoded), conv.Tables.Counts.Bytes)
	assert.NoDirExists(t, dev.OutputDir)
	assert.True(t, strings.HasPrefix(EngineVersion(), "devres-"))
}

func boolPtr(v bool) *bool { return &v }
