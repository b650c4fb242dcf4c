// Package exporter runs the device conversion pipeline: load and validate a
// device description, build the canonical tables, check them against the
// integrity policy, then write, cache and optionally upload the artifact.
package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/robert-at-pretension-io/devres/internal/artifact"
	"github.com/robert-at-pretension-io/devres/internal/config"
	"github.com/robert-at-pretension-io/devres/internal/devres"
	"github.com/robert-at-pretension-io/devres/internal/fabric"
	"github.com/robert-at-pretension-io/devres/internal/interchange"
	"github.com/robert-at-pretension-io/devres/internal/netlist"
	"github.com/robert-at-pretension-io/devres/internal/policy"
	"github.com/robert-at-pretension-io/devres/internal/summary"
	"github.com/robert-at-pretension-io/devres/internal/validator"
)

// engineRevision is bumped whenever the builder output for an unchanged
// input changes.
const engineRevision = 1

// ErrPolicy is returned when an error-severity integrity rule fired.
var ErrPolicy = errors.New("integrity policy failed")

// EngineVersion identifies the builder and wire format in cache entries.
func EngineVersion() string {
	return fmt.Sprintf("devres-%d.%d", engineRevision, interchange.FormatVersion)
}

// Exporter converts device descriptions into artifacts.
type Exporter struct {
	// Configuration loaded from devres.json
	Config *config.Config

	// Verbose output
	Verbose bool

	// Progress output (one line per device)
	Progress bool

	// JSON output mode
	JSONOutput bool

	// Timing output (JSONL)
	Timing     bool
	TimingPath string

	// Out receives human and JSON output. Defaults to os.Stdout.
	Out io.Writer

	// Store receives uploaded artifacts. When nil and upload is enabled in
	// the configuration, an S3 store is created from it.
	Store artifact.Store

	// RunID groups uploads of one Run. Generated when empty.
	RunID string

	root             string
	timing           *spanLog
	cache            *exportCache
	fabricValidator  *validator.FabricValidator
	summaryValidator *validator.SummaryValidator
	policyEngine     *policy.Engine
}

// Report describes the outcome for one device description.
type Report struct {
	Input       string         `json:"input"`
	Device      string         `json:"device,omitempty"`
	Output      string         `json:"output,omitempty"`
	Bytes       int64          `json:"bytes"`
	Cached      bool           `json:"cached"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Counts      summary.Counts `json:"counts"`
	Policy      *policy.Result `json:"policy,omitempty"`
	Uploaded    string         `json:"uploaded,omitempty"`
	DurationMS  float64        `json:"duration_ms"`
	Error       string         `json:"error,omitempty"`
}

// Conversion is the in-memory result of converting one description.
type Conversion struct {
	Device  *devres.Device
	Encoded []byte
	Tables  summary.Tables
	Policy  *policy.Result
}

// New creates an Exporter. A nil cfg means DefaultConfig.
func New(cfg *config.Config) *Exporter {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Exporter{Config: cfg, Out: os.Stdout}
}

func (e *Exporter) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

// Convert runs the in-memory pipeline for one description without writing
// anything.
func (e *Exporter) Convert(dev config.ResolvedDevice) (*Conversion, error) {
	raw, err := os.ReadFile(dev.Fabric)
	if err != nil {
		return nil, fmt.Errorf("read device description: %w", err)
	}
	return e.convert(dev.Fabric, raw, dev.Libraries)
}

func (e *Exporter) convert(input string, raw []byte, librariesPath string) (*Conversion, error) {
	cfg := e.Config

	stepStart := time.Now()
	if config.Enabled(cfg.Validation.Input) {
		if e.fabricValidator == nil {
			v, err := validator.NewFabricValidator()
			if err != nil {
				return nil, fmt.Errorf("initialize fabric validator: %w", err)
			}
			e.fabricValidator = v
		}
		if err := e.fabricValidator.ValidateJSON(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", input, err)
		}
	}
	desc, err := fabric.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	fab, err := fabric.NewMemory(desc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	var libs *netlist.Libraries
	if librariesPath != "" {
		libs, err = netlist.LoadFile(librariesPath)
		if err != nil {
			return nil, fmt.Errorf("load cell libraries: %w", err)
		}
	}
	e.timing.stage(stageLoad, input, stepStart)

	builder := devres.NewBuilder(fab, libs)
	builder.ViewCacheSize = cfg.ViewCacheSize()
	builder.OnPhase = e.timing.phases(input)
	device, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}

	stepStart = time.Now()
	encoded := interchange.Encode(device)
	e.timing.stage(stageEncode, input, stepStart)

	conv := &Conversion{
		Device:  device,
		Encoded: encoded,
		Tables:  summary.BuildTables(device, cfg.Part, encoded),
	}

	if config.Enabled(cfg.Validation.Summary) {
		if e.summaryValidator == nil {
			v, err := validator.NewSummaryValidator()
			if err != nil {
				return nil, fmt.Errorf("initialize summary validator: %w", err)
			}
			e.summaryValidator = v
		}
		if err := e.summaryValidator.Validate(conv.Tables); err != nil {
			return nil, fmt.Errorf("%s: %w", input, err)
		}
	}

	if config.Enabled(cfg.Policy.Enabled) {
		stepStart = time.Now()
		if e.policyEngine == nil {
			engine, err := policy.New(cfg.PolicyDir(e.root))
			if err != nil {
				return nil, fmt.Errorf("initialize policy engine: %w", err)
			}
			e.policyEngine = engine
		}
		result, err := e.policyEngine.Evaluate(policy.Input{
			Summary: conv.Tables,
			Config:  policy.RuleConfig{Rules: cfg.Policy.Rules},
		})
		if err != nil {
			return nil, fmt.Errorf("policy evaluation failed: %w", err)
		}
		conv.Policy = result
		e.timing.stage(stagePolicy, input, stepStart)
	}

	return conv, nil
}

func (e *Exporter) optionsHash(dev config.ResolvedDevice) string {
	cfg := e.Config
	return hashBytes([]byte(fmt.Sprintf("%s|%d|%s|%s|%s",
		cfg.Encoding.Compression, cfg.Encoding.Level, dev.OutputDir, cfg.Output.Suffix, cfg.Part)))
}

// Export converts one description and writes its artifact into
// dev.OutputDir. An input whose cache entry is still valid is not rebuilt.
func (e *Exporter) Export(ctx context.Context, dev config.ResolvedDevice) (*Report, error) {
	start := time.Now()
	report := &Report{Input: dev.Fabric}
	defer func() { report.DurationMS = durationToMS(time.Since(start)) }()

	raw, err := os.ReadFile(dev.Fabric)
	if err != nil {
		return report, fmt.Errorf("read device description: %w", err)
	}
	key := cacheEntry{
		InputHash:     hashBytes(raw),
		LibrariesHash: hashFileIfExists(dev.Libraries),
		OptionsHash:   e.optionsHash(dev),
	}

	if e.cache != nil {
		if entry, ok := e.cache.Get(dev.Fabric, key); ok {
			report.Cached = true
			report.Device = entry.Device
			report.Output = entry.OutputPath
			report.Fingerprint = entry.Fingerprint
			if info, err := os.Stat(entry.OutputPath); err == nil {
				report.Bytes = info.Size()
			}
			return report, nil
		}
	}

	conv, err := e.convert(dev.Fabric, raw, dev.Libraries)
	if err != nil {
		return report, err
	}
	report.Device = conv.Tables.Device
	report.Fingerprint = conv.Tables.Fingerprint
	report.Counts = conv.Tables.Counts
	report.Policy = conv.Policy
	if conv.Policy != nil && conv.Policy.Failed() {
		return report, fmt.Errorf("%s: %w", dev.Fabric, ErrPolicy)
	}

	stepStart := time.Now()
	outPath := filepath.Join(dev.OutputDir, report.Device+e.Config.Output.Suffix)
	size, err := interchange.WriteFile(outPath, conv.Encoded, interchange.Options{
		Compression: e.Config.Encoding.Compression,
		Level:       e.Config.Encoding.Level,
	})
	if err != nil {
		return report, fmt.Errorf("write artifact: %w", err)
	}
	report.Output = outPath
	report.Bytes = size
	e.timing.stage(stageWrite, dev.Fabric, stepStart)

	if e.cache != nil {
		outHash, err := hashFile(outPath)
		if err != nil {
			return report, fmt.Errorf("hash artifact: %w", err)
		}
		key.OutputPath = outPath
		key.OutputHash = outHash
		key.Device = report.Device
		key.Fingerprint = report.Fingerprint
		e.cache.Put(dev.Fabric, key)
	}

	uploaded, err := e.upload(ctx, outPath)
	if err != nil {
		return report, fmt.Errorf("upload artifact: %w", err)
	}
	report.Uploaded = uploaded

	return report, nil
}

func (e *Exporter) upload(ctx context.Context, outPath string) (string, error) {
	if e.Store == nil {
		return "", nil
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", err
	}
	key := path.Join(e.Config.Upload.Prefix, filepath.Base(outPath))
	if err := e.Store.Put(ctx, e.RunID, key, data); err != nil {
		return "", err
	}
	return e.RunID + "/" + key, nil
}

func (e *Exporter) openStore() error {
	up := e.Config.Upload
	if e.Store != nil || !up.Enabled {
		return nil
	}
	store, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  up.Endpoint,
		Region:    up.Region,
		AccessKey: up.AccessKey,
		SecretKey: up.SecretKey,
		Bucket:    up.Bucket,
		UseSSL:    config.Enabled(up.UseSSL),
	})
	if err != nil {
		return err
	}
	e.Store = store
	return nil
}

// Run exports every device and prints the results. Devices that fail do
// not stop the batch; their errors are joined into the returned error.
func (e *Exporter) Run(ctx context.Context, rootPath string, devices []config.ResolvedDevice) ([]Report, error) {
	runStart := time.Now()
	e.root = rootPath
	var pipelineErrs []error

	e.timing = openSpanLog(runStart, e.resolveTimingPath(rootPath))
	if err := e.timing.Err(); err != nil {
		pipelineErrs = append(pipelineErrs, fmt.Errorf("timing output disabled: %w", err))
	}
	defer func() {
		e.timing.Close()
		e.timing = nil
	}()

	if err := e.openStore(); err != nil {
		return nil, fmt.Errorf("initialize artifact store: %w", err)
	}
	if e.Store != nil && e.RunID == "" {
		e.RunID = uuid.NewString()
	}

	e.cache = nil
	if config.Enabled(e.Config.Cache.Enabled) {
		cache := newExportCache(e.Config.CacheDir(rootPath), EngineVersion())
		if err := cache.Load(); err != nil {
			pipelineErrs = append(pipelineErrs, fmt.Errorf("export cache disabled: %w", err))
		} else {
			e.cache = cache
		}
	}

	reports := make([]Report, 0, len(devices))
	var failed []error
	for i, dev := range devices {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if e.Progress && !e.JSONOutput {
			fmt.Fprintf(e.out(), "[%d/%d] %s\n", i+1, len(devices), dev.Fabric)
		}
		fileStart := time.Now()
		report, err := e.Export(ctx, dev)
		status := "ok"
		switch {
		case err != nil:
			status = "error"
			report.Error = err.Error()
			failed = append(failed, err)
		case report.Cached:
			status = "cached"
		}
		e.timing.device(dev.Fabric, status, fileStart)
		reports = append(reports, *report)
	}

	if e.cache != nil {
		if err := e.cache.Save(); err != nil {
			pipelineErrs = append(pipelineErrs, fmt.Errorf("export cache save failed: %w", err))
		}
	}
	e.timing.stage(stageTotal, "", runStart)

	if e.JSONOutput {
		enc := json.NewEncoder(e.out())
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return reports, fmt.Errorf("failed to encode JSON output: %w", err)
		}
	} else {
		e.printReports(reports, pipelineErrs)
	}

	return reports, errors.Join(failed...)
}

func (e *Exporter) printReports(reports []Report, pipelineErrs []error) {
	w := e.out()
	for _, r := range reports {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "✗ %s: %s\n", r.Input, r.Error)
		case r.Cached:
			fmt.Fprintf(w, "↺ %s unchanged (%s, %s)\n", r.Device, r.Output, humanize.Bytes(uint64(r.Bytes)))
		default:
			fmt.Fprintf(w, "✓ %s -> %s (%s) in %.1fms\n", r.Device, r.Output, humanize.Bytes(uint64(r.Bytes)), r.DurationMS)
		}
		if e.Verbose && !r.Cached && r.Error == "" {
			c := r.Counts
			fmt.Fprintf(w, "  site types: %s  tile types: %s  tiles: %s\n",
				humanize.Comma(int64(c.SiteTypes)), humanize.Comma(int64(c.TileTypes)), humanize.Comma(int64(c.Tiles)))
			fmt.Fprintf(w, "  wires: %s  nodes: %s  strings: %s  packages: %s\n",
				humanize.Comma(int64(c.Wires)), humanize.Comma(int64(c.Nodes)),
				humanize.Comma(int64(c.Strings)), humanize.Comma(int64(c.Packages)))
			fmt.Fprintf(w, "  fingerprint: %s\n", r.Fingerprint)
			if r.Uploaded != "" {
				fmt.Fprintf(w, "  uploaded: %s\n", r.Uploaded)
			}
		}
		if r.Policy != nil {
			for _, v := range r.Policy.Violations {
				icon := "ℹ"
				if v.Severity == "error" {
					icon = "✗"
				} else if v.Severity == "warning" {
					icon = "⚠"
				}
				fmt.Fprintf(w, "  %s [%s] %s - %s\n", icon, v.Rule, v.Entity, v.Message)
			}
		}
	}
	for _, err := range pipelineErrs {
		fmt.Fprintf(w, "warning: %v\n", err)
	}
}
