package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// spanKind separates exporter steps, builder phases and whole-device
// exports in the timing log.
type spanKind string

const (
	spanStage  spanKind = "stage"
	spanPhase  spanKind = "phase"
	spanDevice spanKind = "device"
)

// Exporter steps. Builder phases use the devres.Phase* names.
const (
	stageLoad   = "load"
	stageEncode = "encode"
	stagePolicy = "policy"
	stageWrite  = "write"
	stageExport = "export"
	stageTotal  = "total"
)

// span is one line of the timing JSONL file. Offsets are relative to the
// start of the run.
type span struct {
	Kind       spanKind `json:"kind"`
	Name       string   `json:"name"`
	Device     string   `json:"device,omitempty"`
	Status     string   `json:"status,omitempty"`
	OffsetMS   float64  `json:"offset_ms"`
	DurationMS float64  `json:"duration_ms"`
}

// spanLog appends spans to a JSONL file. A nil or disabled log drops
// everything, so callers never check before recording.
type spanLog struct {
	origin time.Time
	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	err    error
}

func openSpanLog(origin time.Time, path string) *spanLog {
	l := &spanLog{origin: origin}
	if path == "" {
		return l
	}
	f, err := os.Create(path)
	if err != nil {
		l.err = err
		return l
	}
	l.file = f
	l.enc = json.NewEncoder(f)
	return l
}

func (l *spanLog) Err() error {
	if l == nil {
		return nil
	}
	return l.err
}

func (l *spanLog) Close() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
}

func (l *spanLog) add(s span, start time.Time, elapsed time.Duration) {
	if l == nil || l.enc == nil {
		return
	}
	s.OffsetMS = millis(start.Sub(l.origin))
	s.DurationMS = millis(elapsed)
	l.mu.Lock()
	_ = l.enc.Encode(s)
	l.mu.Unlock()
}

// stage records an exporter step of one device.
func (l *spanLog) stage(name, device string, start time.Time) {
	l.add(span{Kind: spanStage, Name: name, Device: device, Status: "ok"}, start, time.Since(start))
}

// device records the end-to-end export of one device with its outcome.
func (l *spanLog) device(device, status string, start time.Time) {
	l.add(span{Kind: spanDevice, Name: stageExport, Device: device, Status: status}, start, time.Since(start))
}

// phases returns a devres.Builder.OnPhase hook that logs each builder
// phase against device.
func (l *spanLog) phases(device string) func(string, time.Time, time.Duration) {
	return func(phase string, start time.Time, elapsed time.Duration) {
		l.add(span{Kind: spanPhase, Name: phase, Device: device, Status: "ok"}, start, elapsed)
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// resolveTimingPath picks the JSONL destination. DEVRES_TIMING_JSONL names
// the file outright; otherwise Timing or DEVRES_TIMING write TimingPath, or
// timing.jsonl under rootPath.
func (e *Exporter) resolveTimingPath(rootPath string) string {
	if e == nil {
		return ""
	}
	if p := os.Getenv("DEVRES_TIMING_JSONL"); p != "" {
		return p
	}
	if !e.Timing && !envBool("DEVRES_TIMING") {
		return ""
	}
	if e.Timing && e.TimingPath != "" {
		return e.TimingPath
	}
	return filepath.Join(rootPath, "timing.jsonl")
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
