package exporter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const cacheIndexVersion = 1

// cacheEntry records one finished export. An input is skipped when every
// hash still matches and the output on disk is the file that was written.
type cacheEntry struct {
	InputHash     string `json:"input_hash"`
	LibrariesHash string `json:"libraries_hash"`
	OptionsHash   string `json:"options_hash"`
	EngineVersion string `json:"engine_version"`
	OutputPath    string `json:"output_path"`
	OutputHash    string `json:"output_hash"`
	Device        string `json:"device"`
	Fingerprint   string `json:"fingerprint"`
}

type cacheIndex struct {
	Version int                   `json:"version"`
	Entries map[string]cacheEntry `json:"entries"`
}

type exportCache struct {
	dir           string
	engineVersion string
	mu            sync.Mutex
	index         cacheIndex
}

func newExportCache(dir, engineVersion string) *exportCache {
	return &exportCache{
		dir:           dir,
		engineVersion: engineVersion,
		index: cacheIndex{
			Version: cacheIndexVersion,
			Entries: make(map[string]cacheEntry),
		},
	}
}

func (c *exportCache) indexPath() string {
	return filepath.Join(c.dir, "index.json")
}

func (c *exportCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("cache mkdir: %w", err)
	}
	data, err := os.ReadFile(c.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache index: %w", err)
	}
	var idx cacheIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("parse cache index: %w", err)
	}
	if idx.Version != cacheIndexVersion {
		// Reset on version mismatch
		c.index = cacheIndex{Version: cacheIndexVersion, Entries: make(map[string]cacheEntry)}
		return nil
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]cacheEntry)
	}
	c.index = idx
	return nil
}

func (c *exportCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeJSONAtomic(c.indexPath(), c.index)
}

// Get returns the entry for input when it is still valid for the given
// hashes and its output file is intact.
func (c *exportCache) Get(input string, key cacheEntry) (cacheEntry, bool) {
	c.mu.Lock()
	entry, ok := c.index.Entries[input]
	c.mu.Unlock()
	if !ok {
		return cacheEntry{}, false
	}
	if entry.InputHash != key.InputHash || entry.LibrariesHash != key.LibrariesHash ||
		entry.OptionsHash != key.OptionsHash || entry.EngineVersion != c.engineVersion {
		return cacheEntry{}, false
	}
	outHash, err := hashFile(entry.OutputPath)
	if err != nil || outHash != entry.OutputHash {
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *exportCache) Put(input string, entry cacheEntry) {
	entry.EngineVersion = c.engineVersion
	c.mu.Lock()
	c.index.Entries[input] = entry
	c.mu.Unlock()
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("json dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("temp json file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write json file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close json file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename json file: %w", err)
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// hashFileIfExists returns "" for an empty or unreadable path.
func hashFileIfExists(path string) string {
	if path == "" {
		return ""
	}
	h, err := hashFile(path)
	if err != nil {
		return ""
	}
	return h
}
