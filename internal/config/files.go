package config

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"
)

// ResolvedDevice is one device description selected for conversion
type ResolvedDevice struct {
	Fabric    string
	Libraries string
	OutputDir string
}

// ResolveDevices expands all device glob patterns and returns the selected
// descriptions sorted by path
func (c *Config) ResolveDevices(rootPath string) ([]ResolvedDevice, error) {
	selected := make(map[string]ResolvedDevice)

	for _, entry := range c.Devices {
		if entry.Fabric == "" {
			continue
		}
		matches, err := doublestar.Glob(absPattern(rootPath, entry.Fabric))
		if err != nil {
			return nil, fmt.Errorf("device pattern %q: %w", entry.Fabric, err)
		}

		for _, match := range matches {
			excluded, err := matchesAny(rootPath, entry.Exclude, match)
			if err != nil {
				return nil, err
			}
			if excluded {
				continue
			}
			if _, ok := selected[match]; ok {
				continue
			}
			selected[match] = ResolvedDevice{
				Fabric:    match,
				Libraries: c.resolvePath(rootPath, firstNonEmpty(entry.Libraries, c.Libraries)),
				OutputDir: c.resolvePath(rootPath, firstNonEmpty(entry.Output, c.Output.Dir)),
			}
		}
	}

	result := make([]ResolvedDevice, 0, len(selected))
	for _, d := range selected {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Fabric < result[j].Fabric })
	return result, nil
}

// OutputDir returns the absolute output directory for rootPath
func (c *Config) OutputDir(rootPath string) string {
	return c.resolvePath(rootPath, c.Output.Dir)
}

// CacheDir returns the absolute cache directory for rootPath
func (c *Config) CacheDir(rootPath string) string {
	return c.resolvePath(rootPath, c.Cache.Dir)
}

func (c *Config) resolvePath(rootPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootPath, p)
}

func absPattern(rootPath, pattern string) string {
	if filepath.IsAbs(pattern) {
		return pattern
	}
	return filepath.Join(rootPath, pattern)
}

func matchesAny(rootPath string, patterns []string, path string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.PathMatch(absPattern(rootPath, pattern), path)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// PolicyDir returns the absolute extra policy directory, or "" when none is
// configured.
func (c *Config) PolicyDir(rootPath string) string {
	return c.resolvePath(rootPath, c.Policy.Dir)
}

// Resolve returns the device entry for a single description given on the
// command line, using the top-level libraries and output settings.
func (c *Config) Resolve(rootPath, fabricPath string) ResolvedDevice {
	return ResolvedDevice{
		Fabric:    absPattern(rootPath, fabricPath),
		Libraries: c.resolvePath(rootPath, c.Libraries),
		OutputDir: c.resolvePath(rootPath, c.Output.Dir),
	}
}
