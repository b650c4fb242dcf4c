package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level configuration for devres
type Config struct {
	// Part is the target part name recorded in summaries
	Part string `json:"part,omitempty"`

	// Libraries is the cell library file used when a device entry names none
	Libraries string `json:"libraries,omitempty"`

	// Output controls where artifacts are written
	Output OutputConfig `json:"output,omitempty"`

	// Devices lists the device descriptions converted by `devres batch`
	Devices []DeviceEntry `json:"devices,omitempty"`

	// Encoding controls artifact framing
	Encoding EncodingConfig `json:"encoding,omitempty"`

	// Validation toggles the CUE contracts
	Validation ValidationConfig `json:"validation,omitempty"`

	// Policy configures the catalog integrity rules
	Policy PolicyConfig `json:"policy,omitempty"`

	// Cache controls skipping unchanged exports
	Cache CacheConfig `json:"cache,omitempty"`

	// Upload copies finished artifacts to object storage
	Upload UploadConfig `json:"upload,omitempty"`

	// SiteViewCacheSize bounds the number of live site views (0 = no cache)
	SiteViewCacheSize *int `json:"siteViewCacheSize,omitempty"`
}

// OutputConfig controls artifact placement
type OutputConfig struct {
	// Dir is the output directory (relative to the project root if not absolute)
	Dir string `json:"dir,omitempty"`

	// Suffix is appended to the device name to form the artifact file name
	Suffix string `json:"suffix,omitempty"`
}

// DeviceEntry selects device descriptions for batch conversion
type DeviceEntry struct {
	// Fabric is a glob pattern (** allowed) for device description files
	Fabric string `json:"fabric"`

	// Exclude is a list of glob patterns to skip
	Exclude []string `json:"exclude,omitempty"`

	// Libraries overrides the cell library file for these devices
	Libraries string `json:"libraries,omitempty"`

	// Output overrides the output directory for these devices
	Output string `json:"output,omitempty"`
}

// EncodingConfig controls artifact framing
type EncodingConfig struct {
	// Compression is "gzip" or "none"
	Compression string `json:"compression,omitempty"`

	// Level is the gzip level (0 = default)
	Level int `json:"level,omitempty"`
}

// ValidationConfig toggles the CUE contracts
type ValidationConfig struct {
	// Input validates device descriptions before conversion
	Input *bool `json:"input,omitempty"`

	// Summary validates the catalog summary before policy evaluation
	Summary *bool `json:"summary,omitempty"`
}

// PolicyConfig configures the catalog integrity rules
type PolicyConfig struct {
	// Enabled runs the rules after conversion
	Enabled *bool `json:"enabled,omitempty"`

	// Dir is an extra directory of .rego modules loaded next to the built-in rules
	Dir string `json:"dir,omitempty"`

	// Rules maps rule names to severity: "off", "warning", "error"
	Rules map[string]string `json:"rules,omitempty"`
}

// CacheConfig controls export cache behavior
type CacheConfig struct {
	// Enabled turns on export cache usage
	Enabled *bool `json:"enabled,omitempty"`

	// Dir is the cache directory (relative to project root if not absolute)
	Dir string `json:"dir,omitempty"`
}

// UploadConfig describes the object storage target. Credentials are only
// taken from the environment.
type UploadConfig struct {
	Enabled  bool   `json:"enabled,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Region   string `json:"region,omitempty"`
	Bucket   string `json:"bucket,omitempty"`
	UseSSL   *bool  `json:"useSSL,omitempty"`
	Prefix   string `json:"prefix,omitempty"`

	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
}

const (
	defaultOutputDir   = "build"
	defaultSuffix      = ".device"
	defaultCompression = "gzip"
	defaultCacheDir    = ".devres_cache"
	defaultViewCache   = 256
)

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:    defaultOutputDir,
			Suffix: defaultSuffix,
		},
		Devices: []DeviceEntry{},
		Encoding: EncodingConfig{
			Compression: defaultCompression,
		},
		Validation: ValidationConfig{
			Input:   boolPtr(true),
			Summary: boolPtr(true),
		},
		Policy: PolicyConfig{
			Enabled: boolPtr(true),
			Rules:   map[string]string{},
		},
		Cache: CacheConfig{
			Enabled: boolPtr(true),
			Dir:     defaultCacheDir,
		},
		Upload: UploadConfig{
			UseSSL: boolPtr(true),
		},
		SiteViewCacheSize: intPtr(defaultViewCache),
	}
}

func boolPtr(v bool) *bool {
	return &v
}

func intPtr(v int) *int {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./devres.json (current working directory)
//  2. ./.devres.json (current working directory)
//  3. <rootPath>/devres.json (if different from cwd)
//  4. ~/.config/devres/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "devres.json"),
		filepath.Join(cwd, ".devres.json"),
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, "devres.json"),
				filepath.Join(rootPath, ".devres.json"),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "devres", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Output.Dir == "" {
		c.Output.Dir = defaultOutputDir
	}
	if c.Output.Suffix == "" {
		c.Output.Suffix = defaultSuffix
	}
	if c.Encoding.Compression == "" {
		c.Encoding.Compression = defaultCompression
	}
	if c.Validation.Input == nil {
		c.Validation.Input = boolPtr(true)
	}
	if c.Validation.Summary == nil {
		c.Validation.Summary = boolPtr(true)
	}
	if c.Policy.Enabled == nil {
		c.Policy.Enabled = boolPtr(true)
	}
	if c.Policy.Rules == nil {
		c.Policy.Rules = make(map[string]string)
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = defaultCacheDir
	}
	if c.Cache.Enabled == nil {
		c.Cache.Enabled = boolPtr(true)
	}
	if c.Upload.UseSSL == nil {
		c.Upload.UseSSL = boolPtr(true)
	}
	if c.SiteViewCacheSize == nil {
		c.SiteViewCacheSize = intPtr(defaultViewCache)
	}
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetRuleSeverity returns the severity for a rule, or the default if not configured
func (c *Config) GetRuleSeverity(rule string, defaultSeverity string) string {
	if severity, ok := c.Policy.Rules[rule]; ok {
		return severity
	}
	return defaultSeverity
}

// IsRuleEnabled returns true if the rule is not set to "off"
func (c *Config) IsRuleEnabled(rule string) bool {
	if severity, ok := c.Policy.Rules[rule]; ok {
		return severity != "off"
	}
	return true
}

// Enabled reports the value of an optional flag, treating nil as true.
func Enabled(flag *bool) bool {
	return flag == nil || *flag
}

// ViewCacheSize returns the configured site view cache size.
func (c *Config) ViewCacheSize() int {
	if c.SiteViewCacheSize == nil {
		return defaultViewCache
	}
	return *c.SiteViewCacheSize
}
