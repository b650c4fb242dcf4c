package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env files (missing files are ignored) and applies the
// DEVRES_* environment overrides.
func (c *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	c.applyEnv()
	return nil
}

func (c *Config) applyEnv() {
	if v := env("DEVRES_PART"); v != "" {
		c.Part = v
	}
	if v := env("DEVRES_S3_ENDPOINT"); v != "" {
		c.Upload.Endpoint = v
		c.Upload.Enabled = true
	}
	if v := env("DEVRES_S3_REGION"); v != "" {
		c.Upload.Region = v
	}
	if v := env("DEVRES_S3_BUCKET"); v != "" {
		c.Upload.Bucket = v
	}
	if v := env("DEVRES_S3_PREFIX"); v != "" {
		c.Upload.Prefix = v
	}
	if v := env("DEVRES_S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Upload.UseSSL = boolPtr(b)
		}
	}
	c.Upload.AccessKey = env("DEVRES_S3_ACCESS_KEY")
	c.Upload.SecretKey = env("DEVRES_S3_SECRET_KEY")
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
