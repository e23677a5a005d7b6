// Package config loads application configuration from a TOML file with
// defaults suitable for local development.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/loci-dev/loci/pkg/errors"
)

// Config is the application configuration.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Trace  TraceConfig  `toml:"trace"`
}

// EngineConfig locates the elimination engine.
type EngineConfig struct {
	// URL is the engine base URL, e.g. "http://localhost:8090".
	URL string `toml:"url"`
	// Timeout bounds one elimination round trip.
	Timeout duration `toml:"timeout"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`
	// Dir is the file backend's directory; empty selects the user
	// cache directory.
	Dir string `toml:"dir"`
	// RedisAddr is the redis backend's address.
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	TTL           duration `toml:"ttl"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	// Backend is "memory" or "mongo".
	Backend    string `toml:"backend"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig tunes the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// TraceConfig tunes the curve tracer.
type TraceConfig struct {
	GridSize int `toml:"grid_size"`
	MaxSteps int `toml:"max_steps"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			URL:     "http://localhost:8090",
			Timeout: duration{30 * time.Second},
		},
		Cache: CacheConfig{
			Backend: "file",
			TTL:     duration{24 * time.Hour},
		},
		Store: StoreConfig{
			Backend:    "memory",
			Database:   "loci",
			Collection: "constructions",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the config file at path, overlaying the defaults. An empty
// path tries the default location and silently falls back to defaults
// when no file exists there.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	return cfg, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "loci.toml"
	}
	return filepath.Join(dir, "loci", "config.toml")
}

// CacheDir returns the configured cache directory, defaulting to the
// user cache directory.
func (c CacheConfig) CacheDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".loci-cache"
	}
	return filepath.Join(dir, "loci")
}

// duration wraps time.Duration with TOML string parsing ("30s", "2m").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}
