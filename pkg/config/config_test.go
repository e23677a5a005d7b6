package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loci-dev/loci/pkg/errors"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.URL != "http://localhost:8090" {
		t.Errorf("Engine.URL = %q", cfg.Engine.URL)
	}
	if cfg.Engine.Timeout.Duration != 30*time.Second {
		t.Errorf("Engine.Timeout = %v", cfg.Engine.Timeout.Duration)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
}

func TestLoadExplicitMissingFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load missing explicit path = %v, want INVALID_INPUT", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[engine]
url = "http://math-engine:9000"
timeout = "5s"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "1h"

[store]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"

[trace]
grid_size = 128
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.URL != "http://math-engine:9000" {
		t.Errorf("Engine.URL = %q", cfg.Engine.URL)
	}
	if cfg.Engine.Timeout.Duration != 5*time.Second {
		t.Errorf("Engine.Timeout = %v", cfg.Engine.Timeout.Duration)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL.Duration)
	}
	if cfg.Store.Backend != "mongo" {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	// Untouched sections keep their defaults.
	if cfg.Store.Database != "loci" {
		t.Errorf("Store.Database = %q", cfg.Store.Database)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Trace.GridSize != 128 {
		t.Errorf("Trace.GridSize = %d", cfg.Trace.GridSize)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("engine = {"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load bad toml = %v, want INVALID_FORMAT", err)
	}
}

func TestCacheDirFallback(t *testing.T) {
	c := CacheConfig{Dir: "/tmp/loci-cache"}
	if got := c.CacheDir(); got != "/tmp/loci-cache" {
		t.Errorf("CacheDir = %q", got)
	}
	if got := (CacheConfig{}).CacheDir(); got == "" {
		t.Error("CacheDir default is empty")
	}
}
