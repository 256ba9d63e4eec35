package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Drag.PollIntervalMs != 100 || cfg.Drag.SessionTimeoutMs != 3000 {
		t.Errorf("unexpected defaults: %+v", cfg.Drag)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = 1

[tracker]
backend = "simulated"

[drag]
poll_interval_ms = 50
session_timeout_ms = 2000

[logging]
level = "debug"
output = "stderr"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tracker.Backend != "simulated" {
		t.Errorf("Backend = %q", cfg.Tracker.Backend)
	}
	if cfg.Drag.PollIntervalMs != 50 || cfg.Drag.SessionTimeoutMs != 2000 {
		t.Errorf("Drag = %+v", cfg.Drag)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	// Unset sections keep defaults.
	if cfg.Shake.MinReversals != 3 {
		t.Errorf("MinReversals = %d", cfg.Shake.MinReversals)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"drag": {"poll_interval_ms": 200, "session_timeout_ms": 5000}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Drag.PollIntervalMs != 200 {
		t.Errorf("PollIntervalMs = %d", cfg.Drag.PollIntervalMs)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "drag:\n  poll_interval_ms: 150\n  session_timeout_ms: 4000\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Drag.PollIntervalMs != 150 || cfg.Drag.SessionTimeoutMs != 4000 {
		t.Errorf("Drag = %+v", cfg.Drag)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero poll interval", func(c *Config) { c.Drag.PollIntervalMs = 0 }},
		{"negative timeout", func(c *Config) { c.Drag.SessionTimeoutMs = -1 }},
		{"timeout shorter than poll", func(c *Config) {
			c.Drag.PollIntervalMs = 500
			c.Drag.SessionTimeoutMs = 100
		}},
		{"zero accounting interval", func(c *Config) { c.Tracker.AccountingIntervalMs = 0 }},
		{"unknown backend", func(c *Config) { c.Tracker.Backend = "kernel" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero shake reversals", func(c *Config) { c.Shake.MinReversals = 0 }},
		{"ipc without socket", func(c *Config) { c.IPC.SocketPath = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSchemaRejectsBadTOMLValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[logging]\nlevel = \"verbose\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected schema rejection for bad log level")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DRAGWATCH_LOG_LEVEL", "error")
	t.Setenv("DRAGWATCH_TRACKER_BACKEND", "simulated")
	t.Setenv("DRAGWATCH_POLL_INTERVAL_MS", "250")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Logging.Level != "error" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if cfg.Tracker.Backend != "simulated" {
		t.Errorf("Backend = %q", cfg.Tracker.Backend)
	}
	if cfg.Drag.PollIntervalMs != 250 {
		t.Errorf("PollIntervalMs = %d", cfg.Drag.PollIntervalMs)
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if !created {
		t.Error("expected file creation")
	}
	if cfg.Drag.PollIntervalMs != 100 {
		t.Errorf("PollIntervalMs = %d", cfg.Drag.PollIntervalMs)
	}

	// Second call loads the written file.
	_, created, err = LoadOrCreate(path)
	if err != nil {
		t.Fatalf("second LoadOrCreate: %v", err)
	}
	if created {
		t.Error("file re-created on second call")
	}
}

func TestLoaderHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[drag]\npoll_interval_ms = 100\nsession_timeout_ms = 3000\n"), 0600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loader.Close()

	changed := make(chan *Config, 1)
	loader.OnChange(func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	})
	if err := loader.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("[drag]\npoll_interval_ms = 200\nsession_timeout_ms = 6000\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changed:
		if cfg.Drag.PollIntervalMs != 200 {
			t.Errorf("reloaded PollIntervalMs = %d", cfg.Drag.PollIntervalMs)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestLoaderKeepsOldConfigOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[drag]\npoll_interval_ms = 100\nsession_timeout_ms = 3000\n"), 0600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loader.Close()

	if err := loader.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// Invalid: timeout below poll interval.
	if err := os.WriteFile(path, []byte("[drag]\npoll_interval_ms = 500\nsession_timeout_ms = 100\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-loader.Errors():
		if err == nil {
			t.Error("expected a reload error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload error never surfaced")
	}

	if got := loader.Config().Drag.PollIntervalMs; got != 100 {
		t.Errorf("config changed despite invalid reload: %d", got)
	}
}
