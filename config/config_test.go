package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Listen.Addr != ":8090" || cfg.Listen.Path != "/bridge" {
			t.Errorf("unexpected listen defaults: %+v", cfg.Listen)
		}
		if cfg.Timings.DebounceMS != 60 || cfg.Timings.SyncIntervalMS != 5000 {
			t.Errorf("unexpected timing defaults: %+v", cfg.Timings)
		}
	})

	t.Run("comments and trailing commas accepted", func(t *testing.T) {
		path := writeConfig(t, `{
			// local dev setup
			"listen": {"addr": ":9000", "path": "/dev-bridge",},
			"timings": {"debounce_ms": 10},
		}`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Listen.Addr != ":9000" || cfg.Listen.Path != "/dev-bridge" {
			t.Errorf("unexpected listen config: %+v", cfg.Listen)
		}
		if cfg.Timings.DebounceMS != 10 {
			t.Errorf("expected debounce override, got %d", cfg.Timings.DebounceMS)
		}
		// Unset timings keep their defaults.
		if cfg.Timings.SettleMS != 400 {
			t.Errorf("expected settle default, got %d", cfg.Timings.SettleMS)
		}
	})

	t.Run("invalid json rejected", func(t *testing.T) {
		path := writeConfig(t, `{"listen": [}`)
		if _, err := Load(path); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("missing file rejected", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Fatal("expected read error")
		}
	})

	t.Run("non-positive timings fixed up", func(t *testing.T) {
		path := writeConfig(t, `{"timings": {"debounce_ms": -5, "sync_interval_ms": 0}}`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Timings.DebounceMS != 60 || cfg.Timings.SyncIntervalMS != 5000 {
			t.Errorf("expected fixups, got %+v", cfg.Timings)
		}
	})
}
