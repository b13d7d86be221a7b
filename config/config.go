// Package config loads the app's bridge settings from a JSON file.
// Comments and trailing commas are allowed in the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

type Config struct {
	Listen  ListenConfig `json:"listen"`
	API     APIConfig    `json:"api"`
	Timings Timings      `json:"timings"`
}

type ListenConfig struct {
	Addr string `json:"addr"`
	Path string `json:"path"`
}

type APIConfig struct {
	BaseURL     string `json:"base_url"`
	Token       string `json:"token"`
	DownloadDir string `json:"download_dir"`
}

// Timings holds the responsiveness constants of the navigation bridge
// and the audio sync loop. Empirically tuned, host-specific.
type Timings struct {
	DebounceMS         int `json:"debounce_ms"`
	CommandRecomputeMS int `json:"command_recompute_ms"`
	SettleMS           int `json:"settle_ms"`
	SyncIntervalMS     int `json:"sync_interval_ms"`
}

func Default() Config {
	return Config{
		Listen: ListenConfig{
			Addr: ":8090",
			Path: "/bridge",
		},
		API: APIConfig{
			BaseURL:     os.Getenv("QUILLCART_API_URL"),
			Token:       os.Getenv("QUILLCART_API_TOKEN"),
			DownloadDir: os.Getenv("QUILLCART_DOWNLOAD_DIR"),
		},
		Timings: Timings{
			DebounceMS:         60,
			CommandRecomputeMS: 150,
			SettleMS:           400,
			SyncIntervalMS:     5000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config failed: %w", err)
	}

	standard, err := hujson.Standardize(content)
	if err != nil {
		return Config{}, fmt.Errorf("parse config failed: %w", err)
	}
	if err := json.Unmarshal(standard, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config failed: %w", err)
	}

	if cfg.Listen.Addr == "" {
		cfg.Listen.Addr = ":8090"
	}
	if cfg.Listen.Path == "" {
		cfg.Listen.Path = "/bridge"
	}
	if cfg.API.DownloadDir == "" {
		cfg.API.DownloadDir = os.TempDir()
	}
	if cfg.Timings.DebounceMS <= 0 {
		cfg.Timings.DebounceMS = 60
	}
	if cfg.Timings.CommandRecomputeMS <= 0 {
		cfg.Timings.CommandRecomputeMS = 150
	}
	if cfg.Timings.SettleMS <= 0 {
		cfg.Timings.SettleMS = 400
	}
	if cfg.Timings.SyncIntervalMS <= 0 {
		cfg.Timings.SyncIntervalMS = 5000
	}

	return cfg, nil
}
