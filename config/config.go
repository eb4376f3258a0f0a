package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config raccoglie la configurazione dell'editor backend
type Config struct {
	Port       int    `yaml:"port"`
	Debug      bool   `yaml:"debug"`
	EnableCORS bool   `yaml:"enable_cors"`
	OutputDir  string `yaml:"output_dir"`

	// Validazione
	DebounceMS    int `yaml:"debounce_ms"`     // ritardo dello scheduler
	CacheTTLSecs  int `yaml:"cache_ttl_secs"`  // scadenza cache risultati
	HistoryLimit  int `yaml:"history_limit"`   // entry massime di undo
	GroupWindowMS int `yaml:"group_window_ms"` // finestra di merge/gruppo

	// Watcher
	WatchPaths []string `yaml:"watch_paths"`
}

// Default restituisce la configurazione di default
func Default() *Config {
	return &Config{
		Port:          8080,
		Debug:         false,
		EnableCORS:    true,
		OutputDir:     "./output",
		DebounceMS:    500,
		CacheTTLSecs:  30,
		HistoryLimit:  100,
		GroupWindowMS: 1000,
	}
}

// Load carica la configurazione da file YAML, partendo dai default.
// Un path vuoto restituisce i soli default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("errore lettura config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("errore decodifica config: %w", err)
	}
	return cfg, nil
}

// Debounce restituisce il ritardo dello scheduler come Duration
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// CacheTTL restituisce la scadenza della cache come Duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}

// GroupWindow restituisce la finestra di raggruppamento come Duration
func (c *Config) GroupWindow() time.Duration {
	return time.Duration(c.GroupWindowMS) * time.Millisecond
}
