// Package config loads runtime configuration for the shell cache worker.
//
// Sources & precedence mirror the client CLI: built-in defaults, then an
// optional JSON file selected via -c/-config, then command-line flags.
package config

// Config holds runtime settings for the cache worker.
//
// Fields:
//   - ListenAddr: address the worker serves intercepted requests on.
//   - OriginURL: base URL the worker fetches misses and pass-through
//     requests from.
//   - CacheDir: root directory of the generation store (empty means the
//     per-user cache directory).
//   - Generation: name of the generation to install and activate.
//   - LRUSize: capacity of the in-memory hot-entry front.
type Config struct {
	ListenAddr string
	OriginURL  string
	CacheDir   string
	Generation string
	LRUSize    int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8081"
	c.OriginURL = "http://127.0.0.1:8000"
	c.Generation = "v1"
	c.LRUSize = 128
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
