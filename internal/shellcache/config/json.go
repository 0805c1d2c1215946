package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/otpvault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ListenAddr string `json:"listen_addr"`
	OriginURL  string `json:"origin_url"`
	CacheDir   string `json:"cache_dir"`
	Generation string `json:"generation"`
	LRUSize    int    `json:"lru_size"`
}

// parseJson overlays Config with values loaded from a JSON file selected
// via -c/-config. Absent file path means no JSON is loaded; read or
// unmarshal errors panic (caller should recover if desired).
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ListenAddr = jc.ListenAddr
	cfg.OriginURL = jc.OriginURL
	cfg.CacheDir = jc.CacheDir
	cfg.Generation = jc.Generation
	cfg.LRUSize = jc.LRUSize
}
