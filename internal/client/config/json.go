package config

import (
	"encoding/json"
	"os"

	"github.com/dkurniawan/bukukas/internal/flagx"
	"github.com/dkurniawan/bukukas/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the sync timeout either as a string like
// "30s" or as integer nanoseconds.
type JsonConfig struct {
	RemoteMode  string         `json:"remote_mode"`
	RemoteAddr  string         `json:"remote_addr"`
	PostgresDSN string         `json:"postgres_dsn"`
	DataDir     string         `json:"data_dir"`
	LogFile     string         `json:"log_file"`
	SyncTimeout timex.Duration `json:"sync_timeout"`
}

// parseJson overlays cfg with values loaded from a JSON file, selected via
// the -c or -config flag (flagx.JsonConfigFlags). Absent file path means no
// JSON is loaded. Only fields present in the file override defaults.
//
// Intended usage is: defaults -> parseJson -> CLI flag bindings, where later
// stages override earlier ones.
func parseJson(cfg *Config) {
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

	if jc.RemoteMode != "" {
		cfg.RemoteMode = jc.RemoteMode
	}
	if jc.RemoteAddr != "" {
		cfg.RemoteAddr = jc.RemoteAddr
	}
	if jc.PostgresDSN != "" {
		cfg.PostgresDSN = jc.PostgresDSN
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.LogFile != "" {
		cfg.LogFile = jc.LogFile
	}
	if jc.SyncTimeout.Duration != 0 {
		cfg.SyncTimeout = jc.SyncTimeout.Duration
	}
}
