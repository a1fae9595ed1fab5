package config

import (
	"os"
	"path/filepath"
	"time"
)

// Remote transport modes.
const (
	ModeHTTP     = "http"
	ModePostgres = "postgres"
)

// Config holds runtime settings for the bukukas CLI.
//
// Fields:
//   - RemoteMode: which gateway to use, "http" (hosted API) or "postgres"
//     (self-hosted shared database).
//   - RemoteAddr: base URL of the hosted API, used in http mode.
//   - PostgresDSN: connection string of the shared database, postgres mode.
//   - DataDir: directory holding the per-user SQLite files and credential.
//   - LogFile: rotating log destination; empty logs to stderr.
//   - SyncTimeout: budget for one full sync cycle.
type Config struct {
	RemoteMode  string
	RemoteAddr  string
	PostgresDSN string
	DataDir     string
	LogFile     string
	SyncTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}

	c.RemoteMode = ModeHTTP
	c.RemoteAddr = "http://127.0.0.1:8080"
	c.DataDir = filepath.Join(dir, "bukukas")
	c.SyncTimeout = 30 * time.Second
}

// CredentialFile is where the bearer token lives inside DataDir.
func (c *Config) CredentialFile() string {
	return filepath.Join(c.DataDir, "credential")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if a -c/-config file was given). Command-line overrides are layered
// on top by the CLI, which binds its flags to the returned struct.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	return cfg
}
