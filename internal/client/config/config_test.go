package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ModeHTTP, c.RemoteMode)
	assert.Equal(t, "http://127.0.0.1:8080", c.RemoteAddr)
	assert.NotEmpty(t, c.DataDir)
	assert.Empty(t, c.PostgresDSN)
	assert.Empty(t, c.LogFile)
	assert.Equal(t, 30*time.Second, c.SyncTimeout)
}

func TestCredentialFile_LivesInDataDir(t *testing.T) {
	c := Config{DataDir: "/tmp/bukukas"}
	assert.Equal(t, "/tmp/bukukas/credential", c.CredentialFile())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")
	assert.Equal(t, ModeHTTP, c.RemoteMode)
	assert.Equal(t, 30*time.Second, c.SyncTimeout)
}
