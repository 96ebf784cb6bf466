package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ember.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 800, cfg.Viewport.Width)
	assert.Equal(t, EngineBuiltin, cfg.Script.Engine)
	assert.True(t, cfg.Script.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Network.Timeout())
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[viewport]
width = 1024

[script]
engine = "goja"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Viewport.Width)
	assert.Equal(t, 600, cfg.Viewport.Height)
	assert.Equal(t, EngineGoja, cfg.Script.Engine)
	assert.True(t, cfg.Script.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, MetricsFixed, cfg.Fonts.Metrics)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "[viewport]\nwidht = 3\n"},
		{"unknown table", "[colors]\nbg = 'red'\n"},
		{"bad engine", "[script]\nengine = 'v8'\n"},
		{"bad metrics", "[fonts]\nmetrics = 'magic'\n"},
		{"zero viewport", "[viewport]\nheight = 0\n"},
		{"syntax", "[viewport\n"},
		{"wrong type", "[viewport]\nwidth = 'wide'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadOptional(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadOptional("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadOptional(writeConfig(t, "nonsense = = ="))
	assert.Error(t, err)
}
