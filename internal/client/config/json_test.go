package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("overlays present keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"gate_url": "https://gate.example.com",
			"bucket": "theses",
			"http_timeout": "10s",
			"migrate": false
		}`), 0o600))
		os.Args = []string{"client", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "https://gate.example.com", cfg.GateURL)
		assert.Equal(t, "theses", cfg.Bucket)
		assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
		assert.False(t, cfg.Migrate)
		assert.Equal(t, "/generateReadUrl", cfg.ReadPath)
	})

	t.Run("no config flag", func(t *testing.T) {
		os.Args = []string{"client"}
		cfg := &Config{GateURL: "keep"}
		parseJson(cfg)
		assert.Equal(t, "keep", cfg.GateURL)
	})

	t.Run("bad json panics", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"gate_url": `), 0o600))
		os.Args = []string{"client", "-config", path}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
