package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gate.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("loads from json", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"endpoint_addr_http": ":9999",
			"auth_mode":          "jwks",
			"jwks_url":           "https://idp/jwks",
			"read_grant_ttl":     "2h",
			"write_grant_ttl":    int64(5 * time.Minute),
			"enforce_ownership":  true,
			"dev_idp":            true,
		})
		os.Args = []string{"gate", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, ":9999", cfg.EndpointAddrHTTP)
		assert.Equal(t, AuthModeJWKS, cfg.AuthMode)
		assert.Equal(t, "https://idp/jwks", cfg.JWKSURL)
		assert.Equal(t, 2*time.Hour, cfg.ReadGrantTTL)
		assert.Equal(t, 5*time.Minute, cfg.WriteGrantTTL)
		assert.True(t, cfg.EnforceOwnership)
		assert.True(t, cfg.DevIdP)
		// untouched keys keep defaults
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
		assert.Equal(t, "secretKey", cfg.SecretKey)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"gate"}

		cfg := &Config{EndpointAddrHTTP: "keep:1", ReadGrantTTL: time.Minute}
		parseJson(cfg)
		assert.Equal(t, "keep:1", cfg.EndpointAddrHTTP)
		assert.Equal(t, time.Minute, cfg.ReadGrantTTL)
	})

	t.Run("flags override json", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"endpoint_addr_http": ":9999"})
		os.Args = []string{"gate", "-c", path, "-a", ":7000"}

		cfg := LoadConfig()
		assert.Equal(t, ":7000", cfg.EndpointAddrHTTP)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"gate", "-c", filepath.Join(t.TempDir(), "absent.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("bad json panics", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		os.Args = []string{"gate", "-c", path}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
