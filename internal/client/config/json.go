package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/thesisvault/internal/flagx"
	"github.com/dmitrijs2005/thesisvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	GateURL        string         `json:"gate_url"`
	ReadPath       string         `json:"read_path"`
	WritePath      string         `json:"write_path"`
	IdentityURL    string         `json:"identity_url"`
	IdentityAPIKey string         `json:"identity_api_key"`
	Bucket         string         `json:"bucket"`
	DatabaseDSN    string         `json:"database_dsn"`
	HTTPTimeout    timex.Duration `json:"http_timeout"`
	DownloadDir    string         `json:"download_dir"`
	Migrate        *bool          `json:"migrate"`
	LogLevel       string         `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by -c/-config. Absent keys
// keep their value. Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile()
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

	for dst, v := range map[*string]string{
		&cfg.GateURL:        jc.GateURL,
		&cfg.ReadPath:       jc.ReadPath,
		&cfg.WritePath:      jc.WritePath,
		&cfg.IdentityURL:    jc.IdentityURL,
		&cfg.IdentityAPIKey: jc.IdentityAPIKey,
		&cfg.Bucket:         jc.Bucket,
		&cfg.DatabaseDSN:    jc.DatabaseDSN,
		&cfg.DownloadDir:    jc.DownloadDir,
		&cfg.LogLevel:       jc.LogLevel,
	} {
		if v != "" {
			*dst = v
		}
	}
	if jc.HTTPTimeout.Duration > 0 {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.Migrate != nil {
		cfg.Migrate = *jc.Migrate
	}
}
