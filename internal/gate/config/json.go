package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/thesisvault/internal/flagx"
	"github.com/dmitrijs2005/thesisvault/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "15m" or
// integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	AuthMode         string         `json:"auth_mode"`
	JWKSURL          string         `json:"jwks_url"`
	TokenIssuer      string         `json:"token_issuer"`
	TokenAudience    string         `json:"token_audience"`
	SecretKey        string         `json:"secret_key"`
	ReadGrantTTL     timex.Duration `json:"read_grant_ttl"`
	WriteGrantTTL    timex.Duration `json:"write_grant_ttl"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	EnforceOwnership *bool          `json:"enforce_ownership"`
	DevIdP           *bool          `json:"dev_idp"`
	DevIdPAPIKey     string         `json:"dev_idp_api_key"`
	LogLevel         string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config.
// Keys absent from the file keep their current value. An unreadable or
// malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.AuthMode, c.AuthMode)
	setString(&config.JWKSURL, c.JWKSURL)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.TokenAudience, c.TokenAudience)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.DevIdPAPIKey, c.DevIdPAPIKey)
	setString(&config.LogLevel, c.LogLevel)

	if c.ReadGrantTTL.Duration > 0 {
		config.ReadGrantTTL = c.ReadGrantTTL.Duration
	}
	if c.WriteGrantTTL.Duration > 0 {
		config.WriteGrantTTL = c.WriteGrantTTL.Duration
	}
	if c.EnforceOwnership != nil {
		config.EnforceOwnership = *c.EnforceOwnership
	}
	if c.DevIdP != nil {
		config.DevIdP = *c.DevIdP
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
