// Package config handles configuration for the credential gate,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"log/slog"
	"time"
)

// Auth modes understood by the gate.
const (
	AuthModeHMAC = "hmac"
	AuthModeJWKS = "jwks"
)

// Config holds runtime settings for the gate.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the grant endpoints.
//   - EndpointAddrGRPC: bind address for the gRPC health service.
//   - AuthMode: "hmac" (shared secret, dev identity provider) or "jwks".
//   - JWKSURL / TokenIssuer / TokenAudience: external identity provider settings.
//   - SecretKey: HMAC secret for HS256 tokens. Do not use test defaults in prod.
//   - ReadGrantTTL / WriteGrantTTL: lifetimes of minted signed URLs.
//   - S3RootUser / S3RootPassword / S3Region / S3BaseEndpoint: object storage settings.
//   - EnforceOwnership: restrict profile picture writes to their owner.
//   - DevIdP / DevIdPAPIKey: mount the local identity provider.
type Config struct {
	EndpointAddrHTTP string
	EndpointAddrGRPC string
	AuthMode         string
	JWKSURL          string
	TokenIssuer      string
	TokenAudience    string
	SecretKey        string
	ReadGrantTTL     time.Duration
	WriteGrantTTL    time.Duration
	S3RootUser       string
	S3RootPassword   string
	S3Region         string
	S3BaseEndpoint   string
	EnforceOwnership bool
	DevIdP           bool
	DevIdPAPIKey     string
	LogLevel         string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.AuthMode = AuthModeHMAC
	c.SecretKey = "secretKey"
	c.ReadGrantTTL = 60 * time.Minute
	c.WriteGrantTTL = 15 * time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.DevIdPAPIKey = "dev-api-key"
	c.LogLevel = "info"
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
