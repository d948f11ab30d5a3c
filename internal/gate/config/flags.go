package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/flagx"
)

var (
	valuedFlags = []string{"-a", "-g", "-m", "-j", "-i", "-u", "-s", "-r", "-w", "-k", "-p", "-e", "-b", "-l", "-dev-idp-key"}
	switchFlags = []string{"-o", "-dev-idp"}
)

// parseFlags populates gate Config fields from command-line flags.
//
// Supported flags:
//
//	-a string       HTTP bind address (e.g., ":8080")
//	-g string       gRPC health bind address
//	-m string       auth mode: hmac or jwks
//	-j string       JWKS URL
//	-i string       expected token issuer
//	-u string       expected token audience
//	-s string       HMAC secret key
//	-r int          read grant validity, minutes
//	-w int          write grant validity, minutes
//	-k string       S3 root user
//	-p string       S3 root password
//	-e string       S3 region
//	-b string       S3 base endpoint
//	-l string       log level
//	-o              enforce profile picture ownership
//	-dev-idp        mount the local identity provider
//	-dev-idp-key    API key the local identity provider accepts
//
// Grant durations are given in minutes and converted to time.Duration.
func parseFlags(config *Config) {
	args := flagx.FilterArgsWithSwitches(os.Args[1:], valuedFlags, switchFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to serve grants on")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port of the gRPC health service")
	fs.StringVar(&config.AuthMode, "m", config.AuthMode, "token verification mode (hmac|jwks)")
	fs.StringVar(&config.JWKSURL, "j", config.JWKSURL, "JWKS URL")
	fs.StringVar(&config.TokenIssuer, "i", config.TokenIssuer, "expected token issuer")
	fs.StringVar(&config.TokenAudience, "u", config.TokenAudience, "expected token audience")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	readTTL := fs.Int("r", int(config.ReadGrantTTL.Minutes()), "read grant validity (in minutes)")
	writeTTL := fs.Int("w", int(config.WriteGrantTTL.Minutes()), "write grant validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "k", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Region, "e", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "b", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.BoolVar(&config.EnforceOwnership, "o", config.EnforceOwnership, "enforce profile picture ownership")
	fs.BoolVar(&config.DevIdP, "dev-idp", config.DevIdP, "serve the local identity provider")
	fs.StringVar(&config.DevIdPAPIKey, "dev-idp-key", config.DevIdPAPIKey, "local identity provider API key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ReadGrantTTL = time.Duration(*readTTL) * time.Minute
	config.WriteGrantTTL = time.Duration(*writeTTL) * time.Minute
}
