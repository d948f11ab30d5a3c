package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-g string   gate base URL
//	-i string   identity provider base URL
//	-k string   identity provider API key
//	-b string   storage bucket
//	-d string   record store DSN
//	-t int      HTTP timeout (in seconds)
//	-o string   download directory
//	-l string   log level
//	-migrate    apply migrations on start
func parseFlags(cfg *Config) {
	args := flagx.FilterArgsWithSwitches(os.Args[1:],
		[]string{"-g", "-i", "-k", "-b", "-d", "-t", "-o", "-l"},
		[]string{"-migrate"},
	)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.GateURL, "g", cfg.GateURL, "credential gate base URL")
	fs.StringVar(&cfg.IdentityURL, "i", cfg.IdentityURL, "identity provider base URL")
	fs.StringVar(&cfg.IdentityAPIKey, "k", cfg.IdentityAPIKey, "identity provider API key")
	fs.StringVar(&cfg.Bucket, "b", cfg.Bucket, "storage bucket")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "record store DSN")
	httpTimeout := fs.Int("t", int(cfg.HTTPTimeout.Seconds()), "HTTP timeout (in seconds)")
	fs.StringVar(&cfg.DownloadDir, "o", cfg.DownloadDir, "download directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.Migrate, "migrate", cfg.Migrate, "apply record store migrations on start")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.HTTPTimeout = time.Duration(*httpTimeout) * time.Second
}
