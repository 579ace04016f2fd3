package config

import (
	"flag"
	"os"
	"strings"
	"time"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-f int      access token freshness window, minutes
//	-o string   comma-separated CORS origins
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	freshness := fs.Int("f", int(config.AccessTokenFreshness.Minutes()), "access token freshness window (in minutes)")
	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "comma-separated allowed origins")

	if err := fs.Parse(os.Args[1:]); err != nil {
		panic(err)
	}

	config.AccessTokenFreshness = time.Duration(*freshness) * time.Minute
	config.AllowedOrigins = strings.Split(*origins, ",")
	for i := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(config.AllowedOrigins[i])
	}
}
