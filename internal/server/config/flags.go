package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authwall/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   token signing secret key
//	-t int      auth token validity, minutes
//	-r int      refresh token validity, minutes
//	-m int      max concurrent sessions per user
//	-w string   password hashing scheme ("argon2id" or "xor-sha256")
//	-n string   deploy environment name
//	-q string   AMQP connection URL (empty disables publishing)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers in minutes and then converted to
// time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-m", "-w", "-n", "-q"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	authTokenValidityDuration := fs.Int("t", int(config.AuthTokenValidityDuration.Minutes()), "auth_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.IntVar(&config.MaxUserTokenCount, "m", config.MaxUserTokenCount, "max concurrent sessions per user")
	fs.StringVar(&config.PasswordScheme, "w", config.PasswordScheme, "password hashing scheme")
	fs.StringVar(&config.Environment, "n", config.Environment, "deploy environment name")
	fs.StringVar(&config.AMQPUrl, "q", config.AMQPUrl, "AMQP connection URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AuthTokenValidityDuration = time.Duration(*authTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}
