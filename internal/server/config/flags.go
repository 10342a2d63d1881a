package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/chainkeeper/internal/chain"
	"github.com/dmitrijs2005/chainkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          gRPC bind address (e.g., ":50051")
//	-store string      credential store: postgres, memory, leveldb, s3
//	-d string          PostgreSQL DSN
//	-l string          LevelDB directory
//	-s string          JWT HMAC secret key
//	-t int             access token validity, minutes
//	-u string          S3 root user
//	-p string          S3 root password
//	-b string          S3 bucket name
//	-g string          S3 region
//	-e string          S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-log-level string  debug, info, warn or error
//	-log-format string text or json
//	-algorithm string  hash-chain algorithm
//	-encoding string   base64 or hex
//
// os.Args is filtered through flagx.FilterArgs first so flags owned by
// other components do not cause parse errors.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-store", "-d", "-l", "-s", "-t", "-u", "-p", "-b", "-g", "-e",
		"-log-level", "-log-format", "-algorithm", "-encoding",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.StoreDriver, "store", config.StoreDriver, "credential store driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LevelDBPath, "l", config.LevelDBPath, "leveldb directory")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format")

	fs.StringVar(&config.Ratchet.Algorithm, "algorithm", config.Ratchet.Algorithm, "hash-chain algorithm: "+strings.Join(chain.Algorithms(), ", "))
	fs.StringVar(&config.Ratchet.Encoding, "encoding", config.Ratchet.Encoding, "credential encoding")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
