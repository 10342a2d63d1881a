package config

import "time"

// Config holds runtime settings for the chainkeeper CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the credential gRPC endpoint.
//   - DatabasePath: local SQLite file with session state and chain watermarks.
//   - RequestTimeout: deadline applied to each command's server round trips.
//   - Algorithm / Encoding: chain parameters used for offline commands and
//     for credentials sent to the server.
//   - LogLevel / LogFormat: diagnostic logging on stderr.
type Config struct {
	ServerEndpointAddr string
	DatabasePath       string
	RequestTimeout     time.Duration
	Algorithm          string
	Encoding           string
	LogLevel           string
	LogFormat          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "data/client.db"
	c.RequestTimeout = 30 * time.Second
	c.Algorithm = "sha256"
	c.Encoding = "base64"
	c.LogLevel = "warn"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config from defaults overlaid with the config file
// (if any). Command-line flags are bound later by the CLI, see BindFlags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	return cfg
}
