package config

import (
	"strings"

	"github.com/dmitrijs2005/chainkeeper/internal/chain"
	"github.com/spf13/pflag"
)

// BindFlags registers the persistent CLI flags on fs, writing straight into
// c. Values already in c (defaults and config file) become flag defaults, so
// an explicit flag wins over both.
//
//	-a, --addr        address and port of the server
//	    --db          local database file
//	    --timeout     per-command server timeout
//	    --algorithm   chain hash algorithm
//	    --encoding    base64 or hex
//	    --log-level   debug, info, warn or error
//	    --log-format  text or json
//	-c, --config      config file, consumed by LoadConfig
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.ServerEndpointAddr, "addr", "a", c.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&c.DatabasePath, "db", c.DatabasePath, "local database file")
	fs.DurationVar(&c.RequestTimeout, "timeout", c.RequestTimeout, "server request timeout")
	fs.StringVar(&c.Algorithm, "algorithm", c.Algorithm, "chain hash algorithm ("+strings.Join(chain.Algorithms(), ", ")+")")
	fs.StringVar(&c.Encoding, "encoding", c.Encoding, "credential encoding (base64 or hex)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format (text or json)")
	fs.StringP("config", "c", "", "config file (JSON or YAML)")
}
