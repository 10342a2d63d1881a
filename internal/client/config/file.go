package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/chainkeeper/internal/flagx"
	"github.com/dmitrijs2005/chainkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of Config.
type FileConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	DatabasePath       string         `json:"database_path" yaml:"database_path"`
	RequestTimeout     timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	Algorithm          string         `json:"algorithm" yaml:"algorithm"`
	Encoding           string         `json:"encoding" yaml:"encoding"`
	LogLevel           string         `json:"log_level" yaml:"log_level"`
	LogFormat          string         `json:"log_format" yaml:"log_format"`
}

// parseFile overlays the file named by -c/--config (or $CHAINKEEPER_CONFIG)
// onto cfg. Keys absent from the file keep their current values. YAML is
// picked by extension, JSON otherwise. A missing or invalid file panics.
func parseFile(cfg *Config) {
	path := flagx.ConfigFile()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{
		ServerEndpointAddr: cfg.ServerEndpointAddr,
		DatabasePath:       cfg.DatabasePath,
		RequestTimeout:     timex.Duration{Duration: cfg.RequestTimeout},
		Algorithm:          cfg.Algorithm,
		Encoding:           cfg.Encoding,
		LogLevel:           cfg.LogLevel,
		LogFormat:          cfg.LogFormat,
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	cfg.ServerEndpointAddr = fc.ServerEndpointAddr
	cfg.DatabasePath = fc.DatabasePath
	cfg.RequestTimeout = fc.RequestTimeout.Duration
	cfg.Algorithm = fc.Algorithm
	cfg.Encoding = fc.Encoding
	cfg.LogLevel = fc.LogLevel
	cfg.LogFormat = fc.LogFormat
}
