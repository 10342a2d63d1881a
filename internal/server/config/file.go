package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/chainkeeper/internal/flagx"
	"github.com/dmitrijs2005/chainkeeper/internal/ratchet"
	"github.com/dmitrijs2005/chainkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of Config. Durations go through
// timex.Duration so both "15m" and a number of seconds are accepted.
type FileConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	StoreDriver                 string         `json:"store_driver" yaml:"store_driver"`
	DatabaseDSN                 string         `json:"database_dsn" yaml:"database_dsn"`
	LevelDBPath                 string         `json:"leveldb_path" yaml:"leveldb_path"`
	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3Prefix                    string         `json:"s3_prefix" yaml:"s3_prefix"`
	LogLevel                    string         `json:"log_level" yaml:"log_level"`
	LogFormat                   string         `json:"log_format" yaml:"log_format"`
	Ratchet                     ratchet.Config `json:"ratchet" yaml:"ratchet"`
}

// parseFile overlays the file named by -c/-config (or $CHAINKEEPER_CONFIG)
// onto config. Keys absent from the file keep their current values.
// Files ending in .yaml or .yml are read as YAML, anything else as JSON.
// A missing or invalid file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFile()

	// nothing to load
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := toFile(config)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fromFile(config, fc)
}

func toFile(c *Config) *FileConfig {
	return &FileConfig{
		EndpointAddrGRPC:            c.EndpointAddrGRPC,
		StoreDriver:                 c.StoreDriver,
		DatabaseDSN:                 c.DatabaseDSN,
		LevelDBPath:                 c.LevelDBPath,
		SecretKey:                   c.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		S3RootUser:                  c.S3RootUser,
		S3RootPassword:              c.S3RootPassword,
		S3Bucket:                    c.S3Bucket,
		S3Region:                    c.S3Region,
		S3BaseEndpoint:              c.S3BaseEndpoint,
		S3Prefix:                    c.S3Prefix,
		LogLevel:                    c.LogLevel,
		LogFormat:                   c.LogFormat,
		Ratchet:                     c.Ratchet,
	}
}

func fromFile(c *Config, fc *FileConfig) {
	c.EndpointAddrGRPC = fc.EndpointAddrGRPC
	c.StoreDriver = fc.StoreDriver
	c.DatabaseDSN = fc.DatabaseDSN
	c.LevelDBPath = fc.LevelDBPath
	c.SecretKey = fc.SecretKey
	c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	c.S3RootUser = fc.S3RootUser
	c.S3RootPassword = fc.S3RootPassword
	c.S3Bucket = fc.S3Bucket
	c.S3Region = fc.S3Region
	c.S3BaseEndpoint = fc.S3BaseEndpoint
	c.S3Prefix = fc.S3Prefix
	c.LogLevel = fc.LogLevel
	c.LogFormat = fc.LogFormat
	c.Ratchet = fc.Ratchet
}
