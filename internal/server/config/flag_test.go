package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-store", "leveldb", "-d", "db", "-l", "/var/lib/ck", "-s", "secret",
				"-t", "5", "-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
				"-log-level", "debug", "-log-format", "json", "-algorithm", "sha512", "-encoding", "hex",
			},
			expected: func() *Config {
				c := &Config{
					EndpointAddrGRPC:            "127.0.0.1:9090",
					StoreDriver:                 "leveldb",
					DatabaseDSN:                 "db",
					LevelDBPath:                 "/var/lib/ck",
					SecretKey:                   "secret",
					AccessTokenValidityDuration: 5 * time.Minute,
					S3RootUser:                  "user",
					S3RootPassword:              "password",
					S3Bucket:                    "bucket",
					S3Region:                    "us-west-1",
					S3BaseEndpoint:              "http://endpoint",
					LogLevel:                    "debug",
					LogFormat:                   "json",
				}
				c.Ratchet.Algorithm = "sha512"
				c.Ratchet.Encoding = "hex"
				return c
			}(),
		},
		{
			name: "foreign flags are ignored",
			args: []string{"cmd", "-x", "1", "-a", ":1"},
			expected: &Config{
				EndpointAddrGRPC: ":1",
			},
		},
		{
			name:        "bad duration",
			args:        []string{"cmd", "-t", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
