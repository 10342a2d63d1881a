package ratchet

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid ratchet config")

// Config fixes the Manager policy for its whole lifetime.
//
// Fields:
//   - Algorithm: keyed-hash identifier, see chain.Algorithms.
//   - MinIndex / MaxIndex: accepted credentials satisfy MinIndex < index <= MaxIndex.
//   - UpdateIndex: at or below this target index a salt rotation is offered.
//   - SaltSize: salt length in bytes.
//   - MinDecrement: least index distance between a submitted credential and its target.
//   - Encoding: "base64" or "hex".
//   - MaxIterations: hard ceiling on rounds computed for a single call.
type Config struct {
	Algorithm     string `json:"algorithm" yaml:"algorithm"`
	MinIndex      int    `json:"min_index" yaml:"min_index"`
	MaxIndex      int    `json:"max_index" yaml:"max_index"`
	UpdateIndex   int    `json:"update_index" yaml:"update_index"`
	SaltSize      int    `json:"salt_size" yaml:"salt_size"`
	MinDecrement  int    `json:"min_decrement" yaml:"min_decrement"`
	Encoding      string `json:"encoding" yaml:"encoding"`
	MaxIterations int    `json:"max_iterations" yaml:"max_iterations"`
}

// DefaultConfig returns the stock policy.
func DefaultConfig() Config {
	var c Config
	c.LoadDefaults()
	return c
}

// LoadDefaults populates c with the stock policy.
func (c *Config) LoadDefaults() {
	c.Algorithm = "sha256"
	c.MinIndex = 20000
	c.MaxIndex = 200000
	c.UpdateIndex = 50000
	c.SaltSize = 32
	c.MinDecrement = 1
	c.Encoding = "base64"
	c.MaxIterations = 1000000
}

func (c Config) validate() error {
	switch {
	case c.MinIndex < 0:
		return fmt.Errorf("%w: min index %d is negative", ErrInvalidConfig, c.MinIndex)
	case c.MaxIndex <= c.MinIndex:
		return fmt.Errorf("%w: max index %d must exceed min index %d", ErrInvalidConfig, c.MaxIndex, c.MinIndex)
	case c.UpdateIndex < c.MinIndex || c.UpdateIndex > c.MaxIndex:
		return fmt.Errorf("%w: update index %d outside [%d, %d]", ErrInvalidConfig, c.UpdateIndex, c.MinIndex, c.MaxIndex)
	case c.SaltSize <= 0:
		return fmt.Errorf("%w: salt size must be positive", ErrInvalidConfig)
	case c.MinDecrement < 1:
		return fmt.Errorf("%w: min decrement must be at least 1", ErrInvalidConfig)
	case c.MaxIterations < c.MaxIndex:
		return fmt.Errorf("%w: max iterations %d below max index %d", ErrInvalidConfig, c.MaxIterations, c.MaxIndex)
	}
	return nil
}
