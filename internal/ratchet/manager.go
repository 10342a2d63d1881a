// Package ratchet is the policy layer of the hash-chain credential scheme.
//
// A Manager is bound to one Config and is otherwise stateless: it generates
// salts and credentials, parses and bounds-checks incoming credentials, and
// runs the ratchet check that accepts a credential only if hashing it forward
// reproduces the stored target. Persisting and replacing the target after a
// successful check is the caller's job, and the caller must serialize that
// read-validate-write sequence per identity.
package ratchet

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/chainkeeper/internal/chain"
	"github.com/dmitrijs2005/chainkeeper/internal/credential"
	"golang.org/x/crypto/hkdf"
)

var ErrIterationLimit = errors.New("iteration count exceeds limit")

// InitialData is what a new registrant needs to derive its first credential.
type InitialData struct {
	MinIndex     int    `json:"minIndex"`
	MaxIndex     int    `json:"maxIndex"`
	UpdateIndex  int    `json:"updateIndex"`
	MinDecrement int    `json:"minDecrement"`
	Salt         string `json:"salt"`
}

// AuthData is what a claimant needs to derive its next credential.
// SaltUpdate and IndexUpdate are set only when a salt rotation is due.
type AuthData struct {
	Index        int    `json:"index"`
	Salt         string `json:"salt"`
	MinIndex     int    `json:"minIndex"`
	MaxIndex     int    `json:"maxIndex"`
	MinDecrement int    `json:"minDecrement"`
	SaltUpdate   string `json:"saltUpdate,omitempty"`
	IndexUpdate  int    `json:"indexUpdate,omitempty"`
}

// RotationDue reports whether the claimant was handed a new salt.
func (d *AuthData) RotationDue() bool {
	return d.SaltUpdate != ""
}

// GenerateRequest describes one credential to derive.
type GenerateRequest struct {
	Password string
	Index    int
	Salt     string
	AsJSON   bool
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRandom replaces the salt entropy source (crypto/rand by default).
func WithRandom(r io.Reader) Option {
	return func(m *Manager) {
		m.random = r
	}
}

// Manager applies one Config to credential generation and validation.
type Manager struct {
	cfg       Config
	algorithm chain.Algorithm
	codec     *credential.Codec
	random    io.Reader
}

// New validates cfg and builds a Manager. Unknown algorithms and encodings
// fail here and never per call.
func New(cfg Config, opts ...Option) (*Manager, error) {
	alg, err := chain.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	enc, err := credential.ParseEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = max(DefaultConfig().MaxIterations, cfg.MaxIndex)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	codec, err := credential.NewCodec(enc)
	if err != nil {
		return nil, err
	}

	m := &Manager{cfg: cfg, algorithm: alg, codec: codec, random: rand.Reader}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the policy the Manager was built with.
func (m *Manager) Config() Config {
	return m.cfg
}

// Codec exposes the wire codec bound to the configured encoding.
func (m *Manager) Codec() *credential.Codec {
	return m.codec
}

// GenerateSalt returns SaltSize random bytes in the configured encoding.
func (m *Manager) GenerateSalt() (string, error) {
	salt := make([]byte, m.cfg.SaltSize)
	if _, err := io.ReadFull(m.random, salt); err != nil {
		return "", fmt.Errorf("salt generation: %w", err)
	}
	return m.codec.Encoding().Encode(salt), nil
}

// Generate derives the credential at req.Index from req.Password and
// serializes it. The index is not checked against MinIndex/MaxIndex: a
// claimant may derive candidates freely, bounds apply when parsing.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Index > m.cfg.MaxIterations {
		return "", fmt.Errorf("%w: %d > %d", ErrIterationLimit, req.Index, m.cfg.MaxIterations)
	}

	salt, err := m.codec.Encoding().Decode(req.Salt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", credential.ErrMalformedSalt, err)
	}

	hash, err := chain.Derive(ctx, m.algorithm, salt, []byte(req.Password), req.Index)
	if err != nil {
		return "", err
	}

	cred := &credential.Credential{Algorithm: m.algorithm, Salt: salt, Hash: hash, Index: req.Index}
	if req.AsJSON {
		return m.codec.EncodeJSON(cred)
	}
	return m.codec.EncodeToken(cred)
}

// Parse decodes input (token, JSON or *credential.Credential) and enforces
// the data-model invariants in order: hash present, algorithm, index bounds,
// salt length, hash length.
func (m *Manager) Parse(input any) (*credential.Credential, error) {
	cred, err := m.codec.Parse(input)
	if err != nil {
		return nil, err
	}

	switch {
	case len(cred.Hash) == 0:
		return nil, fmt.Errorf("%w: %w", credential.ErrInvalidCredential, credential.ErrMissingHash)
	case cred.Algorithm != m.algorithm:
		return nil, fmt.Errorf("%w: %w: got %s, want %s",
			credential.ErrInvalidCredential, credential.ErrAlgorithmMismatch, cred.Algorithm, m.algorithm)
	case cred.Index <= m.cfg.MinIndex || cred.Index > m.cfg.MaxIndex:
		return nil, fmt.Errorf("%w: %w: %d not in (%d, %d]",
			credential.ErrInvalidCredential, credential.ErrIndexOutOfBounds, cred.Index, m.cfg.MinIndex, m.cfg.MaxIndex)
	case len(cred.Salt) != m.cfg.SaltSize:
		return nil, fmt.Errorf("%w: %w: got %d bytes, want %d",
			credential.ErrInvalidCredential, credential.ErrSaltSize, len(cred.Salt), m.cfg.SaltSize)
	case len(cred.Hash) != m.algorithm.Size():
		return nil, fmt.Errorf("%w: %w: got %d bytes, want %d",
			credential.ErrInvalidCredential, credential.ErrHashSize, len(cred.Hash), m.algorithm.Size())
	}

	return cred, nil
}

// Canonical parses input and re-encodes it as a token string.
func (m *Manager) Canonical(input any) (string, error) {
	cred, err := m.Parse(input)
	if err != nil {
		return "", err
	}
	return m.codec.EncodeToken(cred)
}

// ValidateInitial accepts only a well-formed credential at exactly MaxIndex.
func (m *Manager) ValidateInitial(input any) error {
	cred, err := m.Parse(input)
	if err != nil {
		return err
	}
	if cred.Index != m.cfg.MaxIndex {
		return fmt.Errorf("%w: index %d, want %d", credential.ErrNotInitialCredential, cred.Index, m.cfg.MaxIndex)
	}
	return nil
}

// InitialData returns bootstrap parameters with a fresh salt.
func (m *Manager) InitialData() (*InitialData, error) {
	salt, err := m.GenerateSalt()
	if err != nil {
		return nil, err
	}

	return &InitialData{
		MinIndex:     m.cfg.MinIndex,
		MaxIndex:     m.cfg.MaxIndex,
		UpdateIndex:  m.cfg.UpdateIndex,
		MinDecrement: m.cfg.MinDecrement,
		Salt:         salt,
	}, nil
}

// AuthData describes the stored target to a claimant. Once the target index
// is at or below UpdateIndex a new salt and MaxIndex are included, so the
// claimant can send a replacement chain alongside its credential.
func (m *Manager) AuthData(target any) (*AuthData, error) {
	cred, err := m.Parse(target)
	if err != nil {
		return nil, err
	}

	data := &AuthData{
		Index:        cred.Index,
		Salt:         m.codec.Encoding().Encode(cred.Salt),
		MinIndex:     m.cfg.MinIndex,
		MaxIndex:     m.cfg.MaxIndex,
		MinDecrement: m.cfg.MinDecrement,
	}

	if cred.Index <= m.cfg.UpdateIndex {
		salt, err := m.GenerateSalt()
		if err != nil {
			return nil, err
		}
		data.SaltUpdate = salt
		data.IndexUpdate = m.cfg.MaxIndex
	}

	return data, nil
}

// DecoyAuthData returns auth data for an identity that does not exist,
// shaped exactly like AuthData for a new registrant. The salt is derived from
// key and identity, so repeated calls for one identity agree.
func (m *Manager) DecoyAuthData(key []byte, identity string) (*AuthData, error) {
	raw := make([]byte, m.cfg.SaltSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, []byte(identity)), raw); err != nil {
		return nil, fmt.Errorf("decoy salt: %w", err)
	}
	salt := m.codec.Encoding().Encode(raw)

	data := &AuthData{
		Index:        m.cfg.MaxIndex,
		Salt:         salt,
		MinIndex:     m.cfg.MinIndex,
		MaxIndex:     m.cfg.MaxIndex,
		MinDecrement: m.cfg.MinDecrement,
	}

	if m.cfg.MaxIndex <= m.cfg.UpdateIndex {
		var err error
		if data.SaltUpdate, err = m.GenerateSalt(); err != nil {
			return nil, err
		}
		data.IndexUpdate = m.cfg.MaxIndex
	}

	return data, nil
}

// Validate is the ratchet check: input must sit at least MinDecrement rounds
// before target on the same chain. A nil error means target may be replaced
// by input.
func (m *Manager) Validate(ctx context.Context, input, target any) error {
	in, err := m.Parse(input)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	tg, err := m.Parse(target)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}

	if !bytes.Equal(in.Salt, tg.Salt) {
		return credential.ErrSaltMismatch
	}

	gap := tg.Index - in.Index
	if gap < m.cfg.MinDecrement {
		return fmt.Errorf("%w: %d < %d", credential.ErrInsufficientDecrement, gap, m.cfg.MinDecrement)
	}

	expected, err := chain.Derive(ctx, m.algorithm, tg.Salt, in.Hash, gap)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(expected, tg.Hash) != 1 {
		return credential.ErrHashMismatch
	}

	return nil
}
