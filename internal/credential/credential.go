// Package credential defines the hash-chain credential value and the codec
// that maps it to and from its two wire forms: a compact dot-separated token
// string and a JSON object.
package credential

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chainkeeper/internal/chain"
)

// Credential is one point on a password's hash chain: Hash = F^Index(password, Salt).
type Credential struct {
	Algorithm chain.Algorithm
	Salt      []byte
	Hash      []byte
	Index     int
}

// tokenHeader field order defines the canonical header {"index":N,"algorithm":"ID"}.
type tokenHeader struct {
	Index     int    `json:"index"`
	Algorithm string `json:"algorithm"`
}

type tokenHeaderIn struct {
	Index     *int    `json:"index"`
	Algorithm *string `json:"algorithm"`
}

type jsonCredential struct {
	Algorithm string `json:"algorithm"`
	Salt      string `json:"salt"`
	Hash      string `json:"hash"`
	Index     int    `json:"index"`
}

type jsonCredentialIn struct {
	Algorithm *string `json:"algorithm"`
	Salt      *string `json:"salt"`
	Hash      *string `json:"hash"`
	Index     *int    `json:"index"`
}

// Codec converts credentials to and from wire text using one Encoding.
type Codec struct {
	enc Encoding
}

// NewCodec returns a Codec for enc, failing for anything but Base64 or Hex.
func NewCodec(enc Encoding) (*Codec, error) {
	if enc != Base64 && enc != Hex {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedEncoding, enc)
	}
	return &Codec{enc: enc}, nil
}

// Encoding returns the codec's binary-to-text encoding.
func (c *Codec) Encoding() Encoding {
	return c.enc
}

// EncodeToken renders cred as <header>.<salt>.<hash>.
func (c *Codec) EncodeToken(cred *Credential) (string, error) {
	header, err := json.Marshal(tokenHeader{Index: cred.Index, Algorithm: cred.Algorithm.String()})
	if err != nil {
		return "", err
	}

	return c.enc.Encode(header) + "." + c.enc.Encode(cred.Salt) + "." + c.enc.Encode(cred.Hash), nil
}

// DecodeToken parses a token produced by EncodeToken.
func (c *Codec) DecodeToken(token string) (*Credential, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	rawHeader, err := c.enc.Decode(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedToken, err)
	}

	var header tokenHeaderIn
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedToken, err)
	}
	if header.Index == nil || header.Algorithm == nil {
		return nil, fmt.Errorf("%w: header must carry index and algorithm", ErrMalformedToken)
	}

	salt, err := c.enc.Decode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrMalformedToken, err)
	}

	hash, err := c.enc.Decode(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: hash: %v", ErrMalformedToken, err)
	}

	alg, _ := chain.LookupAlgorithm(*header.Algorithm)

	return &Credential{Algorithm: alg, Salt: salt, Hash: hash, Index: *header.Index}, nil
}

// EncodeJSON renders cred as {"algorithm":..,"salt":..,"hash":..,"index":..}.
func (c *Codec) EncodeJSON(cred *Credential) (string, error) {
	b, err := json.Marshal(jsonCredential{
		Algorithm: cred.Algorithm.String(),
		Salt:      c.enc.Encode(cred.Salt),
		Hash:      c.enc.Encode(cred.Hash),
		Index:     cred.Index,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeJSON parses the JSON form. All four keys are required.
func (c *Codec) DecodeJSON(s string) (*Credential, error) {
	var in jsonCredentialIn
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if in.Algorithm == nil || in.Salt == nil || in.Hash == nil || in.Index == nil {
		return nil, fmt.Errorf("%w: algorithm, salt, hash and index are required", ErrMalformedJSON)
	}

	salt, err := c.enc.Decode(*in.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrMalformedJSON, err)
	}

	hash, err := c.enc.Decode(*in.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: hash: %v", ErrMalformedJSON, err)
	}

	alg, _ := chain.LookupAlgorithm(*in.Algorithm)

	return &Credential{Algorithm: alg, Salt: salt, Hash: hash, Index: *in.Index}, nil
}

// Parse accepts either wire form, or an in-process Credential which is
// returned as is. Text starting with '{' (after trimming) is treated as JSON.
func (c *Codec) Parse(input any) (*Credential, error) {
	switch v := input.(type) {
	case *Credential:
		if v == nil {
			return nil, ErrUnsupportedInput
		}
		return v, nil
	case Credential:
		return &v, nil
	case []byte:
		return c.parseText(string(v))
	case string:
		return c.parseText(v)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, input)
}

func (c *Codec) parseText(s string) (*Credential, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		return c.DecodeJSON(s)
	}
	return c.DecodeToken(s)
}
