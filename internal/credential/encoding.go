package credential

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Encoding is the binary-to-text encoding used by every wire segment.
type Encoding int

const (
	Base64 Encoding = iota + 1
	Hex
)

// ParseEncoding resolves "base64" or "hex".
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "base64":
		return Base64, nil
	case "hex":
		return Hex, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
}

func (e Encoding) String() string {
	switch e {
	case Base64:
		return "base64"
	case Hex:
		return "hex"
	}
	return "unknown"
}

// Encode renders b as text.
func (e Encoding) Encode(b []byte) string {
	if e == Hex {
		return hex.EncodeToString(b)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// Decode parses text produced by Encode.
func (e Encoding) Decode(s string) ([]byte, error) {
	if e == Hex {
		return hex.DecodeString(s)
	}
	return base64.StdEncoding.DecodeString(s)
}
