package credential

import "errors"

var (
	// Wire format errors.
	ErrMalformedToken      = errors.New("malformed token")
	ErrMalformedJSON       = errors.New("malformed json credential")
	ErrMalformedSalt       = errors.New("malformed salt")
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrUnsupportedInput    = errors.New("unsupported credential input")

	// ErrInvalidCredential is always joined with one of the violations below.
	ErrInvalidCredential = errors.New("invalid credential")
	ErrMissingHash       = errors.New("missing hash")
	ErrAlgorithmMismatch = errors.New("algorithm mismatch")
	ErrIndexOutOfBounds  = errors.New("index out of bounds")
	ErrSaltSize          = errors.New("salt size mismatch")
	ErrHashSize          = errors.New("hash size mismatch")

	// Protocol errors.
	ErrNotInitialCredential  = errors.New("not an initial credential")
	ErrSaltMismatch          = errors.New("salt mismatch")
	ErrInsufficientDecrement = errors.New("insufficient index decrement")
	ErrHashMismatch          = errors.New("hash mismatch")
)
