// Package chain implements the iterated keyed-hash derivation at the heart of
// the credential scheme: hash(k) = F^k(seed, salt), where F is HMAC keyed by
// the salt over one of a closed set of hash functions.
package chain

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"maps"
	"slices"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

var (
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrNegativeIterations   = errors.New("negative iteration count")
)

// Algorithm identifies the hash function used inside the keyed hash.
type Algorithm int

const (
	AlgorithmUnknown Algorithm = iota
	SHA256
	SHA384
	SHA512
	SHA3_256
	SHA3_512
	BLAKE2b256
)

var algorithmIDs = map[Algorithm]string{
	SHA256:     "sha256",
	SHA384:     "sha384",
	SHA512:     "sha512",
	SHA3_256:   "sha3-256",
	SHA3_512:   "sha3-512",
	BLAKE2b256: "blake2b-256",
}

// String returns the wire identifier of the algorithm, e.g. "sha256".
func (a Algorithm) String() string {
	if id, ok := algorithmIDs[a]; ok {
		return id
	}
	return "unknown"
}

// Size is the digest length in bytes, or 0 for an unknown algorithm.
func (a Algorithm) Size() int {
	h := a.hasher()
	if h == nil {
		return 0
	}
	return h().Size()
}

func (a Algorithm) hasher() func() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New
	case SHA384:
		return sha512.New384
	case SHA512:
		return sha512.New
	case SHA3_256:
		return sha3.New256
	case SHA3_512:
		return sha3.New512
	case BLAKE2b256:
		return func() hash.Hash {
			// unkeyed blake2b never fails; HMAC supplies the key
			h, _ := blake2b.New256(nil)
			return h
		}
	}
	return nil
}

// LookupAlgorithm resolves a wire identifier without failing. Unknown ids
// yield AlgorithmUnknown and false.
func LookupAlgorithm(id string) (Algorithm, bool) {
	for a, s := range algorithmIDs {
		if s == id {
			return a, true
		}
	}
	return AlgorithmUnknown, false
}

// ParseAlgorithm resolves a wire identifier or fails with ErrUnsupportedAlgorithm.
func ParseAlgorithm(id string) (Algorithm, error) {
	a, ok := LookupAlgorithm(id)
	if !ok {
		return AlgorithmUnknown, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, id)
	}
	return a, nil
}

// Algorithms lists the supported identifiers in declaration order.
func Algorithms() []string {
	ids := make([]string, 0, len(algorithmIDs))
	for _, a := range slices.Sorted(maps.Keys(algorithmIDs)) {
		ids = append(ids, algorithmIDs[a])
	}
	return ids
}
