package chain

import (
	"context"
	"crypto/hmac"
	"fmt"
	"hash"
)

// batchSize is the number of rounds Derive runs between cancellation checks.
const batchSize = 1024

// Stepper is an incrementally advanced derivation. Its whole state is the
// current chain value and the number of rounds still to run, so callers can
// drive it to completion in one go or interleave it with other work.
type Stepper struct {
	mac       hash.Hash
	value     []byte
	scratch   []byte
	remaining int
}

// NewStepper prepares a derivation of iterations rounds starting at seed.
// The seed slice is copied and never modified.
func NewStepper(alg Algorithm, salt, seed []byte, iterations int) (*Stepper, error) {
	h := alg.hasher()
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	if iterations < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeIterations, iterations)
	}

	value := make([]byte, len(seed))
	copy(value, seed)

	return &Stepper{
		mac:       hmac.New(h, salt),
		value:     value,
		remaining: iterations,
	}, nil
}

// Step runs at most n rounds and reports whether the derivation is complete.
func (s *Stepper) Step(n int) bool {
	for ; n > 0 && s.remaining > 0; n-- {
		s.mac.Reset()
		s.mac.Write(s.value)
		s.scratch = s.mac.Sum(s.scratch[:0])
		s.value, s.scratch = s.scratch, s.value
		s.remaining--
	}
	return s.remaining == 0
}

// Remaining returns the number of rounds still to run.
func (s *Stepper) Remaining() int {
	return s.remaining
}

// Value returns a copy of the current chain value.
func (s *Stepper) Value() []byte {
	out := make([]byte, len(s.value))
	copy(out, s.value)
	return out
}

// Derive applies the keyed hash iterations times to seed, using salt as the
// key every round. Zero iterations return a copy of seed. The context is
// checked before each batch; a cancelled derivation returns ctx.Err() and its
// partial result is dropped.
func Derive(ctx context.Context, alg Algorithm, salt, seed []byte, iterations int) ([]byte, error) {
	s, err := NewStepper(alg, salt, seed, iterations)
	if err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Step(batchSize) {
			return s.Value(), nil
		}
	}
}
