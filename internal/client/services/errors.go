package services

import "errors"

var (
	// ErrServerRollback means the server asked for an index above one it
	// already accepted on the same chain.
	ErrServerRollback = errors.New("server state rolled back: refusing to sign in")
	// ErrChainExhausted means no index is left between the lowest disclosure
	// and the chain floor.
	ErrChainExhausted = errors.New("hash chain exhausted")
	ErrNoSession      = errors.New("not signed in")
)
