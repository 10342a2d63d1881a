// Package metadata is the client's small key/value store for session state.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyUsername    = "username"
	KeyAccessToken = "access_token"
)

// Repository stores string values by key. Get reports common.ErrorNotFound
// for absent keys.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
