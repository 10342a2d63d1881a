// Package disclosures records, per identity and salt, how far down its chain
// the client has gone: the lowest index it ever sent and the lowest index the
// server accepted.
package disclosures

import (
	"context"
	"time"
)

// Watermark is the client's view of one chain.
type Watermark struct {
	Username  string
	Salt      string
	Disclosed int
	// Accepted is zero until the server has confirmed a credential on this chain.
	Accepted  int
	UpdatedAt time.Time
}

// Repository persists watermarks. Both Record methods only ever lower the
// stored value. Get reports common.ErrorNotFound for an unknown chain.
type Repository interface {
	Get(ctx context.Context, username, salt string) (*Watermark, error)
	RecordDisclosed(ctx context.Context, username, salt string, index int) error
	RecordAccepted(ctx context.Context, username, salt string, index int) error
	Forget(ctx context.Context, username string) error
}
