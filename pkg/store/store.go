// Package store keeps wizard sessions between requests.
package store

import (
	"context"
	"errors"

	"shipper/pkg/wizard"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists wizard snapshots by session id
type Store interface {
	Load(ctx context.Context, sessionID string) (*wizard.Snapshot, error)
	Save(ctx context.Context, sessionID string, snap *wizard.Snapshot) error
	Delete(ctx context.Context, sessionID string) error
}

// Locker is implemented by stores shared between processes. Lock blocks until
// the session's lock is held or ctx is done; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}
