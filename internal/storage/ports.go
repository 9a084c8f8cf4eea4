package storage

import (
	"context"
	"errors"
)

// Snapshot keys. Each names one independently versioned JSON document.
const (
	KeyShopping     = "shopping-state"
	KeyTransactions = "transaction-state"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists whole-state JSON blobs by key. Save overwrites.
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// Snapshot is one keyed document written by SaveAll.
type Snapshot struct {
	Key  string
	Data []byte
}

// BatchSaver is implemented by stores that can write several snapshots as
// one atomic step: either all of them are stored or none is.
type BatchSaver interface {
	SaveAll(ctx context.Context, snapshots []Snapshot) error
}
