package transferindex

import (
	"context"
	"errors"

	"github.com/cockroachdb/pebble"
)

const keyPrefix = "transfer:"

// PebbleIndex maps memo-derived transfer order ids to local incoming orders.
// Entries outlive process restarts; an incoming transfer can arrive long
// after the order that registered the watch was created.
type PebbleIndex struct {
	db *pebble.DB
}

func Open(path string) (*PebbleIndex, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleIndex{db: db}, nil
}

func (i *PebbleIndex) Put(ctx context.Context, transferOrderID, orderID string) error {
	return i.db.Set([]byte(keyPrefix+transferOrderID), []byte(orderID), pebble.Sync)
}

func (i *PebbleIndex) Get(ctx context.Context, transferOrderID string) (string, error) {
	value, closer, err := i.db.Get([]byte(keyPrefix + transferOrderID))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	orderID := string(value)
	if err := closer.Close(); err != nil {
		return "", err
	}
	return orderID, nil
}

func (i *PebbleIndex) Close() error {
	return i.db.Close()
}
