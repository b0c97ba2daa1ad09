package storage

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleBackend persists storage entries through a cockroachdb/pebble
// database, following the open/get/set idiom of the teacher's pkg/state
// Store: pebble.Open with default Options, pebble.Sync writes, and
// translation of pebble.ErrNotFound into the package's own ErrNotFound.
type PebbleBackend struct {
	db *pebble.DB
}

// OpenPebbleBackend opens (creating if absent) a pebble database rooted at
// dir.
func OpenPebbleBackend(dir string) (*PebbleBackend, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("storage: open pebble at %s: %w", dir, err)
	}
	return &PebbleBackend{db: db}, nil
}

func (p *PebbleBackend) Get(key []byte) ([]byte, error) {
	v, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: get: %w", err)
	}
	out := make([]byte, len(v))
	copy(out, v)
	if cerr := closer.Close(); cerr != nil {
		return nil, fmt.Errorf("storage: close reader: %w", cerr)
	}
	return out, nil
}

func (p *PebbleBackend) Set(key, value []byte) error {
	if err := p.db.Set(key, value, pebble.Sync); err != nil {
		return fmt.Errorf("storage: set: %w", err)
	}
	return nil
}

func (p *PebbleBackend) Close() error {
	return p.db.Close()
}
