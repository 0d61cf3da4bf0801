// Package store keeps the contacts book: the rooms a user has named and
// wants reopened on the next start. It is a small pebble database; chat
// messages themselves are never stored.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"shmchat/pkg/state/logger"
)

var ErrNotOpen = errors.New("store: not open")

type Store struct {
	db   *pebble.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create parent of %s: %w", path, err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Debug("pebble_opened", "path", path)
	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string { return s.path }

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// IsNotFound reports whether err is pebble.ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return ErrNotOpen
	}
	return nil
}

// prefixUpperBound returns the smallest key greater than every key with
// the given prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
