package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"

	"shmchat/pkg/models"
	"shmchat/pkg/shm"
	"shmchat/pkg/state/logger"
)

const (
	contactPrefix = "c:"
	contactKey    = "c:%03d" // c:<room>, zero padded so keys sort by room
)

func contactKeyFor(room int) []byte {
	return []byte(fmt.Sprintf(contactKey, room))
}

// SaveContact stores c, replacing any contact with the same room number.
func (s *Store) SaveContact(c models.Contact) error {
	if err := s.ready(); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("store: contact name is empty")
	}
	if c.Room < shm.MinRoom || c.Room > shm.MaxRoom {
		return fmt.Errorf("%w: %d", shm.ErrInvalidRoom, c.Room)
	}
	if c.CreatedTS == 0 {
		c.CreatedTS = time.Now().UnixNano()
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.db.Set(contactKeyFor(c.Room), b, pebble.Sync); err != nil {
		logger.Error("contact_save_failed", "room", c.Room, "error", err)
		return err
	}
	logger.Debug("contact_saved", "room", c.Room, "name", c.Name)
	return nil
}

// GetContact returns the contact for room. A missing contact is reported
// with an error for which IsNotFound is true.
func (s *Store) GetContact(room int) (models.Contact, error) {
	if err := s.ready(); err != nil {
		return models.Contact{}, err
	}
	v, closer, err := s.db.Get(contactKeyFor(room))
	if err != nil {
		return models.Contact{}, err
	}
	defer closer.Close()
	var c models.Contact
	if err := json.Unmarshal(v, &c); err != nil {
		return models.Contact{}, fmt.Errorf("store: decode contact %d: %w", room, err)
	}
	return c, nil
}

// DeleteContact removes the contact for room. Deleting a missing contact
// is not an error.
func (s *Store) DeleteContact(room int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.db.Delete(contactKeyFor(room), pebble.Sync); err != nil {
		logger.Error("contact_delete_failed", "room", room, "error", err)
		return err
	}
	return nil
}

// ListContacts returns every contact ordered by room number. Undecodable
// entries are skipped.
func (s *Store) ListContacts() ([]models.Contact, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	prefix := []byte(contactPrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.Contact
	for iter.First(); iter.Valid(); iter.Next() {
		var c models.Contact
		if err := json.Unmarshal(iter.Value(), &c); err != nil {
			logger.Warn("contact_decode_failed", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, c)
	}
	return out, iter.Error()
}
