package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shmchat/pkg/models"
	"shmchat/pkg/shm"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "contacts"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContactsCRUD(t *testing.T) {
	s := openTemp(t)

	require.NoError(t, s.SaveContact(models.Contact{Name: "Bob", Room: 7}))
	require.NoError(t, s.SaveContact(models.Contact{Name: " Carol ", Room: 12}))
	require.NoError(t, s.SaveContact(models.Contact{Name: "Alice", Room: 3}))

	got, err := s.GetContact(12)
	require.NoError(t, err)
	assert.Equal(t, "Carol", got.Name)
	assert.NotZero(t, got.CreatedTS)

	list, err := s.ListContacts()
	require.NoError(t, err)
	var rooms []int
	for _, c := range list {
		rooms = append(rooms, c.Room)
	}
	assert.Equal(t, []int{3, 7, 12}, rooms, "ordered by room number")

	require.NoError(t, s.SaveContact(models.Contact{Name: "Robert", Room: 7}))
	got, err = s.GetContact(7)
	require.NoError(t, err)
	assert.Equal(t, "Robert", got.Name)

	require.NoError(t, s.DeleteContact(7))
	_, err = s.GetContact(7)
	assert.True(t, IsNotFound(err))
	require.NoError(t, s.DeleteContact(7), "deleting twice is fine")

	list, err = s.ListContacts()
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSaveContactValidation(t *testing.T) {
	s := openTemp(t)

	tests := []struct {
		name string
		c    models.Contact
	}{
		{name: "blank name", c: models.Contact{Name: "  ", Room: 1}},
		{name: "room zero", c: models.Contact{Name: "x", Room: 0}},
		{name: "room too large", c: models.Contact{Name: "x", Room: 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SaveContact(tt.c); err == nil {
				t.Fatalf("SaveContact(%+v) succeeded, want error", tt.c)
			}
		})
	}
	assert.ErrorIs(t, s.SaveContact(models.Contact{Name: "x", Room: -3}), shm.ErrInvalidRoom)
}

func TestContactsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "contacts")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveContact(models.Contact{Name: "Bob", Room: 5}))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.ListContacts()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bob", list[0].Name)
}

func TestClosedStore(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.SaveContact(models.Contact{Name: "x", Room: 1}), ErrNotOpen)
	_, err := s.ListContacts()
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, []byte("c;"), prefixUpperBound([]byte("c:")))
	assert.Equal(t, []byte{0x02}, prefixUpperBound([]byte{0x01, 0xff}))
	assert.Nil(t, prefixUpperBound([]byte{0xff}))
}
