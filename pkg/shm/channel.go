package shm

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
)

// Key identifies a shared segment across processes.
type Key int

const (
	// SegmentSize is the fixed byte length of every chat segment.
	SegmentSize = 1024
	// SingleRoomKey is the well-known key used when only one room exists.
	SingleRoomKey Key = 1234
	// BaseKey is added to a room number to derive its segment key.
	BaseKey Key = 2000

	MinRoom = 1
	MaxRoom = 999
)

var (
	ErrSegmentUnavailable = errors.New("shm: segment unavailable")
	ErrClosed             = errors.New("shm: channel closed")
	ErrInvalidRoom        = fmt.Errorf("shm: room number must be in %d..%d", MinRoom, MaxRoom)
)

// RoomKey derives the segment key for a room number using BaseKey.
func RoomKey(room int) (Key, error) {
	return RoomKeyFrom(BaseKey, room)
}

// RoomKeyFrom derives the segment key for a room number from base.
func RoomKeyFrom(base Key, room int) (Key, error) {
	if room < MinRoom || room > MaxRoom {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRoom, room)
	}
	return base + Key(room), nil
}

// Opener acquires the Channel for a key, creating the segment if absent.
type Opener interface {
	Open(key Key) (*Channel, error)
}

// Channel is a handle on one mapped segment. Write and ReadLatest are the
// only access paths to the mapping.
//
// A segment is a single slot shared with every process that maps the same
// key. There is no cross-process lock: concurrent writers can tear each
// other's frames and a reader can observe a write in progress. The last
// completed write wins.
type Channel struct {
	key      Key
	capacity int

	// mu guards mem and closed. Handles on one in-process segment share
	// it; a SysV or Windows handle has its own.
	mu      sync.Locker
	mem     []byte
	release func([]byte) error
	closed  bool
}

// newChannel wraps a mapping. capacity is clamped to the mapping length;
// a nil mu gives the handle a lock of its own.
func newChannel(key Key, mem []byte, capacity int, mu sync.Locker, release func([]byte) error) *Channel {
	if capacity <= 0 || capacity > len(mem) {
		capacity = len(mem)
	}
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Channel{key: key, capacity: capacity, mu: mu, mem: mem, release: release}
}

func (c *Channel) Key() Key { return c.key }

// Capacity is the segment length in bytes, terminator included.
func (c *Channel) Capacity() int { return c.capacity }

// Write copies up to Capacity()-1 bytes of raw into the segment, silently
// dropping the excess, and NUL-fills the rest of the slot. It returns the
// number of bytes a reader will see, which is shorter than len(raw) when raw
// was truncated or carries an embedded NUL.
func (c *Channel) Write(raw []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	n := copy(c.mem[:c.capacity-1], raw)
	clear(c.mem[n:c.capacity])
	if i := bytes.IndexByte(raw[:n], 0); i >= 0 {
		n = i
	}
	return n, nil
}

// ReadLatest returns a copy of the current frame: the bytes up to the first
// NUL, bounded by Capacity()-1.
func (c *Channel) ReadLatest() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	window := c.mem[:c.capacity-1]
	if i := bytes.IndexByte(window, 0); i >= 0 {
		window = window[:i]
	}
	return bytes.Clone(window), nil
}

// Close detaches the local mapping. The segment itself survives for other
// processes and is never destroyed here. Close is safe to call more than
// once; only the first call releases the mapping.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	mem := c.mem
	c.mem = nil
	if c.release == nil {
		return nil
	}
	if err := c.release(mem); err != nil {
		return fmt.Errorf("shm: detach key %d: %w", c.key, err)
	}
	return nil
}
