package shm

import (
	"fmt"
	"sync"
)

// Memory is an in-process stand-in for the kernel's segment table. Every
// Channel opened for the same key maps the same byte slice, so several
// registries in one process behave like separate processes sharing a room.
type Memory struct {
	size int

	mu       sync.Mutex
	segments map[Key]*memSegment
}

type memSegment struct {
	// mu is shared by every Channel on the segment, the stand-in for the
	// kernel's single mapping.
	mu       sync.Mutex
	buf      []byte
	attached int
}

// NewMemory returns a Memory whose segments are size bytes long.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = SegmentSize
	}
	return &Memory{size: size, segments: make(map[Key]*memSegment)}
}

func (m *Memory) Open(key Key) (*Channel, error) {
	if m.size < 2 {
		return nil, fmt.Errorf("%w: size %d too small", ErrSegmentUnavailable, m.size)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seg, ok := m.segments[key]
	if !ok {
		seg = &memSegment{buf: make([]byte, m.size)}
		m.segments[key] = seg
	}
	seg.attached++
	return newChannel(key, seg.buf, m.size, &seg.mu, func([]byte) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		seg.attached--
		return nil
	}), nil
}

// Attached reports how many open Channels map key.
func (m *Memory) Attached(key Key) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seg, ok := m.segments[key]; ok {
		return seg.attached
	}
	return 0
}

// Remove drops the segment for key. Channels still holding it keep their
// bytes; later opens get a fresh zeroed segment.
func (m *Memory) Remove(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.segments, key)
}
