package shm

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomKey(t *testing.T) {
	tests := []struct {
		name    string
		room    int
		want    Key
		wantErr bool
	}{
		{name: "first room", room: 1, want: 2001},
		{name: "room seven", room: 7, want: 2007},
		{name: "last room", room: 999, want: 2999},
		{name: "zero", room: 0, wantErr: true},
		{name: "negative", room: -3, wantErr: true},
		{name: "too large", room: 1000, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RoomKey(tt.room)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRoom) {
					t.Fatalf("RoomKey(%d) error = %v, want ErrInvalidRoom", tt.room, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RoomKey(%d) unexpected error: %v", tt.room, err)
			}
			if got != tt.want {
				t.Errorf("RoomKey(%d) = %d, want %d", tt.room, got, tt.want)
			}
		})
	}
}

func TestChannelWriteRead(t *testing.T) {
	mem := NewMemory(SegmentSize)
	ch, err := mem.Open(SingleRoomKey)
	require.NoError(t, err)
	defer ch.Close()

	raw, err := ch.ReadLatest()
	require.NoError(t, err)
	assert.Empty(t, raw, "fresh segment reads empty")

	n, err := ch.Write([]byte("Alice: hello"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	raw, err = ch.ReadLatest()
	require.NoError(t, err)
	assert.Equal(t, "Alice: hello", string(raw))

	// a shorter write must not leave the tail of the previous frame behind
	_, err = ch.Write([]byte("Bob: hi"))
	require.NoError(t, err)
	raw, err = ch.ReadLatest()
	require.NoError(t, err)
	assert.Equal(t, "Bob: hi", string(raw))
}

func TestChannelTruncatesToCapacity(t *testing.T) {
	mem := NewMemory(SegmentSize)
	ch, err := mem.Open(SingleRoomKey)
	require.NoError(t, err)
	defer ch.Close()

	long := strings.Repeat("x", 5000)
	n, err := ch.Write([]byte(long))
	require.NoError(t, err)
	assert.Equal(t, SegmentSize-1, n)

	raw, err := ch.ReadLatest()
	require.NoError(t, err)
	assert.Len(t, raw, SegmentSize-1)
	assert.Equal(t, long[:SegmentSize-1], string(raw))

	// exactly capacity-1 fits without loss
	exact := bytes.Repeat([]byte{'y'}, SegmentSize-1)
	n, err = ch.Write(exact)
	require.NoError(t, err)
	assert.Equal(t, SegmentSize-1, n)
}

func TestChannelEmbeddedNUL(t *testing.T) {
	mem := NewMemory(64)
	ch, err := mem.Open(SingleRoomKey)
	require.NoError(t, err)
	defer ch.Close()

	n, err := ch.Write([]byte("abc\x00def"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	raw, err := ch.ReadLatest()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(raw))
}

func TestChannelSharedByKey(t *testing.T) {
	mem := NewMemory(SegmentSize)
	a, err := mem.Open(2005)
	require.NoError(t, err)
	defer a.Close()
	b, err := mem.Open(2005)
	require.NoError(t, err)
	defer b.Close()
	other, err := mem.Open(2007)
	require.NoError(t, err)
	defer other.Close()

	assert.Equal(t, 2, mem.Attached(2005))

	_, err = a.Write([]byte("Alice: ping"))
	require.NoError(t, err)

	raw, err := b.ReadLatest()
	require.NoError(t, err)
	assert.Equal(t, "Alice: ping", string(raw))

	raw, err = other.ReadLatest()
	require.NoError(t, err)
	assert.Empty(t, raw, "distinct keys map distinct segments")
}

// Handles on one in-memory segment share a lock, so concurrent writers and
// readers in one process never see a torn frame. Run with -race.
func TestChannelConcurrentHandles(t *testing.T) {
	mem := NewMemory(SegmentSize)
	a, err := mem.Open(2007)
	require.NoError(t, err)
	defer a.Close()
	b, err := mem.Open(2007)
	require.NoError(t, err)
	defer b.Close()

	frames := map[string]bool{"": true, "Alice: ping": true, "Bob: a much longer pong frame": true}
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_, _ = a.Write([]byte("Alice: ping"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_, _ = b.Write([]byte("Bob: a much longer pong frame"))
		}
	}()
	torn := make(chan string, 1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			raw, err := b.ReadLatest()
			if err != nil || !frames[string(raw)] {
				select {
				case torn <- string(raw):
				default:
				}
				return
			}
		}
	}()
	wg.Wait()

	select {
	case raw := <-torn:
		t.Fatalf("read a torn frame: %q", raw)
	default:
	}
}

func TestChannelReopenKeepsContents(t *testing.T) {
	mem := NewMemory(SegmentSize)
	a, err := mem.Open(2010)
	require.NoError(t, err)
	_, err = a.Write([]byte("Alice: still here"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := mem.Open(2010)
	require.NoError(t, err)
	defer b.Close()
	raw, err := b.ReadLatest()
	require.NoError(t, err)
	assert.Equal(t, "Alice: still here", string(raw))
}

func TestChannelClose(t *testing.T) {
	mem := NewMemory(SegmentSize)
	ch, err := mem.Open(2001)
	require.NoError(t, err)
	require.Equal(t, 1, mem.Attached(2001))

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close(), "second close is a no-op")
	assert.Equal(t, 0, mem.Attached(2001), "released exactly once")

	_, err = ch.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = ch.ReadLatest()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryRejectsTinySegments(t *testing.T) {
	mem := &Memory{size: 1, segments: map[Key]*memSegment{}}
	_, err := mem.Open(1)
	assert.ErrorIs(t, err, ErrSegmentUnavailable)
}
