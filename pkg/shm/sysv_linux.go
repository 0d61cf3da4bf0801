//go:build linux

package shm

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// SysV opens System V shared memory segments (shmget/shmat), the same
// segments the C clients use, so both can share a room.
type SysV struct {
	// Size of the segment created when the key is absent. Defaults to SegmentSize.
	Size int
	// Perm bits for newly created segments. Defaults to 0666.
	Perm os.FileMode
}

func (s SysV) size() int {
	if s.Size <= 0 {
		return SegmentSize
	}
	return s.Size
}

func (s SysV) perm() int {
	if s.Perm == 0 {
		return 0o666
	}
	return int(s.Perm.Perm())
}

// Open creates the segment for key if absent, otherwise attaches to it.
// Existing bytes are left untouched.
func (s SysV) Open(key Key) (*Channel, error) {
	size := s.size()
	if size < 2 {
		return nil, fmt.Errorf("%w: size %d too small", ErrSegmentUnavailable, size)
	}
	id, err := unix.SysvShmGet(int(key), size, unix.IPC_CREAT|s.perm())
	if err != nil {
		return nil, fmt.Errorf("%w: shmget key %d: %v", ErrSegmentUnavailable, key, err)
	}
	mem, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: shmat key %d: %v", ErrSegmentUnavailable, key, err)
	}
	if len(mem) < size {
		// an older, smaller segment under the same key
		_ = unix.SysvShmDetach(mem)
		return nil, fmt.Errorf("%w: key %d is %d bytes, want %d", ErrSegmentUnavailable, key, len(mem), size)
	}
	return newChannel(key, mem, size, nil, unix.SysvShmDetach), nil
}

// SegmentInfo is the kernel's view of a segment.
type SegmentInfo struct {
	Key        Key
	ID         int
	Size       uint64
	Attached   uint64
	Mode       os.FileMode
	CreatorPID int
	LastPID    int
	LastAttach time.Time
	LastDetach time.Time
	Changed    time.Time
}

// Stat reports on the segment for key without creating or attaching it.
func Stat(key Key) (SegmentInfo, error) {
	id, err := unix.SysvShmGet(int(key), 0, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return SegmentInfo{}, fmt.Errorf("shm: no segment for key %d: %w", key, os.ErrNotExist)
		}
		return SegmentInfo{}, fmt.Errorf("%w: shmget key %d: %v", ErrSegmentUnavailable, key, err)
	}
	var desc unix.SysvShmDesc
	if _, err := unix.SysvShmCtl(id, unix.IPC_STAT, &desc); err != nil {
		return SegmentInfo{}, fmt.Errorf("shm: stat key %d: %w", key, err)
	}
	return SegmentInfo{
		Key:        key,
		ID:         id,
		Size:       uint64(desc.Segsz),
		Attached:   uint64(desc.Nattch),
		Mode:       os.FileMode(uint32(desc.Perm.Mode) & 0o777),
		CreatorPID: int(desc.Cpid),
		LastPID:    int(desc.Lpid),
		LastAttach: unixTime(int64(desc.Atime)),
		LastDetach: unixTime(int64(desc.Dtime)),
		Changed:    unixTime(int64(desc.Ctime)),
	}, nil
}

// Remove marks the segment for key for destruction. The kernel reclaims it
// once the last process detaches. Chat paths never call this; it is the
// operator's cleanup tool.
func Remove(key Key) error {
	id, err := unix.SysvShmGet(int(key), 0, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return fmt.Errorf("shm: no segment for key %d: %w", key, os.ErrNotExist)
		}
		return fmt.Errorf("%w: shmget key %d: %v", ErrSegmentUnavailable, key, err)
	}
	if _, err := unix.SysvShmCtl(id, unix.IPC_RMID, nil); err != nil {
		return fmt.Errorf("shm: remove key %d: %w", key, err)
	}
	return nil
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
