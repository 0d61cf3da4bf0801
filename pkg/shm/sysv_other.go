//go:build !linux

package shm

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

// SysV is unavailable on this platform; use the memory transport instead.
type SysV struct {
	Size int
	Perm os.FileMode
}

func (s SysV) Open(key Key) (*Channel, error) {
	return nil, fmt.Errorf("%w: System V shared memory not supported on %s", ErrSegmentUnavailable, runtime.GOOS)
}

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

func Stat(key Key) (SegmentInfo, error) {
	return SegmentInfo{}, fmt.Errorf("%w: System V shared memory not supported on %s", ErrSegmentUnavailable, runtime.GOOS)
}

func Remove(key Key) error {
	return fmt.Errorf("%w: System V shared memory not supported on %s", ErrSegmentUnavailable, runtime.GOOS)
}
