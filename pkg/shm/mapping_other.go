//go:build !windows

package shm

import (
	"fmt"
	"runtime"
)

func (w Windows) Open(key Key) (*Channel, error) {
	return nil, fmt.Errorf("%w: named file mappings not supported on %s", ErrSegmentUnavailable, runtime.GOOS)
}
