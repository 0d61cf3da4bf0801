//go:build windows

package shm

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Open creates the named mapping for key if absent, otherwise opens it.
// Existing bytes are left untouched.
func (w Windows) Open(key Key) (*Channel, error) {
	size := w.size()
	if size < 2 {
		return nil, fmt.Errorf("%w: size %d too small", ErrSegmentUnavailable, size)
	}
	name := MappingName(w.base(), key)
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("%w: mapping name %q: %v", ErrSegmentUnavailable, name, err)
	}

	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, uint32(size), namePtr)
	if h == 0 {
		return nil, fmt.Errorf("%w: CreateFileMapping %s: %v", ErrSegmentUnavailable, name, err)
	}
	if err != nil && !errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		_ = windows.CloseHandle(h)
		return nil, fmt.Errorf("%w: CreateFileMapping %s: %v", ErrSegmentUnavailable, name, err)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, fmt.Errorf("%w: MapViewOfFile %s: %v", ErrSegmentUnavailable, name, err)
	}
	mem := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)

	release := func([]byte) error {
		err := windows.UnmapViewOfFile(addr)
		if cerr := windows.CloseHandle(h); err == nil {
			err = cerr
		}
		return err
	}
	return newChannel(key, mem, size, nil, release), nil
}
