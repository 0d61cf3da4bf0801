package shm

import "fmt"

// Windows opens named file mappings backed by the paging file, the
// transport the C tab client uses on Windows. Rooms map to "ChatRoom<n>" so
// both clients meet in the same mapping.
type Windows struct {
	// Size of the mapping. Defaults to SegmentSize.
	Size int
	// Base is the key offset rooms are numbered from. Defaults to BaseKey.
	Base Key
}

func (w Windows) size() int {
	if w.Size <= 0 {
		return SegmentSize
	}
	return w.Size
}

func (w Windows) base() Key {
	if w.Base == 0 {
		return BaseKey
	}
	return w.Base
}

// MappingName returns the object name for key. Room keys use the room
// number; any other key, such as SingleRoomKey, is named after the key.
func MappingName(base, key Key) string {
	if room := int(key - base); room >= MinRoom && room <= MaxRoom {
		return fmt.Sprintf("ChatRoom%d", room)
	}
	return fmt.Sprintf("ShmChat%d", key)
}
