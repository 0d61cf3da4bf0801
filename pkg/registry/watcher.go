package registry

import "shmchat/pkg/shm"

// Watcher detects new frames on one Channel under polling. It remembers the
// last raw value it saw and reports a frame only when the segment holds
// something non-empty and different from that value.
type Watcher struct {
	ch       *shm.Channel
	lastSeen string
}

func NewWatcher(ch *shm.Channel) *Watcher {
	return &Watcher{ch: ch}
}

// Next reads the segment once. When changed is true, raw is the new frame
// and has become the last seen value.
func (w *Watcher) Next() (raw string, changed bool, err error) {
	b, err := w.ch.ReadLatest()
	if err != nil {
		return "", false, err
	}
	if len(b) == 0 || string(b) == w.lastSeen {
		return "", false, nil
	}
	w.lastSeen = string(b)
	return w.lastSeen, true, nil
}

// Mark records raw as seen without reading the segment, so a frame this
// process just wrote is not reported back to it.
func (w *Watcher) Mark(raw string) { w.lastSeen = raw }

func (w *Watcher) LastSeen() string { return w.lastSeen }
