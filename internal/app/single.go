package app

import (
	"context"
	"fmt"

	"shmchat/pkg/registry"
	"shmchat/pkg/shm"
	"shmchat/pkg/state/logger"
)

// Write runs the single-room writer: every line is sent, "quit" leaves.
// Room 0 selects the single well-known key. Failing to open the segment
// is fatal.
func (a *App) Write(ctx context.Context, room int) error {
	defer a.close()
	r, err := a.openSingle(room)
	if err != nil {
		return fmt.Errorf("open room: %w", err)
	}
	a.publish()
	a.print.Banner("Chat Writer - "+a.name, "Type your messages (type 'quit' to exit):")

	err = a.run(ctx, nil, func(line string) (bool, error) {
		if line == "quit" {
			return true, nil
		}
		if _, err := a.reg.SendLine(r, line); err != nil {
			return false, err
		}
		return false, nil
	})
	a.print.Raw("Writer exited.")
	return err
}

// Read runs the single-room reader: every changed frame is printed as it
// sits in the segment, malformed frames included.
func (a *App) Read(ctx context.Context, room int) error {
	defer a.close()
	key := shm.Key(a.cfg.Channel.SingleKey)
	if room != 0 {
		k, err := shm.RoomKeyFrom(shm.Key(a.cfg.Channel.BaseKey), room)
		if err != nil {
			return err
		}
		key = k
	}
	ch, err := a.opener.Open(key)
	if err != nil {
		return fmt.Errorf("open room: %w", err)
	}
	defer ch.Close()
	w := registry.NewWatcher(ch)

	a.print.Banner("Chat Reader", "Waiting for messages (Ctrl+C to exit)...")
	return a.run(ctx, func() {
		raw, changed, err := w.Next()
		if err != nil {
			logger.Warn("room_read_failed", "key", int(key), "error", err)
			return
		}
		if changed {
			a.print.Raw(raw)
		}
	}, func(string) (bool, error) { return false, nil })
}
