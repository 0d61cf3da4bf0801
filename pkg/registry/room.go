package registry

import (
	"time"

	"shmchat/pkg/models"
	"shmchat/pkg/shm"
)

// Room is a named, numbered conversation bound to exactly one Channel.
type Room struct {
	name   string
	number int
	ch     *shm.Channel
	watch  *Watcher

	messages    []models.Message
	maxMessages int
}

func (r *Room) Name() string { return r.name }

// Number is the room number, or 0 for the single well-known room.
func (r *Room) Number() int { return r.number }

func (r *Room) Key() shm.Key { return r.ch.Key() }

// LastSeenRaw is the most recent frame observed or written on this room.
// It drives change detection only and is not a message.
func (r *Room) LastSeenRaw() string { return r.watch.LastSeen() }

// Messages returns a copy of the room's messages, oldest first.
func (r *Room) Messages() []models.Message {
	out := make([]models.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *Room) Len() int { return len(r.messages) }

func (r *Room) Last() (models.Message, bool) {
	if len(r.messages) == 0 {
		return models.Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

func (r *Room) append(m models.Message) {
	r.messages = append(r.messages, m)
	if r.maxMessages > 0 && len(r.messages) > r.maxMessages {
		drop := len(r.messages) - r.maxMessages
		r.messages = append(r.messages[:0:0], r.messages[drop:]...)
	}
}

// prune drops messages observed before cutoff and reports how many went.
func (r *Room) prune(cutoff time.Time) int {
	c := cutoff.UnixNano()
	keep := r.messages[:0]
	for _, m := range r.messages {
		if m.TS >= c {
			keep = append(keep, m)
		}
	}
	n := len(r.messages) - len(keep)
	clear(r.messages[len(keep):])
	r.messages = keep
	return n
}
