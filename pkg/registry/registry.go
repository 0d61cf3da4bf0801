// Package registry owns the rooms of one chat process and drives the polling
// state machine that turns changed segments into messages.
//
// A Registry is not safe for concurrent use. One goroutine (the UI or app
// loop) owns it; other goroutines should read published snapshots instead.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shmchat/pkg/codec"
	"shmchat/pkg/models"
	"shmchat/pkg/shm"
	"shmchat/pkg/state/logger"
	"shmchat/pkg/telemetry"
)

// DefaultMaxRooms is the room cap when Options.MaxRooms is unset.
const DefaultMaxRooms = 10

var (
	ErrDuplicateRoom    = errors.New("registry: room already open")
	ErrCapacityExceeded = errors.New("registry: room limit reached")
	ErrInvalidRoom      = shm.ErrInvalidRoom
	ErrEmptyName        = errors.New("registry: room name is empty")
	ErrUnknownRoom      = errors.New("registry: room not in registry")
	ErrNoActiveRoom     = errors.New("registry: no active room")
	ErrEmptyMessage     = errors.New("registry: message is empty")
)

type Options struct {
	// Name is the local participant's display name. It is the sender of
	// every Send and decides IsMine for received messages.
	Name   string
	Opener shm.Opener
	// BaseKey is added to room numbers. Defaults to shm.BaseKey.
	BaseKey shm.Key
	// SingleKey is used by CreateSingleRoom. Defaults to shm.SingleRoomKey.
	SingleKey shm.Key
	// MaxRooms defaults to DefaultMaxRooms.
	MaxRooms int
	// MaxMessages caps each room's history; 0 keeps everything.
	MaxMessages int
	// Clock stamps messages. Defaults to time.Now.
	Clock func() time.Time
}

// Delivery is a message a poll observed, with the room it arrived on.
type Delivery struct {
	Room    *Room
	Message models.Message
}

type Registry struct {
	name        string
	opener      shm.Opener
	base        shm.Key
	single      shm.Key
	maxRooms    int
	maxMessages int
	now         func() time.Time

	rooms  []*Room
	byKey  map[shm.Key]*Room
	active int
}

func New(opts Options) (*Registry, error) {
	if opts.Opener == nil {
		return nil, fmt.Errorf("registry: nil opener")
	}
	r := &Registry{
		name:        opts.Name,
		opener:      opts.Opener,
		base:        opts.BaseKey,
		single:      opts.SingleKey,
		maxRooms:    opts.MaxRooms,
		maxMessages: opts.MaxMessages,
		now:         opts.Clock,
		byKey:       make(map[shm.Key]*Room),
	}
	if r.base == 0 {
		r.base = shm.BaseKey
	}
	if r.single == 0 {
		r.single = shm.SingleRoomKey
	}
	if r.maxRooms <= 0 {
		r.maxRooms = DefaultMaxRooms
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Name is the local participant's display name.
func (r *Registry) Name() string { return r.name }

// CreateRoom opens the Channel for room number and adds the room, which
// becomes active. On any error nothing is added.
func (r *Registry) CreateRoom(name string, number int) (*Room, error) {
	key, err := shm.RoomKeyFrom(r.base, number)
	if err != nil {
		return nil, err
	}
	return r.addRoom(name, number, key)
}

// CreateSingleRoom adds the room on the single well-known key, used when a
// process talks in one room only. Its room number is 0.
func (r *Registry) CreateSingleRoom(name string) (*Room, error) {
	return r.addRoom(name, 0, r.single)
}

func (r *Registry) addRoom(name string, number int, key shm.Key) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, ok := r.byKey[key]; ok {
		return nil, fmt.Errorf("%w: room %d (key %d)", ErrDuplicateRoom, number, key)
	}
	if len(r.rooms) >= r.maxRooms {
		return nil, fmt.Errorf("%w: %d rooms", ErrCapacityExceeded, r.maxRooms)
	}
	ch, err := r.opener.Open(key)
	if err != nil {
		logger.Error("room_open_failed", "room", number, "key", int(key), "error", err)
		return nil, err
	}
	room := &Room{
		name:        name,
		number:      number,
		ch:          ch,
		watch:       NewWatcher(ch),
		maxMessages: r.maxMessages,
	}
	r.rooms = append(r.rooms, room)
	r.byKey[key] = room
	r.active = len(r.rooms) - 1
	telemetry.RoomsOpen(len(r.rooms))
	logger.Info("room_created", "name", name, "room", number, "key", int(key))
	return room, nil
}

// RemoveRoom detaches the room's Channel and drops it with its history.
func (r *Registry) RemoveRoom(room *Room) error {
	i := r.indexOf(room)
	if i < 0 {
		return ErrUnknownRoom
	}
	r.rooms = append(r.rooms[:i], r.rooms[i+1:]...)
	delete(r.byKey, room.Key())
	if r.active >= len(r.rooms) {
		r.active = len(r.rooms) - 1
	} else if r.active > i {
		r.active--
	}
	if r.active < 0 {
		r.active = 0
	}
	telemetry.RoomsOpen(len(r.rooms))
	logger.Info("room_removed", "name", room.name, "room", room.number)
	return room.ch.Close()
}

// Rooms returns the open rooms in insertion order.
func (r *Registry) Rooms() []*Room {
	out := make([]*Room, len(r.rooms))
	copy(out, r.rooms)
	return out
}

func (r *Registry) Len() int { return len(r.rooms) }

// Room looks a room up by number.
func (r *Registry) Room(number int) (*Room, bool) {
	for _, room := range r.rooms {
		if room.number == number {
			return room, true
		}
	}
	return nil, false
}

// Active returns the active room, or nil when there are none.
func (r *Registry) Active() *Room {
	if len(r.rooms) == 0 {
		return nil
	}
	return r.rooms[r.active]
}

func (r *Registry) ActiveIndex() int { return r.active }

// SetActive selects the room at index i (insertion order).
func (r *Registry) SetActive(i int) error {
	if i < 0 || i >= len(r.rooms) {
		return fmt.Errorf("%w: index %d", ErrUnknownRoom, i)
	}
	r.active = i
	return nil
}

func (r *Registry) indexOf(room *Room) int {
	if room == nil {
		return -1
	}
	for i, rr := range r.rooms {
		if rr == room {
			return i
		}
	}
	return -1
}

// PollAll runs one poll tick over every room in insertion order. Changed,
// decodable frames are appended to their room and returned. Frames without
// a separator only update the room's last seen value.
func (r *Registry) PollAll() []Delivery {
	telemetry.Poll()
	var out []Delivery
	for _, room := range r.rooms {
		if d, ok := r.poll(room); ok {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) poll(room *Room) (Delivery, bool) {
	raw, changed, err := room.watch.Next()
	if err != nil {
		logger.Warn("room_read_failed", "room", room.number, "error", err)
		return Delivery{}, false
	}
	if !changed {
		return Delivery{}, false
	}
	sender, text, err := codec.Decode([]byte(raw))
	if err != nil {
		telemetry.FrameMalformed(room.number)
		logger.Debug("frame_malformed", "room", room.number, "len", len(raw))
		return Delivery{}, false
	}
	msg := models.Message{
		Sender: sender,
		Text:   text,
		IsMine: sender == r.name,
		TS:     r.now().UnixNano(),
	}
	room.append(msg)
	telemetry.FrameReceived(room.number)
	logger.Debug("frame_received", "room", room.number, "sender", sender)
	return Delivery{Room: room, Message: msg}, true
}

// Send writes text from the local participant into room and appends it to
// the room's history right away; the sender never waits for a poll to see
// its own message. The written frame is marked seen so the next poll does
// not deliver it a second time. Empty text is rejected with ErrEmptyMessage.
func (r *Registry) Send(room *Room, text string) (models.Message, error) {
	if err := r.owns(room); err != nil {
		return models.Message{}, err
	}
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}
	return r.SendLine(room, text)
}

// SendLine is Send without the empty check: an empty line goes out as the
// bare "name: " frame, the way the single-room writer has always sent it.
func (r *Registry) SendLine(room *Room, text string) (models.Message, error) {
	if err := r.owns(room); err != nil {
		return models.Message{}, err
	}
	frame := codec.Encode(r.name, text)
	n, err := room.ch.Write(frame)
	if err != nil {
		return models.Message{}, fmt.Errorf("registry: send to room %d: %w", room.number, err)
	}
	if n < len(frame) {
		telemetry.FrameTruncated()
		logger.Debug("frame_truncated", "room", room.number, "len", len(frame), "written", n)
	}
	room.watch.Mark(string(frame[:n]))
	msg := models.Message{Sender: r.name, Text: text, IsMine: true, TS: r.now().UnixNano()}
	room.append(msg)
	telemetry.MessageSent(room.number)
	return msg, nil
}

func (r *Registry) owns(room *Room) error {
	if room == nil {
		return ErrNoActiveRoom
	}
	if r.indexOf(room) < 0 {
		return ErrUnknownRoom
	}
	return nil
}

// SendActive sends text to the active room.
func (r *Registry) SendActive(text string) (models.Message, error) {
	return r.Send(r.Active(), text)
}

// Prune drops messages observed before cutoff from every room.
func (r *Registry) Prune(cutoff time.Time) int {
	total := 0
	for _, room := range r.rooms {
		total += room.prune(cutoff)
	}
	return total
}

// Snapshot summarizes every room for read-only consumers.
func (r *Registry) Snapshot() []models.RoomStatus {
	out := make([]models.RoomStatus, 0, len(r.rooms))
	for i, room := range r.rooms {
		st := models.RoomStatus{
			Name:     room.name,
			Room:     room.number,
			Key:      int(room.Key()),
			Active:   i == r.active,
			Messages: room.Len(),
		}
		if last, ok := room.Last(); ok {
			st.Last = &last
		}
		out = append(out, st)
	}
	return out
}

// Close detaches every room's Channel. Segments are left for other
// processes.
func (r *Registry) Close() error {
	var errs []error
	for _, room := range r.rooms {
		if err := room.ch.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.rooms = nil
	r.byKey = make(map[shm.Key]*Room)
	r.active = 0
	telemetry.RoomsOpen(0)
	return errors.Join(errs...)
}
