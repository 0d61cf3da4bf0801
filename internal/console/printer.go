package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"shmchat/pkg/models"
	"shmchat/pkg/registry"
)

// Printer writes chat output. It is safe for concurrent use.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
	// Tagged prefixes every message with its room.
	Tagged bool
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

// Banner prints a "=== title ===" header followed by lines and a blank line.
func (p *Printer) Banner(title string, lines ...string) {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", title)
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	p.printf("%s", b.String())
}

func (p *Printer) Info(format string, args ...any) {
	p.printf("* "+format+"\n", args...)
}

func (p *Printer) Error(err error) {
	p.printf("! %v\n", err)
}

// Raw prints a frame exactly as read from a segment.
func (p *Printer) Raw(frame string) {
	p.printf("%s\n", frame)
}

// Message prints m as "sender: text", tagged with the room when Tagged.
func (p *Printer) Message(room *registry.Room, m models.Message) {
	p.printf("%s%s\n", p.tag(room), line(m))
}

func (p *Printer) tag(room *registry.Room) string {
	if !p.Tagged || room == nil {
		return ""
	}
	return fmt.Sprintf("[%s] ", roomLabel(room))
}

// Rooms lists rooms with 1-based positions, marking the active one.
func (p *Printer) Rooms(rooms []*registry.Room, active int) {
	if len(rooms) == 0 {
		p.printf("* no rooms open; use /new <name> <room>\n")
		return
	}
	var b strings.Builder
	for i, r := range rooms {
		mark := " "
		if i == active {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %d. %s (%d messages)\n", mark, i+1, roomLabel(r), r.Len())
	}
	p.printf("%s", b.String())
}

// History prints every message of room, oldest first.
func (p *Printer) History(room *registry.Room) {
	if room == nil {
		p.printf("* no active room\n")
		return
	}
	msgs := room.Messages()
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s ---\n", roomLabel(room))
	for _, m := range msgs {
		b.WriteString(line(m))
		b.WriteByte('\n')
	}
	if len(msgs) == 0 {
		b.WriteString("(no messages)\n")
	}
	p.printf("%s", b.String())
}

func roomLabel(r *registry.Room) string {
	if r.Number() == 0 {
		return r.Name()
	}
	return fmt.Sprintf("%s #%d", r.Name(), r.Number())
}

func line(m models.Message) string {
	return m.Sender + ": " + m.Text
}
