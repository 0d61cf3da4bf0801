// Package console parses the line-oriented chat input and renders rooms
// and messages as plain text.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindText Kind = iota
	KindNew
	KindSwitch
	KindRooms
	KindHistory
	KindClose
	KindQuit
	KindHelp
)

// Command is one parsed input line. Text is set for KindText, Name and
// Room for KindNew, Arg for KindSwitch and KindClose.
type Command struct {
	Kind Kind
	Text string
	Name string
	Room int
	Arg  string
}

var ErrUsage = errors.New("console: bad command")

const Help = `commands:
  /new <name> <room>   open room 1-999 and switch to it
  /switch <n|#room>    switch by list position (1-based) or #room number
  /rooms               list open rooms
  /history             show the active room's messages
  /close [n|#room]     close a room (default: active)
  /quit                leave
  //text               send a line starting with "/"`

// Parse turns a line into a Command. Lines not starting with "/" are text
// for the active room.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: KindText, Text: line}, nil
	}
	if strings.HasPrefix(line, "//") {
		return Command{Kind: KindText, Text: line[1:]}, nil
	}
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	switch name {
	case "/new":
		if len(args) < 2 {
			return Command{}, fmt.Errorf("%w: usage /new <name> <room>", ErrUsage)
		}
		room, err := strconv.Atoi(args[len(args)-1])
		if err != nil {
			return Command{}, fmt.Errorf("%w: room must be a number, got %q", ErrUsage, args[len(args)-1])
		}
		return Command{Kind: KindNew, Name: strings.Join(args[:len(args)-1], " "), Room: room}, nil
	case "/switch", "/s":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: usage /switch <n|#room>", ErrUsage)
		}
		return Command{Kind: KindSwitch, Arg: args[0]}, nil
	case "/rooms", "/r":
		return Command{Kind: KindRooms}, nil
	case "/history", "/h":
		return Command{Kind: KindHistory}, nil
	case "/close":
		if len(args) > 1 {
			return Command{}, fmt.Errorf("%w: usage /close [n|#room]", ErrUsage)
		}
		c := Command{Kind: KindClose}
		if len(args) == 1 {
			c.Arg = args[0]
		}
		return c, nil
	case "/quit", "/exit", "/q":
		return Command{Kind: KindQuit}, nil
	case "/help", "/?":
		return Command{Kind: KindHelp}, nil
	}
	return Command{}, fmt.Errorf("%w: unknown command %s (try /help)", ErrUsage, name)
}

// Selector is a parsed room reference: a 1-based list position, or a room
// number when written as "#N".
type Selector struct {
	Index  int // 0-based; valid when ByRoom is false
	Room   int
	ByRoom bool
}

func ParseSelector(arg string) (Selector, error) {
	if r, ok := strings.CutPrefix(arg, "#"); ok {
		n, err := strconv.Atoi(r)
		if err != nil {
			return Selector{}, fmt.Errorf("%w: bad room %q", ErrUsage, arg)
		}
		return Selector{Room: n, ByRoom: true}, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return Selector{}, fmt.Errorf("%w: bad position %q", ErrUsage, arg)
	}
	return Selector{Index: n - 1}, nil
}
