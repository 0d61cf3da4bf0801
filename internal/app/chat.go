package app

import (
	"context"
	"errors"

	"shmchat/internal/console"
	"shmchat/pkg/models"
	"shmchat/pkg/registry"
	"shmchat/pkg/state/logger"
)

// Chat runs the multi-room console. Rooms from the contact book and from
// extra are opened first; a room whose segment cannot be opened is
// reported and skipped. Input lines go to the active room unless they are
// commands.
func (a *App) Chat(ctx context.Context, extra []models.Contact) error {
	defer a.close()
	a.print.Tagged = true
	a.print.Banner("Chat - "+a.name, "Lines go to the active room. /help lists commands.")

	var initial []models.Contact
	if a.contacts != nil {
		saved, err := a.contacts.ListContacts()
		if err != nil {
			logger.Warn("contacts_load_failed", "error", err)
		}
		initial = append(initial, saved...)
	}
	initial = append(initial, extra...)
	for _, c := range initial {
		if _, err := a.reg.CreateRoom(c.Name, c.Room); err != nil {
			if errors.Is(err, registry.ErrDuplicateRoom) {
				continue
			}
			a.print.Error(err)
		}
	}
	if a.reg.Len() > 0 {
		_ = a.reg.SetActive(0)
	}
	a.print.Rooms(a.reg.Rooms(), a.reg.ActiveIndex())
	a.publish()

	return a.run(ctx, a.pollRooms, a.handleChatLine)
}

func (a *App) handleChatLine(line string) (bool, error) {
	cmd, err := console.Parse(line)
	if err != nil {
		a.print.Error(err)
		return false, nil
	}
	switch cmd.Kind {
	case console.KindText:
		if cmd.Text == "" {
			return false, nil
		}
		if _, err := a.reg.SendActive(cmd.Text); err != nil {
			if errors.Is(err, registry.ErrNoActiveRoom) {
				a.print.Info("no room open; use /new <name> <room>")
				return false, nil
			}
			a.print.Error(err)
		}
	case console.KindNew:
		a.newRoom(cmd.Name, cmd.Room)
	case console.KindSwitch:
		room, i, err := a.selectRoom(cmd.Arg)
		if err != nil {
			a.print.Error(err)
			return false, nil
		}
		_ = a.reg.SetActive(i)
		a.print.Info("now in %s", room.Name())
	case console.KindRooms:
		a.print.Rooms(a.reg.Rooms(), a.reg.ActiveIndex())
	case console.KindHistory:
		a.print.History(a.reg.Active())
	case console.KindClose:
		room := a.reg.Active()
		if cmd.Arg != "" {
			r, _, err := a.selectRoom(cmd.Arg)
			if err != nil {
				a.print.Error(err)
				return false, nil
			}
			room = r
		}
		if room == nil {
			a.print.Info("no room open")
			return false, nil
		}
		if err := a.reg.RemoveRoom(room); err != nil {
			a.print.Error(err)
			return false, nil
		}
		a.print.Info("closed %s", room.Name())
	case console.KindHelp:
		a.print.Raw(console.Help)
	case console.KindQuit:
		return true, nil
	}
	return false, nil
}

func (a *App) newRoom(name string, number int) {
	room, err := a.reg.CreateRoom(name, number)
	if err != nil {
		a.print.Error(err)
		return
	}
	a.print.Info("opened %s #%d (key %d)", room.Name(), room.Number(), int(room.Key()))
	if a.contacts == nil {
		return
	}
	if err := a.contacts.SaveContact(models.Contact{Name: room.Name(), Room: number, CreatedTS: a.now().UnixNano()}); err != nil {
		logger.Warn("contact_save_failed", "room", number, "error", err)
	}
}

func (a *App) selectRoom(arg string) (*registry.Room, int, error) {
	sel, err := console.ParseSelector(arg)
	if err != nil {
		return nil, 0, err
	}
	rooms := a.reg.Rooms()
	for i, r := range rooms {
		if (sel.ByRoom && r.Number() == sel.Room) || (!sel.ByRoom && i == sel.Index) {
			return r, i, nil
		}
	}
	return nil, 0, registry.ErrUnknownRoom
}
