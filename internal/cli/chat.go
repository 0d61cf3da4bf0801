package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shmchat/internal/app"
	"shmchat/pkg/models"
	"shmchat/pkg/state/logger"
	"shmchat/pkg/store"
)

func newChatCmd(s *session) *cobra.Command {
	var (
		rooms      []string
		noContacts bool
	)
	cmd := &cobra.Command{
		Use:   "chat [name]",
		Short: "Multi-room chat console",
		Long: `Open several rooms at once and chat in the active one.

Rooms saved in the contacts book are reopened at start; --room adds more
for this session only. Inside the console, /help lists the commands.`,
		Example: `  shmchat chat Alice --room Bob:7 --room Carol:9`,
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := parseRoomFlags(rooms)
			if err != nil {
				return err
			}
			cfg := s.cfg()
			in := bufio.NewReader(cmd.InOrStdin())
			name, err := resolveName(args, cfg, in, cmd.OutOrStdout(), interactive(cmd.InOrStdin()))
			if err != nil {
				return err
			}
			cfg.Identity.Name = name

			opts := app.Options{Config: cfg, In: in, Out: cmd.OutOrStdout()}
			if !noContacts {
				st, err := store.Open(cfg.StorePath())
				if err != nil {
					// chat still works, rooms just are not remembered
					logger.Warn("contacts_open_failed", "path", cfg.StorePath(), "error", err)
					fmt.Fprintf(cmd.ErrOrStderr(), "contacts unavailable: %v\n", err)
				} else {
					defer st.Close()
					opts.Contacts = st
				}
			}

			a, err := app.New(opts)
			if err != nil {
				return err
			}
			logger.Info("chat_started", "user", a.Name(), "instance", a.Instance())
			return a.Chat(cmd.Context(), extra)
		},
	}
	cmd.Flags().StringArrayVar(&rooms, "room", nil, "open a room for this session, as name:number (repeatable)")
	cmd.Flags().BoolVar(&noContacts, "no-contacts", false, "neither load nor save the contacts book")
	return cmd
}

// parseRoomFlags turns "name:number" values into contacts. The number
// follows the last colon so names may contain colons.
func parseRoomFlags(vals []string) ([]models.Contact, error) {
	out := make([]models.Contact, 0, len(vals))
	for _, v := range vals {
		i := strings.LastIndex(v, ":")
		if i < 0 {
			return nil, fmt.Errorf("--room %q: want name:number", v)
		}
		name := strings.TrimSpace(v[:i])
		n, err := strconv.Atoi(strings.TrimSpace(v[i+1:]))
		if err != nil || name == "" {
			return nil, fmt.Errorf("--room %q: want name:number", v)
		}
		out = append(out, models.Contact{Name: name, Room: n})
	}
	return out, nil
}
