package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"shmchat/pkg/models"
	"shmchat/pkg/store"
)

func newContactsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage the rooms the chat console reopens at start",
	}

	withStore := func(fn func(cmd *cobra.Command, st *store.Store, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(s.cfg().StorePath())
			if err != nil {
				return err
			}
			defer st.Close()
			return fn(cmd, st, args)
		}
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved contacts",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, st *store.Store, _ []string) error {
			contacts, err := st.ListContacts()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(contacts) == 0 {
				fmt.Fprintln(w, "no contacts")
				return nil
			}
			for _, c := range contacts {
				fmt.Fprintf(w, "#%-4d %-20s added %s\n", c.Room, c.Name, humanize.Time(time.Unix(0, c.CreatedTS)))
			}
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <name> <room>",
		Short: "Save a contact",
		Args:  cobra.MinimumNArgs(2),
		RunE: withStore(func(cmd *cobra.Command, st *store.Store, args []string) error {
			room, err := strconv.Atoi(args[len(args)-1])
			if err != nil {
				return fmt.Errorf("room must be a number, got %q", args[len(args)-1])
			}
			c := models.Contact{Name: strings.Join(args[:len(args)-1], " "), Room: room}
			if err := st.SaveContact(c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s #%d\n", c.Name, c.Room)
			return nil
		}),
	}

	rm := &cobra.Command{
		Use:   "rm <room>",
		Short: "Forget a contact",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, st *store.Store, args []string) error {
			room, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("room must be a number, got %q", args[0])
			}
			if _, err := st.GetContact(room); err != nil {
				if store.IsNotFound(err) {
					return fmt.Errorf("no contact for room %d", room)
				}
				return err
			}
			if err := st.DeleteContact(room); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed #%d\n", room)
			return nil
		}),
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}
