package cli

import (
	"bufio"

	"github.com/spf13/cobra"

	"shmchat/internal/app"
)

func newWriteCmd(s *session) *cobra.Command {
	var room int
	cmd := &cobra.Command{
		Use:   "write [name]",
		Short: "Send lines to one room",
		Long: `Send every input line to a single room; type 'quit' to leave.
Without --room the well-known single-room key is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := s.cfg()
			in := bufio.NewReader(cmd.InOrStdin())
			name, err := resolveName(args, cfg, in, cmd.OutOrStdout(), interactive(cmd.InOrStdin()))
			if err != nil {
				return err
			}
			cfg.Identity.Name = name
			a, err := app.New(app.Options{Config: cfg, In: in, Out: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			return a.Write(cmd.Context(), room)
		},
	}
	cmd.Flags().IntVar(&room, "room", 0, "room number 1-999 (default: single-room key)")
	return cmd
}

func newReadCmd(s *session) *cobra.Command {
	var room int
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Print every new frame of one room",
		Long: `Watch a single room and print each new frame exactly as it sits in the
segment, frames without a sender included. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(app.Options{Config: s.cfg(), Out: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			return a.Read(cmd.Context(), room)
		},
	}
	cmd.Flags().IntVar(&room, "room", 0, "room number 1-999 (default: single-room key)")
	return cmd
}
