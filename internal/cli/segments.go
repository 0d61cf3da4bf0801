package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"shmchat/pkg/codec"
	"shmchat/pkg/config"
	"shmchat/pkg/shm"
	"shmchat/pkg/state/logger"
)

var errNeedsSysV = errors.New("segment commands need the sysv transport")

// segmentFlags selects a segment by room number or by raw key.
type segmentFlags struct {
	room int
	key  int
}

func (f *segmentFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.room, "room", 0, "room number 1-999")
	cmd.Flags().IntVar(&f.key, "key", 0, "raw segment key")
	cmd.MarkFlagsMutuallyExclusive("room", "key")
}

// resolve returns the selected key; with neither flag it is the
// single-room key.
func (f *segmentFlags) resolve(cfg *config.Config) (shm.Key, error) {
	switch {
	case f.key != 0:
		return shm.Key(f.key), nil
	case f.room != 0:
		return shm.RoomKeyFrom(shm.Key(cfg.Channel.BaseKey), f.room)
	}
	return shm.Key(cfg.Channel.SingleKey), nil
}

func newInspectCmd(s *session) *cobra.Command {
	var sel segmentFlags
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show a segment's kernel stats and current frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := s.cfg()
			if cfg.Channel.Transport != config.TransportSysV {
				return errNeedsSysV
			}
			key, err := sel.resolve(cfg)
			if err != nil {
				return err
			}
			info, err := shm.Stat(key)
			if err != nil {
				return err
			}
			ch, err := shm.SysV{Size: int(info.Size)}.Open(key)
			if err != nil {
				return err
			}
			defer ch.Close()
			raw, err := ch.ReadLatest()
			if err != nil {
				return err
			}
			printSegment(cmd.OutOrStdout(), info, raw)
			return nil
		},
	}
	sel.register(cmd)
	return cmd
}

func printSegment(w io.Writer, info shm.SegmentInfo, raw []byte) {
	fmt.Fprintf(w, "key:          %d (0x%08x)\n", info.Key, int(info.Key))
	fmt.Fprintf(w, "id:           %d\n", info.ID)
	fmt.Fprintf(w, "size:         %s\n", humanize.IBytes(info.Size))
	fmt.Fprintf(w, "attached:     %d\n", info.Attached)
	fmt.Fprintf(w, "mode:         %s\n", info.Mode)
	fmt.Fprintf(w, "creator pid:  %d\n", info.CreatorPID)
	fmt.Fprintf(w, "last pid:     %d\n", info.LastPID)
	fmt.Fprintf(w, "last attach:  %s\n", when(info.LastAttach))
	fmt.Fprintf(w, "last detach:  %s\n", when(info.LastDetach))
	fmt.Fprintf(w, "changed:      %s\n", when(info.Changed))
	fmt.Fprintf(w, "frame:        %s\n", describeFrame(raw))
}

func when(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s (%s)", t.Format(time.RFC3339), humanize.Time(t))
}

func describeFrame(raw []byte) string {
	if len(raw) == 0 {
		return "(empty)"
	}
	sender, text, err := codec.Decode(raw)
	if err != nil {
		return fmt.Sprintf("%q (no sender, %s)", raw, humanize.Bytes(uint64(len(raw))))
	}
	return fmt.Sprintf("%s says %q (%s)", sender, text, humanize.Bytes(uint64(len(raw))))
}

func newRmCmd(s *session) *cobra.Command {
	var sel segmentFlags
	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Remove a segment",
		Long: `Mark a segment for destruction. The kernel frees it once the last
process detaches; chatting processes keep their mapping until then.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := s.cfg()
			if cfg.Channel.Transport != config.TransportSysV {
				return errNeedsSysV
			}
			key, err := sel.resolve(cfg)
			if err != nil {
				return err
			}
			if err := shm.Remove(key); err != nil {
				return err
			}
			logger.Info("segment_removed", "key", int(key))
			fmt.Fprintf(cmd.OutOrStdout(), "removed segment %d\n", key)
			return nil
		},
	}
	sel.register(cmd)
	return cmd
}
