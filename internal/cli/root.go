// Package cli wires the shmchat commands: the chat console, the
// single-room writer and reader, segment inspection and the contacts book.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"shmchat/pkg/config"
	"shmchat/pkg/state/logger"
)

// set by the linker
var (
	version = "dev"
	commit  = "none"
)

// session carries what every command needs once the persistent flags are
// parsed and the configuration is loaded.
type session struct {
	flags config.Flags
	eff   config.EffectiveConfigResult
}

func (s *session) cfg() *config.Config { return s.eff.Config }

// NewRootCmd builds the command tree. Each call returns an independent tree
// so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	s := &session{}
	root := &cobra.Command{
		Use:   "shmchat",
		Short: "Chat over System V shared memory",
		Long: `shmchat exchanges short text messages between processes on one host
through shared memory segments. Every room is one segment; the last
message written is the one everybody sees.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load(cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&s.flags.Config, "config", "c", "", "config file path (default $SHMCHAT_CONFIG)")
	pf.StringVar(&s.flags.Name, "name", "", "display name")
	pf.StringVar(&s.flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&s.flags.Transport, "transport", "", "segment transport: sysv, windows or memory")
	pf.StringVar(&s.flags.APIAddr, "api", "", "serve the status API on this address")
	pf.Lookup("api").NoOptDefVal = config.DefaultAPIAddress

	root.AddCommand(
		newChatCmd(s),
		newWriteCmd(s),
		newReadCmd(s),
		newInspectCmd(s),
		newRmCmd(s),
		newContactsCmd(s),
	)
	return root
}

// load resolves the effective configuration: file, then environment, then
// the flags that were set on the command line.
func (s *session) load(cmd *cobra.Command) error {
	s.flags.Set = make(map[string]bool)
	for _, name := range []string{"config", "name", "log-level", "transport", "api"} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			s.flags.Set[name] = true
		}
	}

	fileCfg, path, fileExists, err := config.ParseConfigFile(s.flags)
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	envCfg, envRes := config.ParseConfigEnvs()
	eff, err := config.LoadEffectiveConfig(s.flags, fileCfg, path, fileExists, envCfg, envRes)
	if err != nil {
		return fmt.Errorf("failed to build effective config: %w", err)
	}
	if err := config.ValidateConfig(eff); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Init(eff.Config.Logging.Level, eff.Config.Logging.File); err != nil {
		return err
	}
	s.eff = eff
	logger.Info("effective_config_loaded", "source", eff.Source, "path", eff.Path,
		"transport", eff.Config.Channel.Transport, "api", eff.Config.API.Enabled)
	return nil
}
