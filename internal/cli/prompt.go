package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"shmchat/pkg/config"
)

// interactive reports whether r is a terminal.
func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resolveName picks the display name: the argument, then the configured
// name, then one line read from in. The prompt is shown only on a
// terminal. An empty answer means config.DefaultName.
func resolveName(args []string, cfg *config.Config, in *bufio.Reader, out io.Writer, showPrompt bool) (string, error) {
	if len(args) > 0 {
		if name := strings.TrimSpace(strings.Join(args, " ")); name != "" {
			return name, nil
		}
	}
	if name := strings.TrimSpace(cfg.Identity.Name); name != "" {
		return name, nil
	}
	if showPrompt {
		fmt.Fprint(out, "Enter your name: ")
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read name: %w", err)
	}
	name := strings.TrimSpace(line)
	if name == "" {
		return config.DefaultName, nil
	}
	return name, nil
}
