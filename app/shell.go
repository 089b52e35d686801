package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/saylorsolutions/dccctl/cli"
	"github.com/saylorsolutions/dccctl/signalx"
)

// ValidateChoice checks that args starts with a command of sh that may be called directly.
// Built-in commands only make sense in the interactive loop, so they are not valid choices.
func ValidateChoice(sh *cli.Shell, args []string) error {
	if len(args) == 0 {
		return nil
	}
	name := strings.ToLower(args[0])
	if _, ok := sh.Resolve(name); ok && !slices.Contains(cli.Builtins, name) {
		return nil
	}
	choices := sh.Commands(cli.Builtins...)
	for i, choice := range choices {
		choices[i] = "'" + choice + "'"
	}
	return cli.NewUsageError("argument cmd: invalid choice: '%s' (choose from %s)", args[0], strings.Join(choices, ", "))
}

// RunShell runs a direct call of sh when args are given, or the interactive loop otherwise.
// The first argument is the command, the rest are quoted again so they're parsed by the command exactly as given.
func RunShell(ctx context.Context, sh *cli.Shell, args []string) (bool, error) {
	if err := ValidateChoice(sh, args); err != nil {
		return false, err
	}
	var line string
	if len(args) > 0 {
		line = strings.TrimSpace(args[0] + " " + shellquote.Join(args[1:]...))
		sh.Logger().Debug("Execute", "line", line)
	}
	res, err := sh.Invoke(ctx, line)
	return res != cli.Failure, err
}

// ConnectShell attaches sh to the logging configuration of env, and makes commands and the prompt interruptible with Ctrl-C.
func ConnectShell(sh *cli.Shell, env *Env) {
	sh.SetLogger(env.Log).
		SetLogLevels(env.Levels).
		SetInterrupt(signalx.Interrupt(os.Interrupt))
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}

// UseTerminal gives the interactive loop of sh line editing with history stored in historyFile, if stdin is a terminal.
// The returned [io.Closer] must be closed to restore the terminal.
func UseTerminal(sh *cli.Shell, historyFile string) io.Closer {
	if !cli.IsTerminal(os.Stdin) {
		return nopCloser{}
	}
	reader := cli.NewTerminalReader(historyFile)
	sh.SetReader(reader)
	return reader
}

// HistoryFile is the default location of the interactive history of the named tool.
func HistoryFile(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fmt.Sprintf(".%s_history", name))
}
