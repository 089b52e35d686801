package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Builtins are the command names every [Shell] provides, which can't be registered by users.
var Builtins = []string{"help", "q", "quit", "exit", "last_ret", "logging"}

func (s *Shell) addBuiltin(cmd *BaseCommand, aliases ...string) {
	if err := s.register(cmd, true, aliases...); err != nil {
		panic(err)
	}
}

func (s *Shell) addBuiltins() {
	s.addBuiltin(NewCommand("help", "List available commands or show help for one").
		Describe(`List available commands or show help for one

With no argument, every command of this shell is listed. Otherwise the help of
COMMAND is printed, which is the same as running 'COMMAND --help'.`).
		OptionalArg("command", "Command to show help for").
		Does(func(_ context.Context, inv *Invocation) error {
			sh := inv.Shell
			if !inv.Args.Has("command") {
				sh.PrintHelp()
				return nil
			}
			topic := inv.Args.String("command")
			cmd, ok := sh.Resolve(topic)
			if !ok {
				sh.Printer().Printf("*** No help on %s\n", topic)
				return nil
			}
			cmd.PrintHelp()
			return nil
		}))

	s.addBuiltin(NewCommand("exit", "Exit the current shell").
		Does(func(_ context.Context, inv *Invocation) error {
			inv.Shell.RequestExit()
			return nil
		}), "q", "quit")

	s.addBuiltin(NewCommand("last_ret", "Print the return value of the last executed command").
		Does(func(_ context.Context, inv *Invocation) error {
			inv.Printer().Println(inv.Shell.LastResult())
			return nil
		}))

	s.addBuiltin(NewCommand("logging", "Get or set logging level").
		Describe(`Get or set logging level

When LOG-LEVEL is a valid log level (%d-%d, RFC 5424) it will be set as the new
logging level, otherwise the current logging level is printed.`, MinLogLevel, MaxLogLevel).
		OptionalArg("log-level", "New logging level").
		Does(runLogging))
}

func runLogging(_ context.Context, inv *Invocation) error {
	levels := inv.Shell.LogLevels()
	if !inv.Args.Has("log-level") {
		inv.Printer().Printf("%d:%s\n", levels.Level(), levels.LevelName())
		return nil
	}
	raw := inv.Args.String("log-level")
	head, _, _ := strings.Cut(raw, ":")
	level, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return fmt.Errorf("%w: logging level '%s' is not a number", ErrArgs, raw)
	}
	if !ValidLogLevel(level) {
		return fmt.Errorf("%w: logging level '%d' is not in range %d..%d", ErrLogLevel, level, MinLogLevel, MaxLogLevel)
	}
	if err := levels.SetLevel(level); err != nil {
		return err
	}
	inv.Shell.Logger().Debug("Set logging level", "level", level, "name", levels.LevelName())
	return nil
}
