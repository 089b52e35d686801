package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// State is the position of a [Shell] in its dispatch cycle.
type State int

const (
	Idle State = iota
	Reading
	Dispatching
	Exited
)

func (s State) String() string {
	switch s {
	case Reading:
		return "reading"
	case Dispatching:
		return "dispatching"
	case Exited:
		return "exited"
	default:
		return "idle"
	}
}

// AdoptFunc copies or derives resources a child shell needs from its parent.
// It runs every time the child is entered and must not mutate the parent.
type AdoptFunc = func(child, parent *Shell) error

// InterruptFunc scopes a single command dispatch.
// The returned context must be cancelled with [ErrInterrupted] as its cause when the user interrupts the command.
type InterruptFunc = func(ctx context.Context) (context.Context, context.CancelFunc)

func noInterrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(ctx)
}

// shared holds the state that a nested shell takes over from its parent.
type shared struct {
	out       *Printer
	in        LineReader
	levels    LogLevels
	log       *slog.Logger
	interrupt InterruptFunc
}

// Shell owns a registry of commands, and runs them either directly or in a read-dispatch loop.
type Shell struct {
	name        string
	prompt      string
	description string
	commands    map[string]Command
	aliases     map[string]Command
	aliasesOf   map[string][]string
	reserved    map[string]bool
	parent      *Shell
	adopt       AdoptFunc
	resources   map[string]any
	shared      *shared
	last        Result
	exit        bool
	state       State
	active      Command
}

// NewShell creates a root [Shell] with the built-in commands registered.
func NewShell(name string) *Shell {
	name = cleanseKey(name)
	out := NewPrinter()
	s := &Shell{
		name:      name,
		prompt:    name + ">>> ",
		commands:  map[string]Command{},
		aliases:   map[string]Command{},
		aliasesOf: map[string][]string{},
		reserved:  map[string]bool{},
		resources: map[string]any{},
		shared: &shared{
			out:       out,
			in:        NewScanReader(os.Stdin, out),
			levels:    &memLevels{level: DefaultLogLevel},
			log:       slog.Default(),
			interrupt: noInterrupt,
		},
	}
	s.addBuiltins()
	return s
}

func (s *Shell) Name() string {
	return s.name
}

// Describe sets the text printed above the command listing by help.
func (s *Shell) Describe(format string, args ...any) *Shell {
	s.description = strings.TrimSpace(fmt.Sprintf(format, args...))
	return s
}

func (s *Shell) Summary() string {
	if len(s.description) > 0 {
		first, _, _ := strings.Cut(s.description, "\n")
		return first
	}
	return fmt.Sprintf("Enter the %s shell", s.name)
}

func (s *Shell) SetPrompt(prompt string) *Shell {
	s.prompt = prompt
	return s
}

func (s *Shell) Prompt() string {
	return s.prompt
}

// Parent returns the enclosing shell, or nil for a root shell.
func (s *Shell) Parent() *Shell {
	return s.parent
}

// Root walks the parent chain to the top level shell.
func (s *Shell) Root() *Shell {
	shell := s
	for shell.parent != nil {
		shell = shell.parent
	}
	return shell
}

func (s *Shell) path() string {
	var names []string
	for shell := s; shell.parent != nil; shell = shell.parent {
		names = append(names, shell.name)
	}
	slices.Reverse(names)
	return strings.Join(names, " ")
}

func (s *Shell) String() string {
	if p := s.path(); len(p) > 0 {
		return s.Root().name + " " + p
	}
	return s.name
}

// LastResult is the outcome of the most recently dispatched command.
func (s *Shell) LastResult() Result {
	return s.last
}

// ExitRequested reports whether the interactive loop will stop after the current dispatch.
func (s *Shell) ExitRequested() bool {
	return s.exit
}

// RequestExit makes the interactive loop stop after the current dispatch.
func (s *Shell) RequestExit() {
	s.exit = true
}

func (s *Shell) State() State {
	return s.state
}

// Printer is the output stream that all commands of this shell must write to.
func (s *Shell) Printer() *Printer {
	return s.shared.out
}

func (s *Shell) Logger() *slog.Logger {
	return s.shared.log
}

func (s *Shell) SetLogger(logger *slog.Logger) *Shell {
	if logger == nil {
		panic("nil logger")
	}
	s.own().log = logger
	return s
}

// SetInput makes the interactive loop read lines from r.
func (s *Shell) SetInput(r io.Reader) *Shell {
	s.own().in = NewScanReader(r, s.shared.out)
	return s
}

func (s *Shell) SetReader(reader LineReader) *Shell {
	if reader == nil {
		panic("nil reader")
	}
	s.own().in = reader
	return s
}

func (s *Shell) LogLevels() LogLevels {
	return s.shared.levels
}

// SetLogLevels connects the logging built-in to the process' logging configuration.
func (s *Shell) SetLogLevels(levels LogLevels) *Shell {
	if levels == nil {
		panic("nil log levels")
	}
	s.own().levels = levels
	return s
}

// SetInterrupt installs the function used to scope each command dispatch for user interrupts.
func (s *Shell) SetInterrupt(fn InterruptFunc) *Shell {
	if fn == nil {
		fn = noInterrupt
	}
	s.own().interrupt = fn
	return s
}

// OnAdopt sets the hook run before a nested shell takes control from its parent.
func (s *Shell) OnAdopt(fn AdoptFunc) *Shell {
	s.adopt = fn
	return s
}

// Put attaches a shared resource, like a connection handle, to this shell.
func (s *Shell) Put(key string, val any) {
	s.resources[key] = val
}

// Resource returns a resource attached with [Shell.Put].
func (s *Shell) Resource(key string) (any, bool) {
	val, ok := s.resources[key]
	return val, ok
}

// Lookup returns the resource attached to sh under key, if it exists and is a T.
func Lookup[T any](sh *Shell, key string) (T, bool) {
	var zero T
	val, ok := sh.Resource(key)
	if !ok {
		return zero, false
	}
	typed, ok := val.(T)
	return typed, ok
}

func (s *Shell) taken(key string) bool {
	_, isCmd := s.commands[key]
	_, isAlias := s.aliases[key]
	return isCmd || isAlias
}

// Register adds cmd to the registry under its name and any given aliases.
// Names are case-insensitive and must be unique, including the built-in commands.
func (s *Shell) Register(cmd Command, aliases ...string) error {
	if child, ok := cmd.(*Shell); ok {
		return s.AddShell(child, aliases...)
	}
	return s.register(cmd, false, aliases...)
}

func (s *Shell) register(cmd Command, builtin bool, aliases ...string) error {
	if cmd == nil {
		panic("nil command")
	}
	key := cleanseKey(cmd.Name())
	if len(key) == 0 {
		return fmt.Errorf("%w: empty name", ErrArgs)
	}
	keys := []string{key}
	for _, alias := range aliases {
		alias = cleanseKey(alias)
		if len(alias) == 0 || slices.Contains(keys, alias) {
			continue
		}
		keys = append(keys, alias)
	}
	for _, k := range keys {
		if !builtin && s.reserved[k] {
			return fmt.Errorf("%w: %s", ErrReservedName, k)
		}
		if s.taken(k) {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, k)
		}
	}
	s.commands[key] = cmd
	for _, alias := range keys[1:] {
		s.aliases[alias] = cmd
	}
	if len(keys) > 1 {
		sorted := slices.Clone(keys[1:])
		slices.Sort(sorted)
		s.aliasesOf[key] = sorted
	}
	if builtin {
		for _, k := range keys {
			s.reserved[k] = true
		}
	}
	if a, ok := cmd.(attacher); ok {
		a.attach(s)
	}
	return nil
}

// AddCommand creates and registers a [BaseCommand].
// Aliases may be added as a way to support shorter variants of the same [Command].
// This panics if the name or an alias is already taken, since that's a programming error.
func (s *Shell) AddCommand(name, summary string, aliases ...string) *BaseCommand {
	cmd := NewCommand(name, summary)
	if err := s.Register(cmd, aliases...); err != nil {
		panic(err)
	}
	return cmd
}

// AddShell registers child as a command of s.
// The child takes over the output, input, logging, and interrupt handling of s, and its parent is fixed from now on.
// Changing those settings on the child later only affects the child and its own nested shells.
func (s *Shell) AddShell(child *Shell, aliases ...string) error {
	if child == nil {
		panic("nil shell")
	}
	if child.parent != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyAdopted, child.name)
	}
	if child == s || s.isAncestor(child) {
		return fmt.Errorf("%w: %s would contain itself", ErrArgs, child.name)
	}
	if err := s.register(child, false, aliases...); err != nil {
		return err
	}
	child.parent = s
	child.adoptShared(s.shared)
	return nil
}

func (s *Shell) isAncestor(other *Shell) bool {
	for shell := s.parent; shell != nil; shell = shell.parent {
		if shell == other {
			return true
		}
	}
	return false
}

// adoptShared replaces the settings of s, and of every nested shell that still uses the same settings as s.
func (s *Shell) adoptShared(sh *shared) {
	old := s.shared
	s.shared = sh
	for _, cmd := range s.commands {
		if nested, ok := cmd.(*Shell); ok && nested.shared == old {
			nested.adoptShared(sh)
		}
	}
}

// own returns settings of s that may be changed without affecting the parent.
// A nested shell gets its own copy on the first change, which is then shared with its own children.
func (s *Shell) own() *shared {
	if s.parent != nil && s.shared == s.parent.shared {
		cp := *s.shared
		s.adoptShared(&cp)
	}
	return s.shared
}

// Resolve finds a command by name or alias.
func (s *Shell) Resolve(name string) (Command, bool) {
	key := strings.ToLower(name)
	if cmd, ok := s.commands[key]; ok {
		return cmd, true
	}
	cmd, ok := s.aliases[key]
	return cmd, ok
}

// Commands returns the sorted primary names of all registered commands, except for those in exclude.
func (s *Shell) Commands(exclude ...string) []string {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		if slices.Contains(exclude, name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *Shell) allNames() []string {
	names := s.Commands()
	for alias := range s.aliases {
		names = append(names, alias)
	}
	return names
}

// Invoke runs line as a single command, or enters the interactive loop if line is empty.
// The returned error is only non-nil for an [ExitError], an interrupted prompt, a cancelled ctx, or a read failure.
func (s *Shell) Invoke(ctx context.Context, line string) (Result, error) {
	if s.parent != nil && s.adopt != nil {
		if err := s.adopt(s, s.parent); err != nil {
			s.Logger().Error("Unable to enter shell", "shell", s.String(), "error", err)
			s.last = Failure
			return s.last, nil
		}
	}
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return s.loop(ctx)
	}
	if strings.HasPrefix(line, "--help") {
		line = line[2:]
	}
	res, err := s.dispatch(ctx, line)
	s.last = res
	return res, err
}

func (s *Shell) loop(ctx context.Context) (Result, error) {
	s.exit = false
	for !s.exit {
		if err := context.Cause(ctx); err != nil {
			s.state = Idle
			return s.last, err
		}
		s.state = Reading
		line, err := s.read(ctx)
		if err != nil {
			s.state = Idle
			switch {
			case errors.Is(err, io.EOF):
				return s.last, nil
			case errors.Is(err, ErrInterrupted):
				return s.last, ErrInterrupted
			case ctx.Err() != nil:
				return s.last, context.Cause(ctx)
			}
			return s.last, fmt.Errorf("reading input: %w", err)
		}
		s.state = Idle
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		res, err := s.dispatch(ctx, line)
		s.last = res
		if err != nil {
			return res, err
		}
	}
	s.state = Exited
	return s.last, nil
}

// read waits for the next line within the interrupt scope of the shell, like a dispatch.
func (s *Shell) read(ctx context.Context) (string, error) {
	readCtx, stop := s.shared.interrupt(ctx)
	defer stop()
	line, err := s.shared.in.ReadLine(readCtx, s.prompt)
	if err != nil && errors.Is(context.Cause(readCtx), ErrInterrupted) {
		return "", ErrInterrupted
	}
	return line, err
}

func (s *Shell) dispatch(ctx context.Context, line string) (Result, error) {
	name, rest := splitCommand(line)
	cmd, ok := s.Resolve(name)
	if !ok {
		s.unknown(name)
		return Failure, nil
	}
	s.state = Dispatching
	s.active = cmd
	defer func() {
		s.active = nil
		if s.exit {
			s.state = Exited
		} else {
			s.state = Idle
		}
	}()
	s.Logger().Debug("Dispatching command", "shell", s.String(), "command", cmd.Name(), "args", rest)
	if _, nested := cmd.(*Shell); nested {
		return cmd.Invoke(ctx, rest)
	}
	cmdCtx, stop := s.shared.interrupt(ctx)
	defer stop()
	res, err := cmd.Invoke(cmdCtx, rest)
	if errors.Is(context.Cause(cmdCtx), ErrInterrupted) {
		s.Logger().Warn("Command interrupted", "command", cmd.Name())
		res = cmd.Abort()
	}
	return res, err
}

func (s *Shell) unknown(name string) {
	s.Logger().Debug("Command not found", "shell", s.String(), "error", fmt.Errorf("%w: %s", ErrUnknownCommand, name))
	s.Printer().Printf("*** Unknown command: %s\n", name)
	if suggestions := suggest(name, s.allNames()); len(suggestions) > 0 {
		s.Printer().Printf("Did you mean: %s?\n", strings.Join(suggestions, ", "))
	}
}

// Active returns the command being dispatched, if any.
func (s *Shell) Active() (Command, bool) {
	return s.active, s.active != nil
}

// Abort is called when a nested shell is interrupted, which is treated as a failure.
func (s *Shell) Abort() Result {
	return Failure
}

// PrintHelp prints the shell description and a listing of all commands.
func (s *Shell) PrintHelp() {
	var buf strings.Builder
	if len(s.description) > 0 {
		buf.WriteString(s.description + "\n\n")
	}
	buf.WriteString("Documented commands (type help <topic>):\n")
	buf.WriteString(s.CommandUsages())
	s.Printer().Print(buf.String())
}

// CommandUsages returns a string including the usage information for all commands of this [Shell].
//
// The command names will be sorted alphabetically before output.
func (s *Shell) CommandUsages() string {
	var (
		buf         strings.Builder
		keys        = s.Commands()
		withAliases = make([]string, len(keys))
		maxLen      int
	)
	for i, key := range keys {
		withAliases[i] = key
		if aliases := s.aliasesOf[key]; len(aliases) > 0 {
			withAliases[i] = strings.Join(append([]string{key}, aliases...), ", ")
		}
		maxLen = max(maxLen, len(withAliases[i]))
	}
	fmtStr := fmt.Sprintf("  %%-%ds\t%%s\n", maxLen)
	for i, key := range keys {
		buf.WriteString(fmt.Sprintf(fmtStr, withAliases[i], s.commands[key].Summary()))
	}
	return buf.String()
}
