package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kballard/go-shellquote"
	flag "github.com/spf13/pflag"
)

const noDescription = "No description available"

// Command is a single invokable unit that can be registered with a [Shell].
// A nested [Shell] is also a Command.
type Command interface {
	// Name is the primary invocation name.
	Name() string
	// Summary is the one line description used in command listings.
	Summary() string
	// Invoke parses line and runs the command.
	// Failures are reported as a [Failure] result, the returned error is reserved for an [ExitError].
	Invoke(ctx context.Context, line string) (Result, error)
	// PrintHelp renders usage information to the owning shell's [Printer].
	PrintHelp()
	// Abort is called by the shell when the user interrupted the command.
	Abort() Result
}

type attacher interface {
	attach(sh *Shell)
}

// Invocation is the execution context handed to a command's hooks.
type Invocation struct {
	Shell *Shell // Shell is the owning shell.
	Line  string // Line is the unparsed argument line.
	Args  *Args
	Value any // Value may be populated by a [PreRunFunc] for use by the run step.
}

// Printer is a shortcut for the owning shell's [Printer].
func (i *Invocation) Printer() *Printer {
	if i.Shell == nil {
		return NewPrinter()
	}
	return i.Shell.Printer()
}

type (
	PreRunFunc  = func(ctx context.Context, inv *Invocation) error
	RunFunc     = func(ctx context.Context, inv *Invocation) error
	PostRunFunc = func(ctx context.Context, inv *Invocation, res Result) Result
	AbortFunc   = func(sh *Shell) Result
)

// BaseCommand is the standard [Command] implementation.
// The argument spec is made of a [flag.FlagSet] and an ordered list of positional arguments.
type BaseCommand struct {
	name        string
	summary     string
	description string
	flagDefs    []func(fs *flag.FlagSet)
	args        []argSpec
	shell       *Shell
	preRun      PreRunFunc
	run         RunFunc
	postRun     PostRunFunc
	abort       AbortFunc
}

// NewCommand creates a [BaseCommand] that isn't registered yet.
// Most callers should use [Shell.AddCommand] instead.
func NewCommand(name, summary string) *BaseCommand {
	return &BaseCommand{name: cleanseKey(name), summary: summary}
}

func (c *BaseCommand) attach(sh *Shell) {
	c.shell = sh
}

func (c *BaseCommand) Name() string {
	return c.name
}

func (c *BaseCommand) Summary() string {
	return c.summary
}

// Shell returns the owning [Shell], which is nil until the command is registered.
func (c *BaseCommand) Shell() *Shell {
	return c.shell
}

// Describe sets the long description shown by [BaseCommand.PrintHelp].
func (c *BaseCommand) Describe(format string, args ...any) *BaseCommand {
	c.description = strings.TrimSpace(fmt.Sprintf(format, args...))
	return c
}

// WithFlags registers a function that defines flags for this command.
// The function is applied to a fresh [flag.FlagSet] on every invocation, so flag values never leak between calls.
func (c *BaseCommand) WithFlags(define func(fs *flag.FlagSet)) *BaseCommand {
	if define == nil {
		panic("nil flag definition")
	}
	c.flagDefs = append(c.flagDefs, define)
	return c
}

// Arg appends a required string positional.
func (c *BaseCommand) Arg(name, usage string) *BaseCommand {
	return c.addArg(argSpec{name: name, usage: usage, kind: stringArg})
}

// IntArg appends a required integer positional.
func (c *BaseCommand) IntArg(name, usage string) *BaseCommand {
	return c.addArg(argSpec{name: name, usage: usage, kind: intArg})
}

// OptionalArg appends an optional string positional. Optional positionals must come last.
func (c *BaseCommand) OptionalArg(name, usage string) *BaseCommand {
	return c.addArg(argSpec{name: name, usage: usage, kind: stringArg, optional: true})
}

// OptionalIntArg appends an optional integer positional. Optional positionals must come last.
func (c *BaseCommand) OptionalIntArg(name, usage string) *BaseCommand {
	return c.addArg(argSpec{name: name, usage: usage, kind: intArg, optional: true})
}

func (c *BaseCommand) addArg(spec argSpec) *BaseCommand {
	if n := len(c.args); n > 0 && c.args[n-1].optional && !spec.optional {
		panic(fmt.Sprintf("required argument %s follows an optional argument", spec.metavar()))
	}
	c.args = append(c.args, spec)
	return c
}

// PreRun sets a hook that runs before the command. Returning an error vetoes the run.
func (c *BaseCommand) PreRun(fn PreRunFunc) *BaseCommand {
	c.preRun = fn
	return c
}

// Does specifies the [RunFunc] that should be executed by this [Command].
func (c *BaseCommand) Does(fn RunFunc) *BaseCommand {
	if fn == nil {
		return c
	}
	c.run = fn
	return c
}

// PostRun sets a hook that may transform the result of the run step.
func (c *BaseCommand) PostRun(fn PostRunFunc) *BaseCommand {
	c.postRun = fn
	return c
}

// OnAbort sets the hook called when the user interrupts this command.
func (c *BaseCommand) OnAbort(fn AbortFunc) *BaseCommand {
	c.abort = fn
	return c
}

func (c *BaseCommand) printer() *Printer {
	if c.shell == nil {
		return NewPrinter()
	}
	return c.shell.Printer()
}

func (c *BaseCommand) logger() *slog.Logger {
	if c.shell == nil {
		return slog.Default()
	}
	return c.shell.Logger()
}

func (c *BaseCommand) newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(c.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SetInterspersed(false)
	fs.BoolP("help", "h", false, "Prints this usage information")
	for _, define := range c.flagDefs {
		define(fs)
	}
	return fs
}

func (c *BaseCommand) parse(line string) (*Args, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArgs, err)
	}
	fs := c.newFlagSet()
	if err := fs.Parse(words); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArgs, err)
	}
	args := &Args{flags: fs}
	if args.Help() {
		return args, nil
	}
	values, err := parsePositionals(c.args, fs.Args())
	if err != nil {
		return nil, err
	}
	args.values = values
	return args, nil
}

// Invoke parses line, handles help requests, and runs the pre-run, run, and post-run steps.
func (c *BaseCommand) Invoke(ctx context.Context, line string) (Result, error) {
	args, err := c.parse(line)
	if err != nil {
		c.logger().Error("Parsing arguments failed", "command", c.name, "error", err)
		return Failure, nil
	}
	if args.Help() {
		c.PrintHelp()
		return Success, nil
	}
	inv := &Invocation{Shell: c.shell, Line: line, Args: args}
	err = c.execute(ctx, inv)
	if exit, ok := AsExit(err); ok {
		return Failure, exit
	}
	res := Success
	if err != nil {
		res = Failure
		c.logger().Error(err.Error(), "command", c.name)
		if errors.Is(err, &UsageError{}) {
			c.PrintHelp()
		}
	}
	if c.postRun != nil {
		res = c.postRun(ctx, inv, res)
	}
	return res, nil
}

func (c *BaseCommand) execute(ctx context.Context, inv *Invocation) error {
	if c.preRun != nil {
		if err := c.preRun(ctx, inv); err != nil {
			return err
		}
	}
	if c.run == nil {
		return nil
	}
	return c.run(ctx, inv)
}

// Abort runs the abort hook, defaulting to [Failure] without side effects.
func (c *BaseCommand) Abort() Result {
	if c.abort == nil {
		return Failure
	}
	return c.abort(c.shell)
}

// Usage returns the one line invocation pattern for this command.
func (c *BaseCommand) Usage() string {
	var buf strings.Builder
	if c.shell != nil {
		if path := c.shell.path(); len(path) > 0 {
			buf.WriteString(path + " ")
		}
	}
	buf.WriteString(c.name)
	buf.WriteString(" [FLAGS]")
	for _, spec := range c.args {
		if spec.optional {
			buf.WriteString(" [" + spec.metavar() + "]")
		} else {
			buf.WriteString(" " + spec.metavar())
		}
	}
	return buf.String()
}

// PrintHelp renders the description, usage line, arguments, and flags of this command.
func (c *BaseCommand) PrintHelp() {
	var buf strings.Builder
	desc := c.description
	if len(desc) == 0 {
		desc = c.summary
	}
	if len(desc) == 0 {
		desc = noDescription
	}
	buf.WriteString(desc + "\n")
	buf.WriteString("\nUSAGE:\n" + c.Usage() + "\n")
	if len(c.args) > 0 {
		maxLen := 0
		for _, spec := range c.args {
			maxLen = max(maxLen, len(spec.metavar()))
		}
		fmtStr := fmt.Sprintf("  %%-%ds   %%s\n", maxLen)
		buf.WriteString("\nARGUMENTS\n")
		for _, spec := range c.args {
			buf.WriteString(fmt.Sprintf(fmtStr, spec.metavar(), spec.usage))
		}
	}
	buf.WriteString("\nFLAGS\n")
	buf.WriteString(c.newFlagSet().FlagUsages())
	c.printer().Print(buf.String())
}
