/*
Package cli provides a line-oriented command shell, built from named and documented commands.

There are a few reasonable (IMHO) policies for how this operates.

  - All user-visible output goes through the [Printer] of a [Shell], never to a global stream. This makes every command capturable in tests.
  - Diagnostics are logged with [log/slog], output is printed. Those are different things.
  - This package uses [pflag] for posix style flags, and every command gets '-h' and '--help'.
  - Flags should NOT be interspersed. Everything after the first positional is a positional, so negative numbers work as expected.
    That's why usage lines read "write [FLAGS] CV VALUE", flags go first.
  - Command aliases are often very convenient, so they're supported as additional, optional parameters to [Shell.AddCommand].

# Invocation

A [Shell] can be used in two ways that behave identically from a command's perspective.

	sh.Invoke(ctx, "throttle 3 100") // Direct mode: dispatch once and return the result.
	sh.Invoke(ctx, "")               // Interactive mode: prompt, read, dispatch until exit or end of input.

Failures never escape a command. Parse errors, errors returned from a [RunFunc], and unknown commands all result in [Failure].
Errors returned from [Shell.Invoke] end the shell instead: an [ExitError] when the process should terminate with a specific code,
[ErrInterrupted] when the user interrupted the prompt, the cause of a cancelled context, or a failure to read input.

# Built-ins

Every shell has help, exit (with q and quit), last_ret, and logging. These names are reserved, see [Builtins].

# Nesting

A [Shell] is a [Command] too, so it can be added to another shell with [Shell.AddShell].
Calling it with arguments runs a single command in the child, calling it without arguments enters the child's loop until the user exits from it.
Use [Shell.OnAdopt] to take over resources like connection handles from the parent when the child is entered.

# Interrupts

Each command dispatch, and each read at the prompt, is scoped with an [InterruptFunc].
An interrupt at the prompt ends the loop with [ErrInterrupted].
A command that runs for a while should watch its context, and the shell calls [Command.Abort] when the context was cancelled with [ErrInterrupted].

[pflag]: https://github.com/spf13/pflag
*/
package cli
