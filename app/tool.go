/*
Package app is the process entry harness shared by the tools of this module.

A [Tool] is created, run, and cleaned up by [Main], which maps the outcome to a process exit code.
Tools that are built around a [cli.Shell] can use [RunShell] to support both direct calls from process arguments and the interactive loop.
*/
package app

import (
	"context"
	"log/slog"

	"github.com/saylorsolutions/dccctl/logx"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Tool is a command line program run by [Main].
type Tool interface {
	Name() string
	// Description is shown at the top of the process usage.
	Description() string
	// DefineFlags adds tool specific flags, which are bound to the configuration by name.
	DefineFlags(fs *flag.FlagSet)
	// Create acquires resources. An error is fatal, and Run won't be called.
	Create(ctx context.Context, env *Env) error
	// Run does the work, and reports whether it was successful.
	Run(ctx context.Context, args []string) (bool, error)
	// Cleanup releases resources, it's called whenever Create succeeded.
	Cleanup() error
}

// Aborter may be implemented by a [Tool] to handle a user interrupt that stopped Run.
// The returned value is used as the exit code.
type Aborter interface {
	Abort() int
}

// ArgsValidator may be implemented by a [Tool] to reject process arguments before any resources are created.
// A validation error should be a [cli.UsageError].
type ArgsValidator interface {
	ValidateArgs(args []string) error
}

// Env is the configured environment handed to [Tool.Create].
type Env struct {
	Config *viper.Viper
	Levels *logx.Levels
	Log    *slog.Logger
}
