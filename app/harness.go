package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"syscall"

	"github.com/saylorsolutions/dccctl/cli"
	"github.com/saylorsolutions/dccctl/signalx"
	"github.com/spf13/cobra"
)

// ExitUsage is returned when the process arguments are invalid.
const ExitUsage = 2

// exitCode carries a non-zero exit code out of cobra's RunE.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit code %d", int(e))
}

// NewCommand creates the root command of tool.
// Flags are not interspersed, so everything after the first positional is passed to [Tool.Run] untouched.
func NewCommand(tool Tool) *cobra.Command {
	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s [flags] [cmd [cmd_args...]]", tool.Name()),
		Short:         tool.Description(),
		Version:       SemVer().String(),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if validator, ok := tool.(ArgsValidator); ok {
				if err := validator.ValidateArgs(args); err != nil {
					return err
				}
			}
			env, err := NewEnv(cmd.Flags(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if code := Run(cmd.Context(), tool, env, args); code != cli.ExitSuccess {
				return exitCode(code)
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.SetInterspersed(false)
	fs.IntP(KeyLogLevel, "l", cli.DefaultLogLevel, "Log level 0-7 (RFC 5424, syslog)")
	fs.StringP(KeyConfigFile, "c", "", "Configuration `FILE`")
	fs.String(KeyEnvFile, "", "Load environment variables from `FILE`")
	tool.DefineFlags(fs)
	return cmd
}

// Main runs tool with the given process arguments, excluding the program name, and returns the exit code.
// SIGTERM cancels the context passed to the tool.
func Main(tool Tool, args []string) int {
	ctx, cancel := signalx.SignalCtx(context.Background(), syscall.SIGTERM)
	defer cancel()
	cmd := NewCommand(tool)
	cmd.SetArgs(args)
	return ExitCode(cmd, cmd.ExecuteContext(ctx))
}

// ExitCode maps the error returned from executing cmd to an exit code.
// Errors that don't come from [Run] are usage errors, which are printed with the usage line.
func ExitCode(cmd *cobra.Command, err error) int {
	if err == nil {
		return cli.ExitSuccess
	}
	var code exitCode
	if errors.As(err, &code) {
		return int(code)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "usage: %s\n%s: error: %v\n", cmd.UseLine(), cmd.Name(), err)
	return ExitUsage
}

// Run performs the lifecycle of tool with an already prepared [Env].
// [Tool.Cleanup] runs on every path after [Tool.Create] succeeded.
func Run(ctx context.Context, tool Tool, env *Env, args []string) (code int) {
	log := env.Log
	log.Info(VersionString(tool.Name()))
	if err := tool.Create(ctx, env); err != nil {
		log.Error(err.Error())
		return cli.ExitFailure
	}
	defer func() {
		if err := tool.Cleanup(); err != nil {
			log.Error("Cleanup failed", "error", err)
			if code == cli.ExitSuccess {
				code = cli.ExitFailure
			}
		}
	}()
	ok, err := tool.Run(ctx, args)
	return outcome(tool, log, ok, err)
}

func outcome(tool Tool, log *slog.Logger, ok bool, err error) int {
	if exit, isExit := cli.AsExit(err); isExit {
		if exit.IsNormal() {
			log.Info(exit.Error())
		} else {
			log.Error(exit.Error())
		}
		return exit.Code
	}
	switch {
	case errors.Is(err, cli.ErrInterrupted), errors.Is(err, context.Canceled):
		if aborter, isAborter := tool.(Aborter); isAborter {
			return aborter.Abort()
		}
		log.Warn("Aborting ...")
		return cli.ExitFailure
	case errors.Is(err, &cli.UsageError{}):
		log.Error(err.Error())
		return ExitUsage
	case err != nil:
		log.Error(err.Error())
		return cli.ExitFailure
	case ok:
		return cli.ExitSuccess
	default:
		return cli.ExitFailure
	}
}
