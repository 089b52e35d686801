package dccsh

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/saylorsolutions/dccctl/app"
	"github.com/saylorsolutions/dccctl/cli"
	"github.com/saylorsolutions/dccctl/dccpp"
	"github.com/stretchr/testify/assert"
)

func runTool(t *testing.T, input string, args ...string) (int, *fakePort, string, string) {
	t.Helper()
	var (
		out    bytes.Buffer
		logs   bytes.Buffer
		port   = &fakePort{}
		opened string
	)
	tool := New(
		WithStationOptions(dccpp.WithOpener(func(name string, _ int) (io.ReadWriteCloser, error) {
			opened = name
			return port, nil
		})),
		WithIO(strings.NewReader(input), &out),
		WithHistory(""),
	)
	cmd := app.NewCommand(tool)
	cmd.SetArgs(args)
	cmd.SetErr(&logs)
	cmd.SetOut(&out)
	code := app.ExitCode(cmd, cmd.ExecuteContext(context.Background()))
	if len(opened) > 0 {
		assert.True(t, port.closed, "The station must be disconnected during cleanup")
	}
	return code, port, out.String(), logs.String()
}

func TestTool_Direct(t *testing.T) {
	code, port, _, _ := runTool(t, "", "-p", "/dev/ttyTEST", "throttle", "3", "-20")
	assert.Equal(t, cli.ExitSuccess, code)
	assert.Equal(t, "<t 1 3 20 0>", port.String())

	code, port, _, _ = runTool(t, "", "-p", "/dev/ttyTEST", "throttle", "3", "fast")
	assert.Equal(t, cli.ExitFailure, code)
	assert.Empty(t, port.String())

	code, _, _, _ = runTool(t, "", "-p", "/dev/ttyTEST", "prog", "write", "--addr", "3", "29", "6")
	assert.Equal(t, cli.ExitSuccess, code)
}

func TestTool_Interactive(t *testing.T) {
	code, port, out, _ := runTool(t, "on\nlast_ret\nexit\n", "--port", "/dev/ttyTEST")
	assert.Equal(t, cli.ExitSuccess, code)
	assert.Equal(t, "<1>", port.String())
	assert.Contains(t, out, "success")

	code, _, _, _ = runTool(t, "nosuchcmd\n", "--port", "/dev/ttyTEST")
	assert.Equal(t, cli.ExitFailure, code, "The last result is the exit code of the interactive loop")
}

func TestTool_InvalidChoice(t *testing.T) {
	for _, name := range []string{"help", "nosuchcmd", "exit"} {
		t.Run(name, func(t *testing.T) {
			code, _, _, logs := runTool(t, "", name)
			assert.Equal(t, app.ExitUsage, code)
			assert.Contains(t, logs, "invalid choice")
			assert.Contains(t, logs, "'throttle'")
		})
	}
}

func TestTool_ConnectFailure(t *testing.T) {
	var logs bytes.Buffer
	tool := New(
		WithStationOptions(dccpp.WithOpener(func(string, int) (io.ReadWriteCloser, error) {
			return nil, errors.New("permission denied")
		})),
		WithIO(strings.NewReader("on\n"), io.Discard),
	)
	cmd := app.NewCommand(tool)
	cmd.SetArgs([]string{"-p", "/dev/ttyTEST"})
	cmd.SetErr(&logs)
	code := app.ExitCode(cmd, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, cli.ExitFailure, code)
	assert.Contains(t, logs.String(), "permission denied")
	assert.NoError(t, tool.Cleanup())
}

func TestTool_Flags(t *testing.T) {
	tool := New()
	cmd := app.NewCommand(tool)
	assert.NotNil(t, cmd.Flags().ShorthandLookup("p"))
	assert.NotNil(t, cmd.Flags().ShorthandLookup("b"))
	assert.Equal(t, dccpp.DefaultPort, cmd.Flags().Lookup(KeyPort).DefValue)
	assert.Equal(t, "dccpp [flags] [cmd [cmd_args...]]", cmd.Use)
}
