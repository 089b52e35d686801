package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/saylorsolutions/dccctl/cli"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

type fakeTool struct {
	createErr  error
	cleanupErr error
	ok         bool
	runErr     error
	abort      func() int

	env     *Env
	args    []string
	calls   []string
	speed   int
	aborted bool
}

func (f *fakeTool) Name() string        { return "fake" }
func (f *fakeTool) Description() string { return "A fake tool" }

func (f *fakeTool) DefineFlags(fs *flag.FlagSet) {
	fs.IntVarP(&f.speed, "speed", "s", 10, "Speed")
}

func (f *fakeTool) Create(_ context.Context, env *Env) error {
	f.calls = append(f.calls, "create")
	f.env = env
	return f.createErr
}

func (f *fakeTool) Run(_ context.Context, args []string) (bool, error) {
	f.calls = append(f.calls, "run")
	f.args = args
	return f.ok, f.runErr
}

func (f *fakeTool) Cleanup() error {
	f.calls = append(f.calls, "cleanup")
	return f.cleanupErr
}

type abortingTool struct {
	fakeTool
}

func (a *abortingTool) Abort() int {
	a.aborted = true
	return 3
}

func execute(t *testing.T, tool Tool, args ...string) (int, string) {
	t.Helper()
	var logs bytes.Buffer
	cmd := NewCommand(tool)
	cmd.SetArgs(args)
	cmd.SetErr(&logs)
	cmd.SetOut(&logs)
	return ExitCode(cmd, cmd.ExecuteContext(context.Background())), logs.String()
}

func TestRun_Outcomes(t *testing.T) {
	tests := map[string]struct {
		tool  *fakeTool
		code  int
		calls []string
		log   string
	}{
		"Success":        {tool: &fakeTool{ok: true}, code: cli.ExitSuccess, calls: []string{"create", "run", "cleanup"}},
		"Failure":        {tool: &fakeTool{}, code: cli.ExitFailure, calls: []string{"create", "run", "cleanup"}},
		"Create error":   {tool: &fakeTool{createErr: errors.New("no station")}, code: cli.ExitFailure, calls: []string{"create"}, log: "no station"},
		"Run error":      {tool: &fakeTool{ok: true, runErr: errors.New("broken")}, code: cli.ExitFailure, calls: []string{"create", "run", "cleanup"}, log: "broken"},
		"Normal exit":    {tool: &fakeTool{runErr: cli.Exit(cli.ExitSuccess, "")}, code: cli.ExitSuccess, calls: []string{"create", "run", "cleanup"}},
		"Exit code":      {tool: &fakeTool{runErr: cli.Exit(5, "halted")}, code: 5, calls: []string{"create", "run", "cleanup"}, log: "halted Exiting ... (code 5)"},
		"Interrupted":    {tool: &fakeTool{ok: true, runErr: cli.ErrInterrupted}, code: cli.ExitFailure, calls: []string{"create", "run", "cleanup"}, log: "Aborting ..."},
		"Usage error":    {tool: &fakeTool{runErr: cli.NewUsageError("invalid choice")}, code: ExitUsage, calls: []string{"create", "run", "cleanup"}, log: "invalid choice"},
		"Cleanup error":  {tool: &fakeTool{ok: true, cleanupErr: errors.New("stuck")}, code: cli.ExitFailure, calls: []string{"create", "run", "cleanup"}, log: "stuck"},
		"Cleanup failed": {tool: &fakeTool{cleanupErr: errors.New("stuck")}, code: cli.ExitFailure, calls: []string{"create", "run", "cleanup"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			code, logs := execute(t, tc.tool)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.calls, tc.tool.calls)
			if len(tc.log) > 0 {
				assert.Contains(t, logs, tc.log)
			}
		})
	}
}

func TestRun_Aborter(t *testing.T) {
	tool := &abortingTool{fakeTool{runErr: cli.ErrInterrupted}}
	code, logs := execute(t, tool)
	assert.Equal(t, 3, code)
	assert.True(t, tool.aborted)
	assert.NotContains(t, logs, "Aborting ...")
	assert.Equal(t, []string{"create", "run", "cleanup"}, tool.calls)
}

func TestNewCommand_Args(t *testing.T) {
	tool := &fakeTool{ok: true}
	code, _ := execute(t, tool, "-s", "20", "throttle", "3", "-20", "--fast")
	assert.Equal(t, cli.ExitSuccess, code)
	assert.Equal(t, []string{"throttle", "3", "-20", "--fast"}, tool.args, "Arguments after the command must pass through")
	assert.Equal(t, 20, tool.env.Config.GetInt("speed"))
	assert.Equal(t, cli.DefaultLogLevel, tool.env.Levels.Level())
}

func TestNewCommand_LogLevel(t *testing.T) {
	tool := &fakeTool{ok: true}
	code, _ := execute(t, tool, "-l", "7")
	assert.Equal(t, cli.ExitSuccess, code)
	assert.Equal(t, 7, tool.env.Levels.Level())

	tool = &fakeTool{ok: true}
	code, logs := execute(t, tool, "--log-level", "9")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, logs, "usage: fake [flags] [cmd [cmd_args...]]")
	assert.Contains(t, logs, "log-level")
	assert.Empty(t, tool.calls, "Nothing should be created with invalid arguments")
}

func TestNewCommand_UnknownFlag(t *testing.T) {
	tool := &fakeTool{ok: true}
	code, logs := execute(t, tool, "--bogus")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, logs, "fake: error:")
	assert.Empty(t, tool.calls)
}

func TestNewCommand_Version(t *testing.T) {
	tool := &fakeTool{ok: true}
	code, out := execute(t, tool, "--version")
	assert.Equal(t, cli.ExitSuccess, code)
	assert.Contains(t, out, SemVer().String())
	assert.Empty(t, tool.calls)
}

func TestNewConfig_Layers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "fake.toml")
	assert.NoError(t, os.WriteFile(file, []byte("log-level = 6\nspeed = 30\n"), 0600))

	tool := &fakeTool{ok: true}
	_, _ = execute(t, tool, "-c", file)
	assert.Equal(t, 6, tool.env.Levels.Level(), "The config file should override defaults")
	assert.Equal(t, 30, tool.env.Config.GetInt("speed"))

	t.Setenv("DCC_SPEED", "40")
	tool = &fakeTool{ok: true}
	_, _ = execute(t, tool, "-c", file)
	assert.Equal(t, 40, tool.env.Config.GetInt("speed"), "The environment should override the config file")

	tool = &fakeTool{ok: true}
	_, _ = execute(t, tool, "-c", file, "--speed", "50")
	assert.Equal(t, 50, tool.env.Config.GetInt("speed"), "Flags should override everything")

	tool = &fakeTool{ok: true}
	code, logs := execute(t, tool, "-c", filepath.Join(dir, "missing.toml"))
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, logs, "configuration error")
}

func TestNewConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "layout.env")
	assert.NoError(t, os.WriteFile(file, []byte("DCC_SPEED=60\nDCC_LOG_LEVEL=7\n"), 0600))
	t.Setenv("DCC_SPEED", "")
	t.Setenv("DCC_LOG_LEVEL", "5")
	assert.NoError(t, os.Unsetenv("DCC_SPEED"))

	tool := &fakeTool{ok: true}
	code, _ := execute(t, tool, "--env-file", file)
	assert.Equal(t, cli.ExitSuccess, code)
	assert.Equal(t, 60, tool.env.Config.GetInt("speed"))
	assert.Equal(t, 5, tool.env.Levels.Level(), "Variables that are already set should be kept")

	tool = &fakeTool{ok: true}
	code, logs := execute(t, tool, "--env-file", filepath.Join(dir, "missing.env"))
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, logs, "configuration error")
}

func TestSemVer(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "1.2.3-rc1"
	assert.Equal(t, "1.2.3-rc1", SemVer().String())
	assert.Equal(t, "tool - 1.2.3-rc1", VersionString("tool"))
	Version = "not a version"
	assert.Equal(t, "0.0.0", SemVer().String())
}
