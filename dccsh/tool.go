package dccsh

import (
	"context"
	"errors"
	"io"

	"github.com/saylorsolutions/dccctl/app"
	"github.com/saylorsolutions/dccctl/cli"
	"github.com/saylorsolutions/dccctl/dccpp"
	flag "github.com/spf13/pflag"
)

const (
	KeyPort = "port"
	KeyBaud = "baud"
)

var _ app.Tool = (*Tool)(nil)

// Tool is the dccpp command line tool.
type Tool struct {
	shell       *cli.Shell
	station     *dccpp.Station
	stationOpts []dccpp.Option
	in          io.Reader
	out         io.Writer
	history     string
	terminal    io.Closer
}

type Option func(t *Tool)

// WithStationOptions are applied when the station is created.
func WithStationOptions(opts ...dccpp.Option) Option {
	return func(t *Tool) {
		t.stationOpts = append(t.stationOpts, opts...)
	}
}

// WithIO replaces stdin and stdout of the shell. A terminal is never used for a replaced input.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(t *Tool) {
		t.in = in
		t.out = out
	}
}

// WithHistory sets the history file of the interactive loop, which is ~/.dccpp_history by default.
func WithHistory(file string) Option {
	return func(t *Tool) {
		t.history = file
	}
}

func New(opts ...Option) *Tool {
	t := &Tool{
		shell:   NewShell(),
		history: app.HistoryFile(Name),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tool) Name() string {
	return Name
}

func (t *Tool) Description() string {
	return Description
}

// Shell is the command set of this tool.
func (t *Tool) Shell() *cli.Shell {
	return t.shell
}

func (t *Tool) DefineFlags(fs *flag.FlagSet) {
	fs.StringP(KeyPort, "p", dccpp.DefaultPort, "Serial port `DEV`")
	fs.IntP(KeyBaud, "b", dccpp.DefaultBaud, "Serial baud rate")
}

func (t *Tool) ValidateArgs(args []string) error {
	return app.ValidateChoice(t.shell, args)
}

func (t *Tool) Create(_ context.Context, env *app.Env) error {
	opts := append([]dccpp.Option{dccpp.WithLogger(env.Log)}, t.stationOpts...)
	st := dccpp.New(env.Config.GetString(KeyPort), env.Config.GetInt(KeyBaud), opts...)
	if err := st.Connect(); err != nil {
		return err
	}
	t.station = st
	SetStation(t.shell, st)
	app.ConnectShell(t.shell, env)
	if t.out != nil {
		t.shell.Printer().Redirect(t.out)
	}
	if t.in != nil {
		t.shell.SetInput(t.in)
	} else {
		t.terminal = app.UseTerminal(t.shell, t.history)
	}
	return nil
}

func (t *Tool) Run(ctx context.Context, args []string) (bool, error) {
	return app.RunShell(ctx, t.shell, args)
}

func (t *Tool) Cleanup() error {
	var errs []error
	if t.terminal != nil {
		errs = append(errs, t.terminal.Close())
		t.terminal = nil
	}
	if t.station != nil {
		errs = append(errs, t.station.Disconnect())
	}
	return errors.Join(errs...)
}
