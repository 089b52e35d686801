package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/saylorsolutions/dccctl/app"
	"github.com/saylorsolutions/dccctl/cli"
	"github.com/saylorsolutions/dccctl/dccpp"
	"github.com/saylorsolutions/dccctl/signalx"
	flag "github.com/spf13/pflag"
)

const (
	Name        = "dcchttpd"
	Description = "HTTP Server for DCC Commands"

	KeyPort   = "port"
	KeyBaud   = "baud"
	KeyListen = "listen"
	KeyOrigin = "allow-origin"

	DefaultListen = ":8080"
)

var _ app.Tool = (*Tool)(nil)

// Tool is the dcchttpd server.
type Tool struct {
	station     *dccpp.Station
	stationOpts []dccpp.Option
	listener    net.Listener
	server      *http.Server
	log         *slog.Logger
	timeout     time.Duration
}

type Option func(t *Tool)

// WithStationOptions are applied when the station is created.
func WithStationOptions(opts ...dccpp.Option) Option {
	return func(t *Tool) {
		t.stationOpts = append(t.stationOpts, opts...)
	}
}

// WithListener serves on l instead of listening on the configured address.
func WithListener(l net.Listener) Option {
	return func(t *Tool) {
		t.listener = l
	}
}

// WithShutdownTimeout overrides [DefaultShutdownTimeout].
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(t *Tool) {
		t.timeout = timeout
	}
}

func New(opts ...Option) *Tool {
	t := &Tool{timeout: DefaultShutdownTimeout}
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

func (t *Tool) DefineFlags(fs *flag.FlagSet) {
	fs.StringP(KeyPort, "p", dccpp.DefaultPort, "Serial port `DEV`")
	fs.IntP(KeyBaud, "b", dccpp.DefaultBaud, "Serial baud rate")
	fs.String(KeyListen, DefaultListen, "Listen on `ADDR`")
	fs.StringSlice(KeyOrigin, nil, "Allow browser requests from `ORIGIN`, may be repeated")
}

// ValidateArgs rejects positional arguments, the server doesn't take commands on the command line.
func (t *Tool) ValidateArgs(args []string) error {
	if len(args) > 0 {
		return cli.NewUsageError("unrecognized arguments: %v", args)
	}
	return nil
}

func (t *Tool) Create(_ context.Context, env *app.Env) error {
	t.log = env.Log
	opts := append([]dccpp.Option{dccpp.WithLogger(env.Log)}, t.stationOpts...)
	st := dccpp.New(env.Config.GetString(KeyPort), env.Config.GetInt(KeyBaud), opts...)
	if err := st.Connect(); err != nil {
		return err
	}
	t.station = st
	t.server = &http.Server{
		Addr:              env.Config.GetString(KeyListen),
		Handler:           NewServer(st, env.Log, env.Config.GetStringSlice(KeyOrigin)...),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// NewServer wraps the command [Handler] with request IDs, request logging, panic recovery and CORS.
func NewServer(st Station, log *slog.Logger, origins ...string) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return Wrap(NewHandler(st, log),
		RequestIDMiddleware,
		LoggingMiddleware(SlogLogger(log, slog.LevelInfo)),
		RecoveryMiddleware(PanicHandlerFunc(func(w http.ResponseWriter, r *http.Request, recovered any) {
			log.Error("Recovered from panic", "path", r.URL.Path, "panic", recovered, "request", RequestID(r.Context()))
			writeJSON(w, http.StatusInternalServerError, Response{"status": false, "error": "Internal server error!"})
		})),
		CORSMiddleware(origins...),
	)
}

// Run serves until SIGINT or SIGTERM is received, then shuts down gracefully.
// A second signal exits immediately.
func (t *Tool) Run(ctx context.Context, _ []string) (bool, error) {
	if t.server == nil {
		return false, errors.New("server not created")
	}
	ctx = signalx.SignalExitCtx(ctx, os.Interrupt, syscall.SIGTERM)
	var err error
	if t.listener != nil {
		t.log.Info("Serving DCC commands", "addr", t.listener.Addr().String())
		err = ServeCtx(ctx, t.server, t.listener, t.timeout)
	} else {
		t.log.Info("Serving DCC commands", "addr", t.server.Addr)
		err = ListenAndServeCtx(ctx, t.server, t.timeout)
	}
	if err != nil {
		return false, fmt.Errorf("http server: %w", err)
	}
	t.log.Info("Server stopped")
	return true, nil
}

func (t *Tool) Cleanup() error {
	if t.station != nil {
		return t.station.Disconnect()
	}
	return nil
}
