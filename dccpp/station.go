package dccpp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"
)

const (
	DefaultPort = "auto"
	DefaultBaud = 115200
	MaxSpeed    = 126

	LightOff = 128
	LightOn  = 144
)

var (
	ErrNotConnected = errors.New("DCC++ station is not connected")
	ErrNoPort       = errors.New("no serial port found")
	ErrConnect      = errors.New("unable to connect")
	ErrRange        = errors.New("value out of range")
)

// AutoPatterns are searched in order when the port is [DefaultPort].
var AutoPatterns = []string{"/dev/ttyACM*", "/dev/ttyUSB*"}

// Opener opens the serial device name at the given baud rate.
type Opener func(name string, baud int) (io.ReadWriteCloser, error)

// SerialOpener opens a real serial device with [serial.OpenPort].
func SerialOpener(name string, baud int) (io.ReadWriteCloser, error) {
	return serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	})
}

// Station drives a DCC++ base station over a serial connection.
// Commands are serialized, so a Station can be shared by concurrent request handlers.
type Station struct {
	mu   sync.Mutex
	port string
	baud int
	open Opener
	glob func(pattern string) ([]string, error)
	conn io.ReadWriteCloser
	log  *slog.Logger
}

type Option func(s *Station)

// WithOpener replaces [SerialOpener], mostly for tests.
func WithOpener(open Opener) Option {
	return func(s *Station) {
		if open != nil {
			s.open = open
		}
	}
}

// WithGlob replaces [filepath.Glob] for port discovery.
func WithGlob(glob func(pattern string) ([]string, error)) Option {
	return func(s *Station) {
		if glob != nil {
			s.glob = glob
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Station) {
		if logger != nil {
			s.log = logger
		}
	}
}

// New creates a disconnected [Station].
// An empty port means [DefaultPort], and a non-positive baud rate means [DefaultBaud].
func New(port string, baud int, opts ...Option) *Station {
	if len(strings.TrimSpace(port)) == 0 {
		port = DefaultPort
	}
	if baud <= 0 {
		baud = DefaultBaud
	}
	s := &Station{
		port: port,
		baud: baud,
		open: SerialOpener,
		glob: filepath.Glob,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Port is the configured device, which is the discovered device after connecting to an "auto" port.
func (s *Station) Port() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *Station) Baud() int {
	return s.baud
}

func (s *Station) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Station) resolvePort() (string, error) {
	if s.port != DefaultPort {
		return s.port, nil
	}
	for _, pattern := range AutoPatterns {
		matches, err := s.glob(pattern)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoPort, err)
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrNoPort, strings.Join(AutoPatterns, ", "))
}

// Connect opens the serial port. Connecting an already connected station only logs a warning.
func (s *Station) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.log.Warn("Station already connected", "station", s.string())
		return nil
	}
	port, err := s.resolvePort()
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrConnect, s.string(), err)
	}
	s.log.Debug("Connecting to station", "port", port, "baud", s.baud)
	conn, err := s.open(port, s.baud)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrConnect, s.string(), err)
	}
	s.port = port
	s.conn = conn
	return nil
}

// Disconnect closes the serial port if it's open.
func (s *Station) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	s.log.Debug("Disconnecting from station", "port", s.port)
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Frame renders a command in the DCC++ text protocol, like "<t 1 3 100 1>".
func Frame(name string, args ...int) string {
	var buf strings.Builder
	buf.WriteString("<" + name)
	for _, arg := range args {
		buf.WriteString(" " + strconv.Itoa(arg))
	}
	buf.WriteString(">")
	return buf.String()
}

// Send writes a single framed command to the station.
func (s *Station) Send(name string, args ...int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	cmd := Frame(name, args...)
	s.log.Debug("Send command", "command", cmd)
	if _, err := io.WriteString(s.conn, cmd); err != nil {
		return fmt.Errorf("writing command %s: %w", cmd, err)
	}
	return nil
}

// Status requests the status of the station, which answers with its version and power state.
func (s *Station) Status() error {
	return s.Send("s")
}

func (s *Station) PowerOn() error {
	return s.Send("1")
}

func (s *Station) PowerOff() error {
	return s.Send("0")
}

func (s *Station) Power(on bool) error {
	if on {
		return s.PowerOn()
	}
	return s.PowerOff()
}

// Throttle sets the speed of cab using register. Negative speeds drive in reverse.
func (s *Station) Throttle(register, cab, speed int) error {
	if speed < -MaxSpeed || speed > MaxSpeed {
		return fmt.Errorf("%w: speed %d, must be from -%d to %d", ErrRange, speed, MaxSpeed, MaxSpeed)
	}
	direction := 1
	if speed < 0 {
		direction = 0
		speed = -speed
	}
	return s.Send("t", register, cab, speed, direction)
}

// Function sends a raw function byte to the decoder of cab.
func (s *Station) Function(cab, fn int) error {
	return s.Send("f", cab, fn)
}

// Light switches the head light function of cab.
func (s *Station) Light(cab int, on bool) error {
	if on {
		return s.Function(cab, LightOn)
	}
	return s.Function(cab, LightOff)
}

// Turnout throws (1) or closes (0) the accessory decoder at addr.
func (s *Station) Turnout(addr, state int) error {
	if state != 0 && state != 1 {
		return fmt.Errorf("%w: turnout state %d, must be 0 or 1", ErrRange, state)
	}
	return s.Send("a", addr, 0, state)
}

// WriteCV writes a configuration variable on the programming track when addr is 0, otherwise on the main track.
func (s *Station) WriteCV(cv, value, addr int) error {
	if addr == 0 {
		return s.Send("W", cv, value, 0, 0)
	}
	return s.Send("w", addr, cv, value)
}

func (s *Station) string() string {
	return fmt.Sprintf("DCC++(connected=%t, port=%s, baud=%d)", s.conn != nil, s.port, s.baud)
}

func (s *Station) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.string()
}
