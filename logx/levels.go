package logx

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/saylorsolutions/dccctl/cli"
)

// LevelCritical sits above [slog.LevelError], and is rendered with the fatal style.
const LevelCritical = slog.Level(12)

// LevelOff is above every level that can be logged.
const LevelOff = slog.Level(math.MaxInt32)

// Levels is the process' logging configuration, expressed with RFC 5424 (syslog) level numbers.
// It's safe for concurrent use, and changes apply immediately to every logger created by [New].
type Levels struct {
	level atomic.Int32
}

var _ cli.LogLevels = (*Levels)(nil)

// NewLevels validates level and creates a [Levels].
func NewLevels(level int) (*Levels, error) {
	l := &Levels{}
	if err := l.SetLevel(level); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Levels) Level() int {
	return int(l.level.Load())
}

func (l *Levels) SetLevel(level int) error {
	if !cli.ValidLogLevel(level) {
		return fmt.Errorf("%w: %d", cli.ErrLogLevel, level)
	}
	l.level.Store(int32(level))
	return nil
}

func (l *Levels) LevelName() string {
	return cli.LevelName(l.Level())
}

// Slog is the minimum [slog.Level] that will be logged at the current level.
func (l *Levels) Slog() slog.Level {
	return SlogLevel(l.Level())
}

// SlogLevel maps an RFC 5424 level to the minimum [slog.Level] that should be logged.
func SlogLevel(level int) slog.Level {
	switch {
	case level <= 0:
		return LevelOff
	case level <= 2:
		return LevelCritical
	case level == 3:
		return slog.LevelError
	case level == 4:
		return slog.LevelWarn
	case level <= 6:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// CharmLevel is the same as [SlogLevel] for a [log.Logger].
func CharmLevel(level int) log.Level {
	return log.Level(SlogLevel(level))
}
