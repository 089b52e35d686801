package cli

import "fmt"

// Log levels follow the RFC 5424 (syslog) numbering, where 0 disables logging and 7 is the most verbose.
const (
	MinLogLevel     = 0
	MaxLogLevel     = 7
	DefaultLogLevel = 4
)

// LogLevels is the narrow view of the process' logging configuration used by the logging built-in.
type LogLevels interface {
	Level() int
	SetLevel(level int) error
	LevelName() string
}

// ValidLogLevel reports whether level is within [MinLogLevel] and [MaxLogLevel].
func ValidLogLevel(level int) bool {
	return level >= MinLogLevel && level <= MaxLogLevel
}

var levelNames = [...]string{"OFF", "CRITICAL", "CRITICAL", "ERROR", "WARNING", "INFO", "INFO", "DEBUG"}

// LevelName returns the conventional name of an RFC 5424 level.
func LevelName(level int) string {
	if !ValidLogLevel(level) {
		return "UNKNOWN"
	}
	return levelNames[level]
}

// memLevels is used by shells that aren't connected to a logging configuration.
type memLevels struct {
	level int
}

func (m *memLevels) Level() int {
	return m.level
}

func (m *memLevels) SetLevel(level int) error {
	if !ValidLogLevel(level) {
		return fmt.Errorf("%w: %d", ErrLogLevel, level)
	}
	m.level = level
	return nil
}

func (m *memLevels) LevelName() string {
	return LevelName(m.level)
}
