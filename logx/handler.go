package logx

import (
	"context"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var _ slog.Handler = (*levelHandler)(nil)

// levelHandler gates records with a shared [Levels].
// Loggers derived with attributes or groups keep following level changes.
type levelHandler struct {
	levels *Levels
	impl   slog.Handler
}

// NewHandler wraps impl so that only records enabled by levels are handled.
func NewHandler(levels *Levels, impl slog.Handler) slog.Handler {
	if levels == nil {
		panic("nil levels")
	}
	if impl == nil {
		panic("nil implementing handler")
	}
	return &levelHandler{levels: levels, impl: impl}
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.levels.Slog() && h.impl.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.impl.Handle(ctx, record)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return &levelHandler{levels: h.levels, impl: h.impl.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	if len(name) == 0 {
		return h
	}
	return &levelHandler{levels: h.levels, impl: h.impl.WithGroup(name)}
}

// Styles returns the level colours used for terminal output.
func Styles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels[log.FatalLevel] = lipgloss.NewStyle().
		SetString("CRITICAL").
		Bold(true).
		Background(lipgloss.Color("1")).
		Foreground(lipgloss.Color("15"))
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Bold(true).
		Foreground(lipgloss.Color("1"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARNING").
		Foreground(lipgloss.Color("202"))
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Foreground(lipgloss.Color("76"))
	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBUG").
		Foreground(lipgloss.Color("8"))
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styles.Values["error"] = lipgloss.NewStyle().Bold(true)
	return styles
}

// New creates a [slog.Logger] writing coloured, timestamp free records to w.
// The charm logger itself logs everything, filtering is done by levels.
func New(w io.Writer, levels *Levels) *slog.Logger {
	charm := log.NewWithOptions(w, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: false,
	})
	charm.SetStyles(Styles())
	return slog.New(NewHandler(levels, charm))
}
