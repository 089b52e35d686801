package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// LineReader is the blocking input source of a [Shell]'s interactive loop.
// ReadLine returns [io.EOF] at end of input and [ErrInterrupted] when the user aborted the prompt.
// When ctx is done before a line is read, the cause of ctx is returned.
type LineReader interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

type readResult struct {
	line string
	err  error
}

// pendingRead runs a blocking read in the background, so the caller can stop waiting for it.
// A read that was given up on is picked up by the next call instead of starting another one.
type pendingRead struct {
	result chan readResult
}

func (p *pendingRead) read(ctx context.Context, start func(), read func() (string, error)) (string, error) {
	if err := context.Cause(ctx); err != nil {
		return "", err
	}
	if p.result == nil {
		start()
		result := make(chan readResult, 1)
		p.result = result
		go func() {
			line, err := read()
			result <- readResult{line: line, err: err}
		}()
	}
	select {
	case res := <-p.result:
		p.result = nil
		return res.line, res.err
	case <-ctx.Done():
		return "", context.Cause(ctx)
	}
}

type scanReader struct {
	scanner *bufio.Scanner
	out     *Printer
	pending pendingRead
}

// NewScanReader reads lines from r, writing the prompt to out.
func NewScanReader(r io.Reader, out *Printer) LineReader {
	return &scanReader{scanner: bufio.NewScanner(r), out: out}
}

func (s *scanReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	return s.pending.read(ctx, func() {
		s.out.Print(prompt)
	}, s.scan)
}

func (s *scanReader) scan() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// TerminalReader provides line editing and history with [liner].
type TerminalReader struct {
	state       *liner.State
	historyFile string
	pending     pendingRead
}

// NewTerminalReader creates a [TerminalReader], loading history from historyFile if it's not empty.
// The caller must call Close to restore the terminal.
func NewTerminalReader(historyFile string) *TerminalReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	r := &TerminalReader{state: state, historyFile: historyFile}
	if len(historyFile) > 0 {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}
	return r
}

// ReadLine prompts on the terminal. If ctx is done first, the prompt stays open and its line is returned by the next call.
func (r *TerminalReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	line, err := r.pending.read(ctx, func() {}, func() (string, error) {
		return r.state.Prompt(prompt)
	})
	switch {
	case errors.Is(err, liner.ErrPromptAborted):
		return "", ErrInterrupted
	case err != nil:
		return "", err
	}
	if len(strings.TrimSpace(line)) > 0 {
		r.state.AppendHistory(line)
	}
	return line, nil
}

// Close persists history and restores the terminal mode.
func (r *TerminalReader) Close() error {
	if len(r.historyFile) > 0 {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = r.state.WriteHistory(f)
			_ = f.Close()
		}
	}
	return r.state.Close()
}

// IsTerminal reports whether f is connected to a terminal, which is when a [TerminalReader] should be used.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
