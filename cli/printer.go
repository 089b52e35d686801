package cli

import (
	"fmt"
	"io"
	"os"
)

// Printer is the single output stream owned by a [Shell].
// Help text, prompts, and command output must all go through it so they can be captured.
type Printer struct {
	out io.Writer
}

func NewPrinter() *Printer {
	return &Printer{out: os.Stdout}
}

func (p *Printer) Redirect(writer io.Writer) {
	p.out = writer
}

// Writer exposes the underlying [io.Writer], for libraries that want to write directly.
func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) Print(msg ...any) {
	_, _ = fmt.Fprint(p.out, msg...)
}

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Println(msg ...any) {
	_, _ = fmt.Fprintln(p.out, msg...)
}
