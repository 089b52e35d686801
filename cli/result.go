package cli

// Result is the outcome of a dispatched [Command].
type Result int

const (
	NotRun  Result = iota // NotRun is the result of a shell that hasn't dispatched anything yet.
	Success               // Success means the command ran to completion, or printed its help.
	Failure               // Failure covers parse errors, command errors, unknown commands, and interrupts.
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "none"
	}
}

// OK reports whether r is [Success].
func (r Result) OK() bool {
	return r == Success
}
