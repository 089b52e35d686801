package cli

import (
	"fmt"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
)

type argKind int

const (
	stringArg argKind = iota
	intArg
)

type argSpec struct {
	name     string
	usage    string
	kind     argKind
	optional bool
}

func (a argSpec) metavar() string {
	return strings.ToUpper(a.name)
}

// Args holds the parsed flags and positional arguments of a single [Command] invocation.
type Args struct {
	flags  *flag.FlagSet
	values map[string]any
}

// Flags returns the parsed [flag.FlagSet]. A fresh set is created for every invocation.
func (a *Args) Flags() *flag.FlagSet {
	return a.flags
}

// Help reports whether one of the help flags was given.
func (a *Args) Help() bool {
	if a.flags == nil {
		return false
	}
	val, _ := a.flags.GetBool("help")
	return val
}

// Has reports whether the named positional was supplied.
func (a *Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// String returns the named positional, or an empty string if it wasn't supplied or isn't a string argument.
func (a *Args) String(name string) string {
	val, _ := a.values[name].(string)
	return val
}

// Int returns the named integer positional, or zero if it wasn't supplied or isn't an integer argument.
func (a *Args) Int(name string) int {
	val, _ := a.values[name].(int)
	return val
}

// Rest returns all positional arguments as given, before conversion.
func (a *Args) Rest() []string {
	if a.flags == nil {
		return nil
	}
	return a.flags.Args()
}

func parsePositionals(specs []argSpec, raw []string) (map[string]any, error) {
	values := make(map[string]any, len(specs))
	if len(raw) > len(specs) {
		return nil, fmt.Errorf("%w: unrecognized arguments: %s", ErrArgs, strings.Join(raw[len(specs):], " "))
	}
	var missing []string
	for i, spec := range specs {
		if i >= len(raw) {
			if !spec.optional {
				missing = append(missing, spec.metavar())
			}
			continue
		}
		switch spec.kind {
		case intArg:
			val, err := strconv.Atoi(raw[i])
			if err != nil {
				return nil, fmt.Errorf("%w: argument %s: invalid int value: '%s'", ErrArgs, spec.metavar(), raw[i])
			}
			values[spec.name] = val
		default:
			values[spec.name] = raw[i]
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: the following arguments are required: %s", ErrArgs, strings.Join(missing, ", "))
	}
	return values, nil
}
