package dccsh

import (
	"context"
	"errors"
	"fmt"

	"github.com/saylorsolutions/dccctl/cli"
	"github.com/saylorsolutions/dccctl/dccpp"
	flag "github.com/spf13/pflag"
)

const (
	Name        = "dccpp"
	Description = "DCC++ Command Line Interface"

	// StationKey is the shell resource holding the *dccpp.Station.
	StationKey = "station"

	// throttleRegister is the register used for all throttle commands.
	throttleRegister = 1
)

// SetStation attaches st to sh as the station all commands talk to.
func SetStation(sh *cli.Shell, st *dccpp.Station) {
	sh.Put(StationKey, st)
}

// Station returns the station attached to sh.
func Station(sh *cli.Shell) (*dccpp.Station, bool) {
	st, ok := cli.Lookup[*dccpp.Station](sh, StationKey)
	return st, ok && st != nil
}

// requireStation is a pre-run hook that vetoes commands without a connected station.
func requireStation(_ context.Context, inv *cli.Invocation) error {
	st, ok := Station(inv.Shell)
	if !ok || !st.Connected() {
		return dccpp.ErrNotConnected
	}
	inv.Value = st
	return nil
}

func station(inv *cli.Invocation) *dccpp.Station {
	return inv.Value.(*dccpp.Station)
}

// usage turns range errors into a [cli.UsageError], so the command help is shown.
func usage(err error) error {
	if errors.Is(err, dccpp.ErrRange) {
		return cli.NewUsageError("%w", err)
	}
	return err
}

// NewShell creates the dccpp command set, including the prog sub-shell.
// Use [SetStation] to connect it to a station.
func NewShell() *cli.Shell {
	sh := cli.NewShell(Name).Describe(Description)

	sh.AddCommand("throttle", "Control the speed of a CAB", "t").
		IntArg("cab", "Address of the engine decoder").
		IntArg("speed", fmt.Sprintf("Throttle speed from -%d to %d", dccpp.MaxSpeed, dccpp.MaxSpeed)).
		PreRun(requireStation).
		Does(func(_ context.Context, inv *cli.Invocation) error {
			return usage(station(inv).Throttle(throttleRegister, inv.Args.Int("cab"), inv.Args.Int("speed")))
		})

	sh.AddCommand("point", "Control a point", "p").
		IntArg("point", "Address of the point").
		IntArg("state", "Point: 0: unthrown, 1: thrown").
		PreRun(requireStation).
		Does(func(_ context.Context, inv *cli.Invocation) error {
			return usage(station(inv).Turnout(inv.Args.Int("point"), inv.Args.Int("state")))
		})

	sh.AddCommand("light", "Control the lights of a CAB").
		IntArg("cab", "Address of the engine decoder").
		IntArg("state", "Light: 0: off, 1: on").
		PreRun(requireStation).
		Does(func(_ context.Context, inv *cli.Invocation) error {
			return station(inv).Light(inv.Args.Int("cab"), inv.Args.Int("state") != 0)
		})

	sh.AddCommand("on", "Turn on the main power for all tracks").
		PreRun(requireStation).
		Does(func(_ context.Context, inv *cli.Invocation) error {
			return station(inv).PowerOn()
		})

	sh.AddCommand("off", "Turn off the main power for all tracks").
		PreRun(requireStation).
		Does(func(_ context.Context, inv *cli.Invocation) error {
			return station(inv).PowerOff()
		})

	sh.AddCommand("status", "Request the status of the DCC++ station").
		PreRun(requireStation).
		Does(func(_ context.Context, inv *cli.Invocation) error {
			return station(inv).Status()
		})

	sh.AddCommand("info", "Print information about the current connected DCC++").
		Does(printInfo)

	if err := sh.AddShell(newProgShell()); err != nil {
		panic(err)
	}
	return sh
}

func printInfo(_ context.Context, inv *cli.Invocation) error {
	st, ok := Station(inv.Shell)
	connected := ok && st.Connected()
	inv.Printer().Printf("Connected:  %t\n", connected)
	if !connected {
		return nil
	}
	inv.Printer().Printf("Interface:  %s (%d)\n", st.Port(), st.Baud())
	return st.Status()
}

func newProgShell() *cli.Shell {
	sh := cli.NewShell("prog").
		Describe(`Programming commands for decoder configuration variables

Without --addr, CVs are written on the programming track.
Otherwise the decoder with that address is programmed on the main track.
Flags go before the arguments, like "write --addr 3 29 6".`).
		SetPrompt(Name + " prog>>> ").
		OnAdopt(func(child, parent *cli.Shell) error {
			st, ok := Station(parent)
			if !ok {
				return dccpp.ErrNotConnected
			}
			SetStation(child, st)
			return nil
		})

	sh.AddCommand("write", "Write a configuration variable", "w").
		WithFlags(func(fs *flag.FlagSet) {
			fs.IntP("addr", "a", 0, "Address of the decoder on the main track")
		}).
		IntArg("cv", "Number of the configuration variable").
		IntArg("value", "Value to write, from 0 to 255").
		PreRun(requireStation).
		Does(func(_ context.Context, inv *cli.Invocation) error {
			value := inv.Args.Int("value")
			if value < 0 || value > 255 {
				return cli.NewUsageError("value %d must be from 0 to 255", value)
			}
			addr := cli.MustGet(inv.Args.Flags().GetInt("addr"))
			return station(inv).WriteCV(inv.Args.Int("cv"), value, addr)
		})

	sh.AddCommand("info", "Print information about the current connected DCC++").
		Does(printInfo)
	return sh
}
