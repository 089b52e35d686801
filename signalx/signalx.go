package signalx

import (
	"context"
	"os"
	"os/signal"

	"github.com/saylorsolutions/dccctl/cli"
)

// SignalCtx will set up a context that will be cancelled if any of the given signals are received.
func SignalCtx(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	if len(signals) == 0 {
		panic("no signals passed to SignalCtx")
	}
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, signals...)
	go func() {
		defer signal.Stop(sigs)
		defer cancel()
		select {
		case <-sigs:
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// SignalExitCtx will set up a context that will be cancelled if any of the given signals are received.
// If a second signal is received, then [os.Exit] will be called with a non-zero exit code.
func SignalExitCtx(parent context.Context, signals ...os.Signal) context.Context {
	if len(signals) == 0 {
		panic("no signals passed to SignalExitCtx")
	}
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, signals...)
	go func() {
		defer cancel()
		<-sigs
		cancel()
		<-sigs
		os.Exit(cli.ExitFailure)
	}()
	return ctx
}

// Interrupt creates a [cli.InterruptFunc] that cancels the dispatch context with [cli.ErrInterrupted] when any of signals is received.
// Signals are only caught while a command is running or the shell waits at its prompt, otherwise they keep their default behavior.
func Interrupt(signals ...os.Signal) cli.InterruptFunc {
	if len(signals) == 0 {
		panic("no signals passed to Interrupt")
	}
	return func(parent context.Context) (context.Context, context.CancelFunc) {
		return notify(parent, make(chan os.Signal, 1), signals...)
	}
}

func notify(parent context.Context, sigs chan os.Signal, signals ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	if len(signals) > 0 {
		signal.Notify(sigs, signals...)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-sigs:
			cancel(cli.ErrInterrupted)
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigs)
		cancel(context.Canceled)
		<-done
	}
}
