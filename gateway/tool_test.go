package gateway

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/saylorsolutions/dccctl/app"
	"github.com/saylorsolutions/dccctl/cli"
	"github.com/saylorsolutions/dccctl/dccpp"
	"github.com/stretchr/testify/assert"
)

type fakePort struct {
	bytes.Buffer
	closed bool
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func newTool(port *fakePort, opts ...Option) *Tool {
	opener := dccpp.WithOpener(func(string, int) (io.ReadWriteCloser, error) {
		return port, nil
	})
	return New(append([]Option{WithStationOptions(opener), WithShutdownTimeout(time.Second)}, opts...)...)
}

func TestTool_Serve(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if !assert.NoError(t, err) {
		return
	}
	port := &fakePort{}
	cmd := app.NewCommand(newTool(port, WithListener(l)))
	var logs bytes.Buffer
	cmd.SetArgs([]string{"-l", "6", "-p", "/dev/ttyTEST"})
	cmd.SetErr(&logs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan int, 1)
	go func() {
		done <- app.ExitCode(cmd, cmd.ExecuteContext(ctx))
	}()

	var resp *http.Response
	for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); time.Sleep(10 * time.Millisecond) {
		if resp, err = http.Get("http://" + l.Addr().String() + "/power/on"); err == nil {
			break
		}
	}
	if assert.NoError(t, err) {
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, cli.ExitSuccess, code, "A graceful shutdown is a success")
	case <-time.After(3 * time.Second):
		t.Fatal("Server should have stopped")
	}
	assert.Equal(t, "<1>", port.String())
	assert.True(t, port.closed, "The station must be disconnected during cleanup")
	assert.Contains(t, logs.String(), "Server stopped")
}

func TestTool_Args(t *testing.T) {
	port := &fakePort{}
	cmd := app.NewCommand(newTool(port))
	var logs bytes.Buffer
	cmd.SetArgs([]string{"power", "on"})
	cmd.SetErr(&logs)
	code := app.ExitCode(cmd, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, app.ExitUsage, code)
	assert.Contains(t, logs.String(), "unrecognized arguments")
	assert.Empty(t, port.String())
}

func TestTool_ListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if !assert.NoError(t, err) {
		return
	}
	defer func() { _ = l.Close() }()

	port := &fakePort{}
	cmd := app.NewCommand(newTool(port))
	var logs bytes.Buffer
	cmd.SetArgs([]string{"-p", "/dev/ttyTEST", "--listen", l.Addr().String()})
	cmd.SetErr(&logs)
	code := app.ExitCode(cmd, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, cli.ExitFailure, code)
	assert.Contains(t, logs.String(), "http server")
	assert.True(t, port.closed)
}

func TestTool_Flags(t *testing.T) {
	cmd := app.NewCommand(New())
	assert.Equal(t, DefaultListen, cmd.Flags().Lookup(KeyListen).DefValue)
	assert.Equal(t, dccpp.DefaultPort, cmd.Flags().Lookup(KeyPort).DefValue)
	assert.NotNil(t, cmd.Flags().Lookup(KeyOrigin))
	assert.Equal(t, "dcchttpd", New().Name())
	assert.Equal(t, "HTTP Server for DCC Commands", New().Description())
}
