package dccpp

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakePort records everything written to it.
type fakePort struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	closed   bool
	writeErr error
}

func (p *fakePort) Read(_ []byte) (int, error) {
	return 0, io.EOF
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.buf.Write(data)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

func connected(t *testing.T) (*Station, *fakePort) {
	t.Helper()
	port := &fakePort{}
	st := New("/dev/ttyTEST", 0, WithOpener(func(name string, baud int) (io.ReadWriteCloser, error) {
		assert.Equal(t, "/dev/ttyTEST", name)
		assert.Equal(t, DefaultBaud, baud)
		return port, nil
	}))
	assert.NoError(t, st.Connect())
	return st, port
}

func TestFrame(t *testing.T) {
	assert.Equal(t, "<s>", Frame("s"))
	assert.Equal(t, "<t 1 3 100 1>", Frame("t", 1, 3, 100, 1))
}

func TestStation_Commands(t *testing.T) {
	tests := map[string]struct {
		send     func(st *Station) error
		expected string
		err      error
	}{
		"Status":            {send: (*Station).Status, expected: "<s>"},
		"Power on":          {send: (*Station).PowerOn, expected: "<1>"},
		"Power off":         {send: (*Station).PowerOff, expected: "<0>"},
		"Power true":        {send: func(st *Station) error { return st.Power(true) }, expected: "<1>"},
		"Power false":       {send: func(st *Station) error { return st.Power(false) }, expected: "<0>"},
		"Throttle forward":  {send: func(st *Station) error { return st.Throttle(1, 3, 100) }, expected: "<t 1 3 100 1>"},
		"Throttle reverse":  {send: func(st *Station) error { return st.Throttle(1, 3, -20) }, expected: "<t 1 3 20 0>"},
		"Throttle stop":     {send: func(st *Station) error { return st.Throttle(1, 3, 0) }, expected: "<t 1 3 0 1>"},
		"Throttle too fast": {send: func(st *Station) error { return st.Throttle(1, 3, 127) }, err: ErrRange},
		"Function":          {send: func(st *Station) error { return st.Function(3, 130) }, expected: "<f 3 130>"},
		"Light on":          {send: func(st *Station) error { return st.Light(3, true) }, expected: "<f 3 144>"},
		"Light off":         {send: func(st *Station) error { return st.Light(3, false) }, expected: "<f 3 128>"},
		"Turnout thrown":    {send: func(st *Station) error { return st.Turnout(12, 1) }, expected: "<a 12 0 1>"},
		"Turnout invalid":   {send: func(st *Station) error { return st.Turnout(12, 2) }, err: ErrRange},
		"Write service":     {send: func(st *Station) error { return st.WriteCV(1, 3, 0) }, expected: "<W 1 3 0 0>"},
		"Write main":        {send: func(st *Station) error { return st.WriteCV(29, 6, 3) }, expected: "<w 3 29 6>"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			st, port := connected(t)
			err := tc.send(st)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.Empty(t, port.String())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, port.String())
		})
	}
}

func TestStation_NotConnected(t *testing.T) {
	st := New("", 0)
	assert.Equal(t, DefaultPort, st.Port())
	assert.Equal(t, DefaultBaud, st.Baud())
	assert.False(t, st.Connected())
	assert.ErrorIs(t, st.Status(), ErrNotConnected)
	assert.ErrorIs(t, st.Throttle(1, 3, 10), ErrNotConnected)
	assert.NoError(t, st.Disconnect(), "Disconnecting twice is fine")
}

func TestStation_Lifecycle(t *testing.T) {
	st, port := connected(t)
	assert.True(t, st.Connected())
	assert.NoError(t, st.Connect(), "Connecting twice only warns")
	assert.Contains(t, st.String(), "connected=true")
	assert.NoError(t, st.Disconnect())
	assert.True(t, port.closed)
	assert.False(t, st.Connected())
	assert.ErrorIs(t, st.PowerOn(), ErrNotConnected)
}

func TestStation_WriteError(t *testing.T) {
	st, port := connected(t)
	port.writeErr = errors.New("device unplugged")
	assert.ErrorContains(t, st.PowerOn(), "device unplugged")
}

func TestStation_AutoPort(t *testing.T) {
	var opened string
	opener := WithOpener(func(name string, _ int) (io.ReadWriteCloser, error) {
		opened = name
		return &fakePort{}, nil
	})
	glob := WithGlob(func(pattern string) ([]string, error) {
		if pattern == "/dev/ttyUSB*" {
			return []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, nil
		}
		return nil, nil
	})
	st := New(DefaultPort, 9600, opener, glob)
	assert.NoError(t, st.Connect())
	assert.Equal(t, "/dev/ttyUSB0", opened)
	assert.Equal(t, "/dev/ttyUSB0", st.Port())

	none := New(DefaultPort, 0, opener, WithGlob(func(string) ([]string, error) { return nil, nil }))
	err := none.Connect()
	assert.ErrorIs(t, err, ErrNoPort)
	assert.ErrorIs(t, err, ErrConnect)
	assert.False(t, none.Connected())
}

func TestStation_OpenError(t *testing.T) {
	st := New("/dev/missing", 0, WithOpener(func(string, int) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such file or directory")
	}))
	err := st.Connect()
	assert.ErrorIs(t, err, ErrConnect)
	assert.ErrorContains(t, err, "no such file or directory")
	assert.Equal(t, "/dev/missing", st.Port())
}

func TestStation_Concurrent(t *testing.T) {
	st, port := connected(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, st.Status())
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, bytes.Count([]byte(port.String()), []byte("<s>")))
}
