package chat

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomchat/internal/configs"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 30, 0, time.Local)

func testConfig() *configs.AppConfig {
	return configs.Default()
}

func newTestManager(t *testing.T, cfg *configs.AppConfig) *Manager {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	m := NewManager(cfg)
	m.now = func() time.Time { return fixedTime }
	return m
}

// recorder is a Member that keeps every delivered line.
type recorder struct {
	name  string
	mu    sync.Mutex
	lines []string
}

func newRecorder(name string) *recorder {
	return &recorder{name: name}
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Deliver(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}

func register(t *testing.T, m *Manager, name string) *recorder {
	t.Helper()
	r := newRecorder(name)
	require.Nil(t, m.Register(name, r))
	return r
}

// fakeConn is an in-memory Conn. Lines pushed to in are read by the session;
// written lines are recorded. With blockWrites set, WriteLine hangs until Close.
// With closeGate set, Close hangs until the gate is closed.
type fakeConn struct {
	in          chan string
	closed      chan struct{}
	closeOnce   sync.Once
	blockWrites bool
	closeGate   chan struct{}

	mu  sync.Mutex
	out []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan string, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadLine() (string, error) {
	select {
	case line := <-c.in:
		return line, nil
	case <-c.closed:
		return "", net.ErrClosed
	}
}

func (c *fakeConn) WriteLine(line string) error {
	if c.blockWrites {
		<-c.closed
		return net.ErrClosed
	}

	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, line)
	return nil
}

func (c *fakeConn) Close() error {
	if c.closeGate != nil {
		<-c.closeGate
	}
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "192.0.2.10:5000" }

func (c *fakeConn) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.out...)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) count(substr string) int {
	n := 0
	for _, line := range c.Lines() {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func (c *fakeConn) waitFor(t *testing.T, substr string) {
	t.Helper()
	assert.Eventually(t, func() bool { return c.count(substr) > 0 }, 2*time.Second, 5*time.Millisecond,
		"line containing %q not written; got %q", substr, c.Lines())
}

// serve starts a session for conn and returns a channel closed when it finishes.
func serve(m *Manager, conn Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.ServeConn(conn)
	}()
	return done
}

// login starts a session on a fresh fakeConn and completes the handshake as name.
func login(t *testing.T, m *Manager, name string) (*fakeConn, <-chan struct{}) {
	t.Helper()
	c := newFakeConn()
	done := serve(m, c)
	c.in <- name
	c.waitFor(t, "Welcome, "+name+"! You are now connected.")
	return c, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
}
