package core

import (
	"context"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/logger"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard, false)
	os.Exit(m.Run())
}

type staticResolver struct {
	addr  string
	err   error
	calls atomic.Int64
}

func (r *staticResolver) Resolve(ctx context.Context) (string, error) {
	r.calls.Add(1)
	return r.addr, r.err
}

type recordingReporter struct {
	mu    sync.Mutex
	lines [][2]string
}

func (r *recordingReporter) Report(reply, phrase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, [2]string{reply, phrase})
}

func (r *recordingReporter) Lines() [][2]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]string(nil), r.lines...)
}

type countingRecorder struct {
	dials, dialFailures, connected, roundTrips, mismatches, closed atomic.Int64
}

func (c *countingRecorder) DialStarted() { c.dials.Add(1) }
func (c *countingRecorder) DialFailed()  { c.dialFailures.Add(1) }
func (c *countingRecorder) Connected()   { c.connected.Add(1) }
func (c *countingRecorder) RoundTrip()   { c.roundTrips.Add(1) }
func (c *countingRecorder) Mismatch()    { c.mismatches.Add(1) }
func (c *countingRecorder) Closed()      { c.closed.Add(1) }

// testServer is an in-process TCP server running handle for every
// accepted connection.
type testServer struct {
	ln       net.Listener
	accepted atomic.Int64
	received atomic.Int64 // bytes, when the handler reports them

	mu    sync.Mutex
	conns []net.Conn
	wg    sync.WaitGroup
}

func startServer(t *testing.T, listen func() (net.Listener, error), handle func(s *testServer, conn net.Conn)) *testServer {
	t.Helper()
	if listen == nil {
		listen = func() (net.Listener, error) { return net.Listen("tcp", "127.0.0.1:0") }
	}
	ln, err := listen()
	require.NoError(t, err)

	s := &testServer{ln: ln}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.accepted.Add(1)
			s.mu.Lock()
			s.conns = append(s.conns, conn)
			s.mu.Unlock()

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer conn.Close()
				handle(s, conn)
			}()
		}
	}()

	t.Cleanup(func() {
		ln.Close()
		s.mu.Lock()
		for _, c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
	})
	return s
}

func (s *testServer) Addr() string {
	return s.ln.Addr().String()
}

// echoHandler writes back everything it reads.
func echoHandler(s *testServer, conn net.Conn) {
	io.Copy(conn, conn)
}

// replyHandler answers every chunk with a fixed reply and counts the bytes
// it received.
func replyHandler(reply string) func(s *testServer, conn net.Conn) {
	return func(s *testServer, conn net.Conn) {
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				s.received.Add(int64(n))
				if _, werr := conn.Write([]byte(reply)); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}

func newClient(addr string, connections int, reporter Reporter, recorder Recorder) *Client {
	return &Client{
		Resolver:        &staticResolver{addr: addr},
		Dialer:          &net.Dialer{},
		Reporter:        reporter,
		Recorder:        recorder,
		Phrase:          "hello world",
		Connections:     connections,
		MaxPendingDials: 16,
		ReadBufferSize:  4096,
	}
}

// runAsync starts c.Run and returns a channel receiving its result.
func runAsync(ctx context.Context, c *Client) <-chan error {
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	return done
}
