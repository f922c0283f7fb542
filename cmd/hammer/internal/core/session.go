package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// SessionState is the position of a session in its echo cycle.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAwaitingReply
	StateStalled
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateStalled:
		return "stalled"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session owns one connection and runs the write/check cycle on it.
// The phrase is shared read-only with every other session.
type Session struct {
	ID int

	conn     net.Conn
	phrase   string
	payload  []byte
	bufSize  int
	reporter Reporter
	recorder Recorder
	decoder  *encoding.Decoder
	log      *slog.Logger
	state    atomic.Int32
}

// NewSession wraps an established connection. payload must hold the
// phrase encoded as UTF-8 and is never modified.
func NewSession(id int, conn net.Conn, phrase string, payload []byte, bufSize int, reporter Reporter, recorder Recorder, log *slog.Logger) *Session {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		ID:       id,
		conn:     conn,
		phrase:   phrase,
		payload:  payload,
		bufSize:  bufSize,
		reporter: reporter,
		recorder: recorder,
		decoder:  unicode.UTF8.NewDecoder(),
		log:      log,
	}
}

// State reports the current session state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Serve writes the phrase, then answers every matching reply with the
// phrase again until the peer closes, an I/O error occurs or ctx is
// cancelled. The connection is closed on return.
func (s *Session) Serve(ctx context.Context) {
	s.recorder.Connected()
	defer s.close()

	// Unblocks the pending Read on cancellation.
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	s.state.Store(int32(StateAwaitingReply))
	if err := s.write(); err != nil {
		s.logIOError(ctx, "Initial write failed", err)
		return
	}

	buf := make([]byte, s.bufSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			if werr := s.handleChunk(buf[:n]); werr != nil {
				s.logIOError(ctx, "Write failed", werr)
				return
			}
		}
		if err != nil {
			s.logIOError(ctx, "Read failed", err)
			return
		}
	}
}

// handleChunk checks one received chunk. A matching chunk is answered with
// exactly one write. A mismatch is reported and stalls the session: no
// write ever follows it.
func (s *Session) handleChunk(chunk []byte) error {
	reply := s.decode(chunk)

	if !strings.HasPrefix(reply, s.phrase) {
		s.reporter.Report(reply, s.phrase)
		s.recorder.Mismatch()
		if s.State() != StateStalled {
			s.state.Store(int32(StateStalled))
			s.log.Debug("Session stalled after mismatch")
		}
		return nil
	}

	if s.State() == StateStalled {
		return nil
	}

	s.recorder.RoundTrip()
	return s.write()
}

func (s *Session) write() error {
	_, err := s.conn.Write(s.payload)
	return err
}

// decode turns a chunk into text, replacing malformed UTF-8 with U+FFFD.
func (s *Session) decode(chunk []byte) string {
	out, err := s.decoder.Bytes(chunk)
	if err != nil {
		return strings.ToValidUTF8(string(chunk), "\uFFFD")
	}
	return string(out)
}

func (s *Session) logIOError(ctx context.Context, msg string, err error) {
	switch {
	case ctx.Err() != nil, errors.Is(err, net.ErrClosed):
		s.log.Debug(msg, "error", err)
	case errors.Is(err, io.EOF):
		s.log.Info("Connection closed by server")
	default:
		s.log.Warn(msg, "error", err)
	}
}

func (s *Session) close() {
	s.state.Store(int32(StateClosed))
	s.conn.Close()
	s.recorder.Closed()
}
