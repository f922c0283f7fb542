package core

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
)

// ErrTargetNotFound is wrapped by resolvers when the target does not exist.
var ErrTargetNotFound = errors.New("target not found")

// TargetResolver defines how to find the address sessions dial.
// It is purely a lookup mechanism and knows nothing about sessions.
type TargetResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Dialer opens the transport connection for one session.
// *net.Dialer and *tls.Dialer both satisfy it.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// TLSProvider defines how to build the client TLS configuration.
// It abstracts away the storage mechanism (File, K8s Secret, none).
type TLSProvider interface {
	ClientConfig(ctx context.Context) (*tls.Config, error)
}

// Reporter receives mismatch diagnostics.
type Reporter interface {
	Report(reply, phrase string)
}

// Recorder receives session lifecycle events for accounting.
type Recorder interface {
	DialStarted()
	DialFailed()
	Connected()
	RoundTrip()
	Mismatch()
	Closed()
}

type nopRecorder struct{}

func (nopRecorder) DialStarted() {}
func (nopRecorder) DialFailed()  {}
func (nopRecorder) Connected()   {}
func (nopRecorder) RoundTrip()   {}
func (nopRecorder) Mismatch()    {}
func (nopRecorder) Closed()      {}
