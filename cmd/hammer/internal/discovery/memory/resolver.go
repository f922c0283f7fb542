package memory

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/core"
)

// Resolver returns a fixed host:port target.
type Resolver struct {
	addr string
}

// NewResolver creates a static resolver for host and port.
func NewResolver(host string, port int) (*Resolver, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: empty host", core.ErrTargetNotFound)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", port)
	}
	return &Resolver{addr: net.JoinHostPort(host, strconv.Itoa(port))}, nil
}

func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	return r.addr, nil
}
