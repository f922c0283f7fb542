package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/logger"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Client is the generic load-testing client.
// It depends ONLY on interfaces, not concrete implementations.
type Client struct {
	Resolver TargetResolver
	Dialer   Dialer
	Reporter Reporter
	Recorder Recorder

	Phrase          string
	Connections     int
	MaxPendingDials int
	DialRate        float64 // dials per second, 0 = unlimited
	ReadBufferSize  int

	// OnLaunched is called once every session has been started.
	OnLaunched func()
}

// Run starts Connections sessions against the resolved target and blocks
// until all of them have ended. Sessions end on peer close, I/O error or
// cancellation of ctx. A failing session never affects the others.
func (c *Client) Run(ctx context.Context) error {
	if c.Connections <= 0 {
		if c.OnLaunched != nil {
			c.OnLaunched()
		}
		return nil
	}
	if err := c.check(); err != nil {
		return err
	}

	addr, err := c.Resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve target: %w", err)
	}
	logger.Info("Launching sessions", "target", addr, "connections", c.Connections)

	recorder := c.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	payload := []byte(c.Phrase)

	pending := semaphore.NewWeighted(int64(max(c.MaxPendingDials, 1)))
	var limiter *rate.Limiter
	if c.DialRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.DialRate), max(c.MaxPendingDials, 1))
	}

	var wg sync.WaitGroup
	launched := 0
	for i := 0; i < c.Connections; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}
		if err := pending.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.runSession(ctx, id, addr, payload, recorder, pending)
		}(i)
		launched++
	}

	if launched == c.Connections {
		logger.Info("All sessions launched", "connections", launched)
		if c.OnLaunched != nil {
			c.OnLaunched()
		}
	} else {
		logger.Info("Launch interrupted", "launched", launched, "connections", c.Connections)
	}

	wg.Wait()
	return nil
}

func (c *Client) runSession(ctx context.Context, id int, addr string, payload []byte, recorder Recorder, pending *semaphore.Weighted) {
	log := logger.With("session", id)

	recorder.DialStarted()
	conn, err := c.Dialer.DialContext(ctx, "tcp", addr)
	pending.Release(1)
	if err != nil {
		recorder.DialFailed()
		if ctx.Err() == nil {
			log.Warn("Dial failed", "addr", addr, "error", err)
		}
		return
	}
	log.Debug("Connected", "local_addr", conn.LocalAddr(), "remote_addr", conn.RemoteAddr())

	bufSize := c.ReadBufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	NewSession(id, conn, c.Phrase, payload, bufSize, c.Reporter, recorder, log).Serve(ctx)
}

func (c *Client) check() error {
	switch {
	case c.Resolver == nil:
		return fmt.Errorf("client has no target resolver")
	case c.Dialer == nil:
		return fmt.Errorf("client has no dialer")
	case c.Reporter == nil:
		return fmt.Errorf("client has no reporter")
	case c.Phrase == "":
		return fmt.Errorf("client phrase must not be empty")
	}
	return nil
}
