package speeddaemon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Conn is a client connection. Writes are safe for concurrent use: tickets for a dispatcher are written by its
// outbox, and heartbeats from their own goroutine.
type Conn struct {
	// mu protects concurrent write access.
	mu sync.Mutex

	net.Conn
	ID           uint64
	WriteTimeout time.Duration
	Heartbeat    *Heartbeat

	outbox *outbox
}

// WriteMessage encodes m and writes it to the client.
// A failed write may leave part of m on the stream, so the connection is closed.
func (c *Conn) WriteMessage(m Message) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.WriteTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.WriteTimeout)); err != nil {
			return fmt.Errorf("error setting write deadline: %w", err)
		}
	}
	if _, err := c.Conn.Write(data); err != nil {
		_ = c.Conn.Close()
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

const Decisecond = 100 * time.Millisecond

// Heartbeat sends Heartbeat messages to a client at a fixed interval until stopped.
type Heartbeat struct {
	Interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// beginHeartbeat starts sending heartbeats every interval deciseconds. An interval of 0 records the request
// without sending anything.
func beginHeartbeat(ctx context.Context, conn *Conn, interval uint32, logger *slog.Logger, metrics *Metrics) *Heartbeat {
	ctx, cancel := context.WithCancel(ctx)
	h := &Heartbeat{
		Interval: time.Duration(interval) * Decisecond,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	if interval == 0 {
		close(h.done)
		return h
	}

	go func() {
		defer close(h.done)
		heartbeat(ctx, conn, h.Interval, logger, metrics)
	}()
	return h
}

func heartbeat(ctx context.Context, conn *Conn, interval time.Duration, logger *slog.Logger, metrics *Metrics) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(&HeartbeatMessage{}); err != nil {
				logger.Warn("error writing heartbeat", "err", err)
				return
			}
			metrics.Heartbeats.Inc()
		}
	}
}

// Stop stops the heartbeat and waits until no further heartbeat can be written.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
