package speeddaemon

import (
	"log/slog"
	"sync"
)

const outboxSize = 1024

// An outbox writes messages to a dispatcher connection from its own goroutine, in the order they were queued.
// Tickets it could not write are handed to undelivered.
type outbox struct {
	conn *Conn
	ch   chan Message
	done chan struct{}

	mu     sync.Mutex
	closed bool
	failed bool

	undelivered func(*Ticket)
	logger      *slog.Logger
	metrics     *Metrics
}

func startOutbox(conn *Conn, undelivered func(*Ticket), logger *slog.Logger, metrics *Metrics) *outbox {
	o := &outbox{
		conn:        conn,
		ch:          make(chan Message, outboxSize),
		done:        make(chan struct{}),
		undelivered: undelivered,
		logger:      logger,
		metrics:     metrics,
	}
	go o.run()
	return o
}

// send queues m without blocking. It reports false if m was not queued: the outbox is closed or full, or a
// previous write failed.
func (o *outbox) send(m Message) bool {
	if o == nil {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || o.failed {
		return false
	}
	select {
	case o.ch <- m:
		return true
	default:
		o.logger.Warn("outbox full", "connection", o.conn.ID)
		return false
	}
}

func (o *outbox) run() {
	defer close(o.done)

	for m := range o.ch {
		if o.hasFailed() {
			o.giveBack(m)
			continue
		}
		if err := o.conn.WriteMessage(m); err != nil {
			o.logger.Warn("error writing to dispatcher", "connection", o.conn.ID, "err", err)
			o.mu.Lock()
			o.failed = true
			o.mu.Unlock()
			o.giveBack(m)
			continue
		}
		if t, ok := m.(*Ticket); ok {
			o.logger.Info("sent ticket", "connection", o.conn.ID, "road", t.Road, "plate", t.Plate, "speed", t.Speed)
			o.metrics.TicketsDelivered.Inc()
		}
	}
}

func (o *outbox) hasFailed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failed
}

func (o *outbox) giveBack(m Message) {
	if t, ok := m.(*Ticket); ok && o.undelivered != nil {
		o.undelivered(t)
	}
}

// close stops accepting messages and waits until the queued ones have been written or given back.
func (o *outbox) close() {
	if o == nil {
		return
	}
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.ch)
	}
	o.mu.Unlock()
	<-o.done
}
