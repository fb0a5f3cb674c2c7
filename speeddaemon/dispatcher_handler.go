package speeddaemon

import (
	"log/slog"
	"slices"
	"sync"
)

// roadDispatch is the dispatch state of a single road.
// mu makes registration, deregistration, delivery and queue flushes mutually exclusive per road.
type roadDispatch struct {
	mu sync.Mutex

	// dispatchers are in registration order. Tickets go to the first one whose outbox accepts them.
	dispatchers []*Conn
	pending     []*Ticket
}

// A DispatcherHandler routes tickets to the dispatchers responsible for each road, queueing them while a road
// has no dispatcher.
type DispatcherHandler struct {
	mu    sync.Mutex
	roads map[uint16]*roadDispatch

	logger  *slog.Logger
	metrics *Metrics
}

func NewDispatcherHandler(logger *slog.Logger, metrics *Metrics) *DispatcherHandler {
	return &DispatcherHandler{
		roads:   make(map[uint16]*roadDispatch),
		logger:  logger,
		metrics: metrics,
	}
}

func (h *DispatcherHandler) road(id uint16) *roadDispatch {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.roads[id]
	if !ok {
		r = &roadDispatch{}
		h.roads[id] = r
	}
	return r
}

// Register makes conn a dispatcher for the roads of d and queues the tickets pending for those roads on its
// outbox, oldest first.
func (h *DispatcherHandler) Register(conn *Conn, d TicketDispatcher) {
	if conn.outbox == nil {
		conn.outbox = startOutbox(conn, h.SendTicket, h.logger, h.metrics)
	}
	for _, id := range distinct(d.Roads) {
		r := h.road(id)
		r.mu.Lock()
		r.dispatchers = append(r.dispatchers, conn)
		h.sendQueuedTickets(id, r, conn)
		r.mu.Unlock()
	}
}

// sendQueuedTickets must be called with r.mu held.
func (h *DispatcherHandler) sendQueuedTickets(id uint16, r *roadDispatch, conn *Conn) {
	if len(r.pending) == 0 {
		return
	}
	h.logger.Debug("sending queued tickets", "road", id, "count", len(r.pending), "connection", conn.ID)

	for i, t := range r.pending {
		if !conn.outbox.send(t) {
			h.logger.Warn("dispatcher not accepting queued tickets", "road", id, "connection", conn.ID, "remaining", len(r.pending)-i)
			r.pending = r.pending[i:]
			return
		}
	}
	r.pending = nil
}

// Deregister removes conn from the roads of d and closes its outbox. Tickets the outbox could not write are
// sent again to the remaining dispatchers, or queued.
func (h *DispatcherHandler) Deregister(conn *Conn, d TicketDispatcher) {
	for _, id := range distinct(d.Roads) {
		r := h.road(id)
		r.mu.Lock()
		r.dispatchers = slices.DeleteFunc(r.dispatchers, func(c *Conn) bool { return c == conn })
		r.mu.Unlock()
	}
	conn.outbox.close()
}

// SendTicket hands t to the first dispatcher for its road that accepts it, or queues it if there is none.
// It never waits on the network.
func (h *DispatcherHandler) SendTicket(t *Ticket) {
	r := h.road(t.Road)
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dispatcher := range r.dispatchers {
		if dispatcher.outbox.send(t) {
			h.logger.Debug("ticket handed to dispatcher", "connection", dispatcher.ID, "road", t.Road, "plate", t.Plate)
			return
		}
	}

	r.pending = append(r.pending, t)
	h.logger.Debug("no dispatchers for road, queueing ticket", "road", t.Road, "plate", t.Plate, "speed", t.Speed)
	h.metrics.TicketsQueued.Inc()
}

func distinct(roads []uint16) []uint16 {
	roads = slices.Clone(roads)
	slices.Sort(roads)
	return slices.Compact(roads)
}
