package speeddaemon

import "log/slog"

// A CameraHandler records the observations reported by cameras and issues tickets for the speeding cars.
type CameraHandler struct {
	Observations *ObservationStore
	Tickets      *TicketLedger
	Dispatchers  *DispatcherHandler

	logger  *slog.Logger
	metrics *Metrics
}

func NewCameraHandler(dispatchers *DispatcherHandler, logger *slog.Logger, metrics *Metrics) *CameraHandler {
	return &CameraHandler{
		Observations: NewObservationStore(),
		Tickets:      NewTicketLedger(),
		Dispatchers:  dispatchers,
		logger:       logger,
		metrics:      metrics,
	}
}

// RecordPlate records that camera c observed m.Plate at m.Timestamp and sends a ticket for every new violation
// the car has not already been ticketed for on the days involved.
func (h *CameraHandler) RecordPlate(c Camera, m *PlateMessage) {
	o := Observation{Plate: m.Plate, Road: c.Road, Mile: c.Mile, Timestamp: m.Timestamp}
	history := h.Observations.Record(o)
	// Counted once the observation is fully processed.
	defer h.metrics.Observations.Inc()

	for _, t := range detectViolations(o, history, c.Limit) {
		// Days are claimed before sending; a failed send does not release them.
		if !h.Tickets.Claim(t) {
			h.logger.Debug("car already ticketed", "plate", t.Plate, "road", t.Road, "day1", Day(t.Timestamp1), "day2", Day(t.Timestamp2))
			h.metrics.TicketsDiscarded.Inc()
			continue
		}
		h.logger.Info("issued ticket", "plate", t.Plate, "road", t.Road,
			"mile1", t.Mile1, "timestamp1", t.Timestamp1, "mile2", t.Mile2, "timestamp2", t.Timestamp2, "speed", t.Speed)
		h.metrics.TicketsIssued.Inc()
		h.Dispatchers.SendTicket(t)
	}
}
