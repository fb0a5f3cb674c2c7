package speeddaemon

import "slices"

// history returns a copy of the observations of plate on road.
func (s *ObservationStore) history(road uint16, plate string) []Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.histories[roadPlate{road: road, plate: plate}])
}

// isTicketed reports whether plate has been ticketed on day.
func (l *TicketLedger) isTicketed(plate string, day uint32) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.ticketed[plateDay{plate: plate, day: day}]
	return ok
}

// queued returns the tickets pending for road.
func (h *DispatcherHandler) queued(road uint16) []*Ticket {
	r := h.road(road)
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.pending)
}
