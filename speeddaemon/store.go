package speeddaemon

import (
	"cmp"
	"slices"
	"sync"
)

type roadPlate struct {
	road  uint16
	plate string
}

// An ObservationStore indexes observations by road and plate, in timestamp order.
type ObservationStore struct {
	mu sync.Mutex

	histories map[roadPlate][]Observation
}

func NewObservationStore() *ObservationStore {
	return &ObservationStore{histories: make(map[roadPlate][]Observation)}
}

// Record inserts o into the history of its road and plate and returns a copy of that history, o included.
//
// Observations may arrive in any order; the history is kept sorted by timestamp.
func (s *ObservationStore) Record(o Observation) []Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := roadPlate{road: o.Road, plate: o.Plate}
	history := s.histories[key]
	i, _ := slices.BinarySearchFunc(history, o.Timestamp, func(e Observation, ts uint32) int {
		return cmp.Compare(e.Timestamp, ts)
	})
	history = slices.Insert(history, i, o)
	s.histories[key] = history

	return slices.Clone(history)
}
