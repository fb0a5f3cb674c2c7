package speeddaemon

import "sync"

type plateDay struct {
	plate string
	day   uint32
}

// A TicketLedger remembers the days each car has been ticketed on.
//
// A car may receive at most one ticket per day, across all roads.
type TicketLedger struct {
	mu sync.Mutex

	ticketed map[plateDay]struct{}
}

func NewTicketLedger() *TicketLedger {
	return &TicketLedger{ticketed: make(map[plateDay]struct{})}
}

// Claim marks every day spanned by t as ticketed for t's plate and reports true, unless any of those days was
// already ticketed, in which case nothing is marked and it reports false.
func (l *TicketLedger) Claim(t *Ticket) bool {
	days := t.days()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, d := range days {
		if _, ok := l.ticketed[plateDay{plate: t.Plate, day: d}]; ok {
			return false
		}
	}
	for _, d := range days {
		l.ticketed[plateDay{plate: t.Plate, day: d}] = struct{}{}
	}
	return true
}
