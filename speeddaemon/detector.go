package speeddaemon

import "math"

// speedTolerance is how far above the limit a car may travel before it is ticketed, in miles per hour.
const speedTolerance = 0.5

// detectViolations pairs o with every other observation in history and returns a ticket for each pair whose
// average speed exceeds limit. history is the timestamp-ordered history of o's road and plate and may contain o.
//
// Every pair is checked, not only neighbours of o: once observations arrive out of order the fastest pair
// need not be adjacent.
func detectViolations(o Observation, history []Observation, limit uint16) []*Ticket {
	var tickets []*Ticket
	for _, other := range history {
		if other.Timestamp == o.Timestamp {
			continue
		}

		earlier, later := other, o
		if o.Timestamp < other.Timestamp {
			earlier, later = o, other
		}

		mph := averageSpeed(earlier, later)
		if mph <= float64(limit)+speedTolerance {
			continue
		}
		tickets = append(tickets, &Ticket{
			Plate:      o.Plate,
			Road:       o.Road,
			Mile1:      earlier.Mile,
			Timestamp1: earlier.Timestamp,
			Mile2:      later.Mile,
			Timestamp2: later.Timestamp,
			Speed:      encodeSpeed(mph),
		})
	}
	return tickets
}

// averageSpeed returns the speed in miles per hour needed to travel between two observations.
func averageSpeed(earlier, later Observation) float64 {
	distance := math.Abs(float64(later.Mile) - float64(earlier.Mile))
	hours := float64(later.Timestamp-earlier.Timestamp) / 3600
	return distance / hours
}

// encodeSpeed converts miles per hour to the 100x fixed point used on the wire.
func encodeSpeed(mph float64) uint16 {
	return uint16(min(math.Round(mph*100), math.MaxUint16))
}
