package speeddaemon

// A Camera represents a speed camera.
//
// Each camera is on a specific road, at a specific location, and has a specific speed limit.
// Each camera provides this information when it connects to the server.
// Cameras report each number plate that they observe, along with the timestamp that they observed it.
// Timestamps are exactly the same as [Unix timestamps] (counting seconds since 1st of January 1970), except that they are unsigned.
//
// [Unix timestamps]: https://en.wikipedia.org/wiki/Unix_time
type Camera struct {
	Road  uint16
	Mile  uint16
	Limit uint16
}

// A TicketDispatcher is responsible for some number of roads.
//
// When the server finds that a car was detected at 2 points on the same road with an average speed in excess of the
// speed limit (speed = distance / time), it will find the responsible ticket dispatcher and send it a ticket for the
// offending car, so that the ticket dispatcher can perform the necessary legal rituals.
type TicketDispatcher struct {
	Roads []uint16
}

// An Observation is a single sighting of a number plate by a camera.
type Observation struct {
	Plate     string
	Road      uint16
	Mile      uint16
	Timestamp uint32
}

// A Ticket is a detected speed violation. Mile1 and Timestamp1 always refer to the earlier observation.
type Ticket = TicketMessage

// SecondsPerDay is the width of the timestamp buckets used to limit tickets to one per car per day.
const SecondsPerDay = 86400

// Day returns the day a timestamp falls on.
func Day(timestamp uint32) uint32 {
	return timestamp / SecondsPerDay
}

// days returns every day spanned by the ticket, inclusive.
func (t *TicketMessage) days() []uint32 {
	var days []uint32
	for d := Day(t.Timestamp1); d <= Day(t.Timestamp2); d++ {
		days = append(days, d)
	}
	return days
}
