package chain

import "time"

type Availability string

const (
	AvailabilityNotYet  Availability = "not_yet"
	AvailabilityOpen    Availability = "open"
	AvailabilityExpired Availability = "expired"
)

// Window is the span during which a pending session may be started, expressed
// in the display zone.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartWindow shifts scheduledAt into loc for display and opens a
// SessionWindow-long span from that instant.
func StartWindow(scheduledAt time.Time, loc *time.Location) Window {
	start := scheduledAt
	if loc != nil {
		start = scheduledAt.In(loc)
	}
	return Window{Start: start, End: start.Add(SessionWindow)}
}

// Availability is Open iff Start <= now <= End.
func (w Window) Availability(now time.Time) Availability {
	switch {
	case now.Before(w.Start):
		return AvailabilityNotYet
	case now.After(w.End):
		return AvailabilityExpired
	default:
		return AvailabilityOpen
	}
}

func (w Window) Startable(now time.Time) bool {
	return w.Availability(now) == AvailabilityOpen
}
