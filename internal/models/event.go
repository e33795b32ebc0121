package models

import "time"

// EventKind distinguishes regular meetings from out-of-office periods and
// from the synthetic events that stand in for non-business hours.
type EventKind int

const (
	KindNormal EventKind = iota
	KindOutOfOffice
	KindBoundary
)

func (k EventKind) String() string {
	switch k {
	case KindOutOfOffice:
		return "outOfOffice"
	case KindBoundary:
		return "boundary"
	default:
		return "normal"
	}
}

// Event represents a calendar event.
// This is an internal representation, independent of any specific calendar provider.
type Event struct {
	ID        string    // Unique identifier for the event (e.g., from the source calendar)
	Title     string    // Summary or title of the event
	StartTime time.Time // Start time of the event
	EndTime   time.Time // End time of the event
	TimeZone  string    // Declared IANA timezone of the event, may be empty
	Kind      EventKind // Normal, out-of-office or synthetic boundary
	Source    string    // The source of the event (e.g., "google")
}

// End returns the effective end of the event. An event whose end precedes
// its start is treated as zero-length.
func (e Event) End() time.Time {
	if e.EndTime.Before(e.StartTime) {
		return e.StartTime
	}
	return e.EndTime
}

// Gap is a free interval between two occupied slots.
type Gap struct {
	Start    time.Time
	Duration time.Duration
}

// End returns the instant the gap closes.
func (g Gap) End() time.Time {
	return g.Start.Add(g.Duration)
}
