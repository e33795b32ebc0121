package gaps

import (
	"fmt"
	"time"

	"gapfinder/internal/models"
)

// ReferenceTimezone picks the timezone declared by most events. Ties go to
// the zone encountered first in input order. Events without a declared zone
// do not vote; if none declares one, ErrNoDeclaredTimezone is returned.
func ReferenceTimezone(events []models.Event) (*time.Location, error) {
	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	counts := make(map[string]int)
	var order []string
	for _, e := range events {
		name := e.TimeZone
		if name == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	if len(order) == 0 {
		return nil, ErrNoDeclaredTimezone
	}

	best := order[0]
	for _, name := range order[1:] {
		if counts[name] > counts[best] {
			best = name
		}
	}

	loc, err := time.LoadLocation(best)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownTimezone, best, err)
	}
	return loc, nil
}

// Normalize returns copies of events with start and end expressed in loc.
func Normalize(events []models.Event, loc *time.Location) []models.Event {
	out := make([]models.Event, len(events))
	for i, e := range events {
		e.StartTime = e.StartTime.In(loc)
		e.EndTime = e.EndTime.In(loc)
		out[i] = e
	}
	return out
}
