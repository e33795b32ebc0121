package gaps

import (
	"time"

	"gapfinder/internal/models"
)

const day = 24 * time.Hour

// Boundaries synthesizes busy events covering everything outside business
// hours in [windowStart, windowEnd). One event spans each night, from the
// business end of a day to the business start of the next, starting with the
// night before windowStart's date and ending with the night after windowEnd's
// date. Two more events cover the part of the first and last nights that lies
// outside the window itself.
func Boundaries(windowStart, windowEnd time.Time, workStart, workEnd time.Duration, loc *time.Location) ([]models.Event, error) {
	if err := validateHours(workStart, workEnd); err != nil {
		return nil, err
	}
	if !windowEnd.After(windowStart) {
		return nil, ErrInvalidWindow
	}

	first := civilDate(windowStart.In(loc)).AddDate(0, 0, -1)
	last := civilDate(windowEnd.In(loc))

	var events []models.Event
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		events = append(events, boundary(clockAt(d, workEnd, loc), clockAt(d.AddDate(0, 0, 1), workStart, loc)))
	}

	events = append(events,
		boundary(events[0].StartTime, windowStart.In(loc)),
		boundary(windowEnd.In(loc), events[len(events)-1].EndTime),
	)
	return events, nil
}

func validateHours(workStart, workEnd time.Duration) error {
	if workStart < 0 || workEnd > day || workStart >= workEnd {
		return ErrInvalidBusinessHours
	}
	return nil
}

func boundary(start, end time.Time) models.Event {
	return models.Event{
		Title:     "non-business hours",
		StartTime: start,
		EndTime:   end,
		TimeZone:  start.Location().String(),
		Kind:      models.KindBoundary,
	}
}

// civilDate strips t to its calendar date, expressed in UTC so that date
// arithmetic never crosses a DST transition.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// clockAt returns the wall-clock time offset past midnight on date in loc.
func clockAt(date time.Time, offset time.Duration, loc *time.Location) time.Time {
	y, m, d := date.Date()
	h := int(offset / time.Hour)
	mins := int(offset % time.Hour / time.Minute)
	secs := int(offset % time.Minute / time.Second)
	return time.Date(y, m, d, h, mins, secs, 0, loc)
}
