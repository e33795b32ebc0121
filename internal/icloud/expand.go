package icloud

import (
	"time"

	"gapfinder/internal/models"

	"github.com/teambition/rrule-go"
)

// maxOccurrences caps the expansion of a single recurring event.
const maxOccurrences = 5000

// expand returns the occurrences of a recurring master that overlap
// [from, to). EXDATEs and instances replaced by an override are left out.
// A rule that cannot be parsed yields only the master's own slot.
func (c *CalDAVClient) expand(v vevent, overridden []time.Time, from, to time.Time, source string) []models.Event {
	if v.cancelled {
		return nil
	}
	rule, err := rrule.StrToRRule(v.rrule)
	if err != nil {
		c.logger.Warn("Failed to parse RRULE, keeping first occurrence only", "uid", v.uid, "rrule", v.rrule, "error", err)
		return []models.Event{v.occurrence(v.start, v.end, source)}
	}
	rule.DTStart(v.start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range v.exdates {
		set.ExDate(ex.In(v.start.Location()))
	}
	for _, rid := range overridden {
		set.ExDate(rid.In(v.start.Location()))
	}

	duration := v.end.Sub(v.start)
	starts := set.Between(from.Add(-duration).In(v.start.Location()), to.In(v.start.Location()), true)
	if len(starts) > maxOccurrences {
		c.logger.Warn("Truncated recurring event", "uid", v.uid, "cap", maxOccurrences)
		starts = starts[:maxOccurrences]
	}

	events := make([]models.Event, 0, len(starts))
	for _, start := range starts {
		end := start.Add(duration)
		if end.Before(from) {
			continue
		}
		events = append(events, v.occurrence(start, end, source))
	}
	return events
}
