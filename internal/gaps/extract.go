package gaps

import (
	"slices"

	"gapfinder/internal/models"
)

// Sort orders events by start, then by end.
func Sort(events []models.Event) []models.Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b models.Event) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return a.End().Compare(b.End())
	})
	return sorted
}

// Extract walks the events in chronological order and emits one gap per
// adjacent pair. A gap opens at the latest end seen so far, so an event
// contained in an earlier one never reopens time that is still busy.
// Overlaps yield zero-length gaps.
func Extract(events []models.Event) []models.Gap {
	if len(events) < 2 {
		return nil
	}
	sorted := Sort(events)

	gaps := make([]models.Gap, 0, len(sorted)-1)
	busyUntil := sorted[0].End()
	for _, next := range sorted[1:] {
		d := next.StartTime.Sub(busyUntil)
		if d < 0 {
			d = 0
		}
		gaps = append(gaps, models.Gap{Start: busyUntil, Duration: d})
		if end := next.End(); end.After(busyUntil) {
			busyUntil = end
		}
	}
	return gaps
}
