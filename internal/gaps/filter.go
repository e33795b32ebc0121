package gaps

import (
	"time"

	"gapfinder/internal/models"
)

// ClipToWindow trims gaps to [start, end) and drops those left empty.
func ClipToWindow(gaps []models.Gap, start, end time.Time) []models.Gap {
	kept := make([]models.Gap, 0, len(gaps))
	for _, g := range gaps {
		from, to := g.Start, g.End()
		if from.Before(start) {
			from = start.In(from.Location())
		}
		if to.After(end) {
			to = end
		}
		if to.After(from) {
			kept = append(kept, models.Gap{Start: from, Duration: to.Sub(from)})
		}
	}
	return kept
}

// FilterOutOfOffice drops gaps lying entirely inside an out-of-office event.
// A gap that only partly overlaps such a period is kept whole.
func FilterOutOfOffice(gaps []models.Gap, events []models.Event) []models.Gap {
	var ooo []models.Event
	for _, e := range events {
		if e.Kind == models.KindOutOfOffice {
			ooo = append(ooo, e)
		}
	}
	if len(ooo) == 0 {
		return gaps
	}

	kept := make([]models.Gap, 0, len(gaps))
	for _, g := range gaps {
		if !withinAny(g, ooo) {
			kept = append(kept, g)
		}
	}
	return kept
}

func withinAny(g models.Gap, periods []models.Event) bool {
	for _, p := range periods {
		if !g.Start.Before(p.StartTime) && !g.End().After(p.End()) {
			return true
		}
	}
	return false
}

// FilterShort drops gaps shorter than minDuration. Zero-length gaps are
// always dropped.
func FilterShort(gaps []models.Gap, minDuration time.Duration) []models.Gap {
	kept := make([]models.Gap, 0, len(gaps))
	for _, g := range gaps {
		if g.Duration > 0 && g.Duration >= minDuration {
			kept = append(kept, g)
		}
	}
	return kept
}
