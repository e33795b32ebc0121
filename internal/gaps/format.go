package gaps

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gapfinder/internal/models"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Format renders gaps grouped by the calendar date of their start in loc,
// one header per weekday followed by one HH:MM-HH:MM line per gap. Weekend
// dates are skipped. Days are separated by a blank line.
func Format(gaps []models.Gap, loc *time.Location) string {
	var b strings.Builder
	current := ""
	for _, g := range sortGaps(gaps) {
		start := g.Start.In(loc)
		if isWeekend(start.Weekday()) {
			continue
		}
		if date := start.Format(dateLayout); date != current {
			if current != "" {
				b.WriteByte('\n')
			}
			current = date
			fmt.Fprintf(&b, "%s %s\n", start.Weekday(), date)
		}
		fmt.Fprintf(&b, "%s-%s\n", start.Format(clockLayout), g.End().In(loc).Format(clockLayout))
	}
	return b.String()
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

func sortGaps(gaps []models.Gap) []models.Gap {
	sorted := slices.Clone(gaps)
	slices.SortStableFunc(sorted, func(a, b models.Gap) int {
		return a.Start.Compare(b.Start)
	})
	return sorted
}
