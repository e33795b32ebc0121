package gaps

import (
	"errors"
	"time"

	"gapfinder/internal/models"
)

// Defaults for business hours and meeting length.
const (
	DefaultWorkStart       = 8*time.Hour + 30*time.Minute
	DefaultWorkEnd         = 18*time.Hour + 30*time.Minute
	DefaultMeetingDuration = 30 * time.Minute
)

// Params bounds a gap search.
type Params struct {
	WindowStart time.Time
	WindowEnd   time.Time

	// WorkStart and WorkEnd are business hours as offsets from midnight.
	WorkStart time.Duration
	WorkEnd   time.Duration

	// MinDuration is the shortest gap worth reporting. Zero-length gaps are
	// never reported, even when MinDuration is zero.
	MinDuration time.Duration

	// Fallback is used as the reference timezone when there are no events or
	// none of them declares a timezone. If nil, an empty event list yields
	// ErrNoEvents and undeclared events fall back to the first event's
	// location.
	Fallback *time.Location
}

// Validate reports configuration errors that make any search meaningless.
func (p Params) Validate() error {
	if err := validateHours(p.WorkStart, p.WorkEnd); err != nil {
		return err
	}
	if !p.WindowEnd.After(p.WindowStart) {
		return ErrInvalidWindow
	}
	return nil
}

// Result is the outcome of one gap search.
type Result struct {
	Location *time.Location
	Gaps     []models.Gap
}

// String renders the result with Format.
func (r Result) String() string {
	if r.Location == nil {
		return ""
	}
	return Format(r.Gaps, r.Location)
}

// Find runs the full pipeline over events and returns the gaps long enough
// to host a meeting, in chronological order. The input slice is not modified.
func Find(events []models.Event, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	loc, err := ReferenceTimezone(events)
	switch {
	case err == nil:
	case p.Fallback != nil && (errors.Is(err, ErrNoEvents) || errors.Is(err, ErrNoDeclaredTimezone)):
		loc = p.Fallback
	case errors.Is(err, ErrNoDeclaredTimezone):
		loc = events[0].StartTime.Location()
	default:
		return Result{}, err
	}

	normalized := Normalize(events, loc)
	boundaries, err := Boundaries(p.WindowStart, p.WindowEnd, p.WorkStart, p.WorkEnd, loc)
	if err != nil {
		return Result{}, err
	}

	all := make([]models.Event, 0, len(normalized)+len(boundaries))
	all = append(all, normalized...)
	all = append(all, boundaries...)

	gaps := Extract(all)
	gaps = ClipToWindow(gaps, p.WindowStart, p.WindowEnd)
	gaps = FilterOutOfOffice(gaps, normalized)
	gaps = FilterShort(gaps, p.MinDuration)

	return Result{Location: loc, Gaps: gaps}, nil
}
