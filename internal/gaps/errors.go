package gaps

import "errors"

var (
	// ErrNoEvents is returned when there is nothing to infer a reference
	// timezone from. It is not fatal: callers report an empty result.
	ErrNoEvents = errors.New("no events to infer a timezone from")

	// ErrNoDeclaredTimezone is returned when none of the events declares a
	// timezone, e.g. a calendar holding only UTC instants.
	ErrNoDeclaredTimezone = errors.New("no event declares a timezone")

	// ErrInvalidBusinessHours is returned when business hours start at or after they end.
	ErrInvalidBusinessHours = errors.New("business hours must start before they end")

	// ErrInvalidWindow is returned when the search window ends at or before it starts.
	ErrInvalidWindow = errors.New("window end must be after window start")

	// ErrUnknownTimezone is returned when a declared timezone cannot be loaded.
	ErrUnknownTimezone = errors.New("unknown timezone")
)
