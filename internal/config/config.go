// Package config turns command-line and environment values into the
// parameters of a gap search.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNoTimeframe          = errors.New("no valid timeframe provided, please provide a start and an end time or a number of next weeks")
	ErrConflictingTimeframe = errors.New("conflicting timeframe: provide either a start and end time or a number of next weeks, not both")
	ErrIncompleteTimeframe  = errors.New("start and end time must be provided together")
	ErrInvalidDuration      = errors.New("meeting duration must be positive")
)

// timeLayouts are tried in order when parsing a user supplied date.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timeframe is the window searched for gaps.
type Timeframe struct {
	Start time.Time
	End   time.Time
}

// ResolveTimeframe picks the search window from either an explicit start and
// end or a number of weeks counted from now. Dates without an offset are
// read in loc.
func ResolveTimeframe(start, end string, nextWeeks int, now time.Time, loc *time.Location) (Timeframe, error) {
	explicit := start != "" || end != ""
	switch {
	case explicit && nextWeeks > 0:
		return Timeframe{}, ErrConflictingTimeframe
	case !explicit && nextWeeks <= 0:
		return Timeframe{}, ErrNoTimeframe
	case !explicit:
		return Timeframe{Start: now, End: now.AddDate(0, 0, 7*nextWeeks)}, nil
	case start == "" || end == "":
		return Timeframe{}, ErrIncompleteTimeframe
	}

	s, err := ParseTime(start, loc)
	if err != nil {
		return Timeframe{}, fmt.Errorf("invalid start time: %w", err)
	}
	e, err := ParseTime(end, loc)
	if err != nil {
		return Timeframe{}, fmt.Errorf("invalid end time: %w", err)
	}
	return Timeframe{Start: s, End: e}, nil
}

// ParseTime parses an RFC3339 timestamp or a local date with optional time.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("incorrect date string %q", value)
}

// ParseClock parses a time of day such as "08:30" into an offset from midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(value string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// MeetingDuration converts a length in minutes.
func MeetingDuration(minutes int) (time.Duration, error) {
	if minutes <= 0 {
		return 0, ErrInvalidDuration
	}
	return time.Duration(minutes) * time.Minute, nil
}

// Location loads the named timezone. An empty name yields nil so that the
// calendar's own timezone is used instead.
func Location(name string) (*time.Location, error) {
	if name == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", name, err)
	}
	return loc, nil
}
