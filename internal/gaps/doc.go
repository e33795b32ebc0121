// Package gaps computes free meeting slots from a set of calendar events.
//
// The computation is a chain of pure stages: the events are normalized into a
// single reference timezone, non-business hours are added as synthetic busy
// events, everything is sorted and walked once to extract gaps, and the gaps
// are filtered against out-of-office periods and the desired meeting length.
// Format renders the result grouped by weekday.
package gaps
