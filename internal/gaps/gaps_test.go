package gaps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapfinder/internal/models"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

// at builds a wall-clock time on the given date in loc.
func at(loc *time.Location, date string, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		panic(err)
	}
	return t
}

func meeting(loc *time.Location, date, from, to string) models.Event {
	return models.Event{
		Title:     "meeting",
		StartTime: at(loc, date, from),
		EndTime:   at(loc, date, to),
		TimeZone:  loc.String(),
	}
}

func oneDay(loc *time.Location, date string, minDuration time.Duration) Params {
	start := at(loc, date, "00:00")
	return Params{
		WindowStart: start,
		WindowEnd:   start.AddDate(0, 0, 1),
		WorkStart:   DefaultWorkStart,
		WorkEnd:     DefaultWorkEnd,
		MinDuration: minDuration,
		Fallback:    loc,
	}
}

type span struct{ from, to string }

func spans(gaps []models.Gap, loc *time.Location) []span {
	out := make([]span, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, span{g.Start.In(loc).Format("15:04"), g.End().In(loc).Format("15:04")})
	}
	return out
}

// 2024-01-08 is a Monday.
const monday = "2024-01-08"

func TestFind_Scenarios(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")

	tests := []struct {
		name        string
		events      []models.Event
		minDuration time.Duration
		want        []span
	}{
		{
			name:        "empty day",
			minDuration: 30 * time.Minute,
			want:        []span{{"08:30", "18:30"}},
		},
		{
			name:        "single meeting",
			events:      []models.Event{meeting(berlin, monday, "10:00", "10:30")},
			minDuration: 30 * time.Minute,
			want:        []span{{"08:30", "10:00"}, {"10:30", "18:30"}},
		},
		{
			name: "overlapping meetings",
			events: []models.Event{
				meeting(berlin, monday, "10:00", "11:00"),
				meeting(berlin, monday, "10:30", "10:45"),
			},
			minDuration: 30 * time.Minute,
			want:        []span{{"08:30", "10:00"}, {"11:00", "18:30"}},
		},
		{
			name: "duration filter",
			events: []models.Event{
				meeting(berlin, monday, "08:30", "10:00"),
				meeting(berlin, monday, "10:30", "12:00"),
				meeting(berlin, monday, "13:00", "18:30"),
			},
			minDuration: 45 * time.Minute,
			want:        []span{{"12:00", "13:00"}},
		},
		{
			name:        "inverted event is zero length",
			events:      []models.Event{meeting(berlin, monday, "12:00", "11:00")},
			minDuration: 30 * time.Minute,
			want:        []span{{"08:30", "12:00"}, {"12:00", "18:30"}},
		},
		{
			name:        "event outside business hours",
			events:      []models.Event{meeting(berlin, monday, "06:00", "07:00")},
			minDuration: 30 * time.Minute,
			want:        []span{{"08:30", "18:30"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Find(tt.events, oneDay(berlin, monday, tt.minDuration))
			require.NoError(t, err)
			assert.Equal(t, tt.want, spans(res.Gaps, berlin))
		})
	}
}

func TestFind_OutOfOffice(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	ooo := meeting(berlin, monday, "09:00", "12:00")
	ooo.Kind = models.KindOutOfOffice

	res, err := Find([]models.Event{ooo}, oneDay(berlin, monday, 30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []span{{"08:30", "09:00"}, {"12:00", "18:30"}}, spans(res.Gaps, berlin))
}

func TestFind_WindowClipsPartialDays(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	p := Params{
		WindowStart: at(berlin, monday, "12:00"),
		WindowEnd:   at(berlin, "2024-01-09", "10:00"),
		WorkStart:   DefaultWorkStart,
		WorkEnd:     DefaultWorkEnd,
		MinDuration: 30 * time.Minute,
		Fallback:    berlin,
	}

	res, err := Find(nil, p)
	require.NoError(t, err)
	require.Len(t, res.Gaps, 2)
	assert.True(t, res.Gaps[0].Start.Equal(at(berlin, monday, "12:00")))
	assert.True(t, res.Gaps[0].End().Equal(at(berlin, monday, "18:30")))
	assert.True(t, res.Gaps[1].Start.Equal(at(berlin, "2024-01-09", "08:30")))
	assert.True(t, res.Gaps[1].End().Equal(at(berlin, "2024-01-09", "10:00")))
}

func TestFind_Errors(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")

	t.Run("no events without fallback", func(t *testing.T) {
		p := oneDay(berlin, monday, 30*time.Minute)
		p.Fallback = nil
		res, err := Find(nil, p)
		assert.ErrorIs(t, err, ErrNoEvents)
		assert.Empty(t, res.Gaps)
		assert.Empty(t, res.String())
	})

	t.Run("inverted business hours", func(t *testing.T) {
		p := oneDay(berlin, monday, 30*time.Minute)
		p.WorkStart, p.WorkEnd = p.WorkEnd, p.WorkStart
		_, err := Find([]models.Event{meeting(berlin, monday, "10:00", "11:00")}, p)
		assert.ErrorIs(t, err, ErrInvalidBusinessHours)
	})

	t.Run("equal business hours", func(t *testing.T) {
		p := oneDay(berlin, monday, 30*time.Minute)
		p.WorkEnd = p.WorkStart
		_, err := Find(nil, p)
		assert.ErrorIs(t, err, ErrInvalidBusinessHours)
	})

	t.Run("empty window", func(t *testing.T) {
		p := oneDay(berlin, monday, 30*time.Minute)
		p.WindowEnd = p.WindowStart
		_, err := Find(nil, p)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestFind_Idempotent(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	events := []models.Event{
		meeting(berlin, monday, "14:00", "15:00"),
		meeting(berlin, monday, "10:00", "11:00"),
	}
	snapshot := append([]models.Event(nil), events...)
	p := oneDay(berlin, monday, 30*time.Minute)

	first, err := Find(events, p)
	require.NoError(t, err)
	second, err := Find(events, p)
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, spans(first.Gaps, berlin), spans(second.Gaps, berlin))
	assert.Equal(t, snapshot, events, "input must not be reordered")
}

func TestFind_Coverage(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	events := []models.Event{
		meeting(berlin, monday, "10:00", "11:00"),
		meeting(berlin, monday, "10:30", "10:45"),
		meeting(berlin, monday, "14:00", "15:00"),
		meeting(berlin, monday, "14:30", "16:00"),
	}

	res, err := Find(events, oneDay(berlin, monday, time.Nanosecond))
	require.NoError(t, err)

	var free time.Duration
	for _, g := range res.Gaps {
		free += g.Duration
	}
	busy := time.Hour + 2*time.Hour
	assert.Equal(t, DefaultWorkEnd-DefaultWorkStart, free+busy)
}

func TestFind_MixedTimezones(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	newYork := mustLoad(t, "America/New_York")

	events := []models.Event{
		meeting(berlin, monday, "09:00", "10:00"),
		meeting(berlin, monday, "17:00", "17:30"),
		// 10:00-11:00 in New York is 16:00-17:00 in Berlin.
		meeting(newYork, monday, "10:00", "11:00"),
	}

	res, err := Find(events, oneDay(berlin, monday, 30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", res.Location.String())
	assert.Equal(t, []span{{"08:30", "09:00"}, {"10:00", "16:00"}, {"17:30", "18:30"}}, spans(res.Gaps, berlin))
}

func TestFind_MinimumDurationHolds(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	var events []models.Event
	for h := 9; h < 18; h++ {
		from := time.Date(2024, 1, 8, h, 0, 0, 0, berlin)
		events = append(events, models.Event{
			StartTime: from,
			EndTime:   from.Add(time.Duration(h%3+1) * 15 * time.Minute),
			TimeZone:  "Europe/Berlin",
		})
	}

	minDuration := 40 * time.Minute
	res, err := Find(events, oneDay(berlin, monday, minDuration))
	require.NoError(t, err)
	require.NotEmpty(t, res.Gaps)
	for _, g := range res.Gaps {
		assert.GreaterOrEqual(t, g.Duration, minDuration)
	}
}

func TestFind_UndeclaredEventsUseFallback(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	// 09:00-09:30 UTC is 10:00-10:30 in Berlin.
	events := []models.Event{{
		StartTime: time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC),
	}}

	res, err := Find(events, oneDay(berlin, monday, 30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", res.Location.String())
	assert.Equal(t, []span{{"08:30", "10:00"}, {"10:30", "18:30"}}, spans(res.Gaps, berlin))

	p := oneDay(time.UTC, monday, 30*time.Minute)
	p.Fallback = nil
	res, err = Find(events, p)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, res.Location, "without a fallback the first event's zone is used")
}

func TestFind_EventsOutsideWindow(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	events := []models.Event{
		meeting(berlin, monday, "10:00", "11:00"),
		meeting(berlin, "2024-01-10", "12:00", "13:00"),
	}

	res, err := Find(events, oneDay(berlin, "2024-01-09", 30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "Tuesday 2024-01-09\n08:30-18:30\n", res.String())
	for _, g := range res.Gaps {
		assert.False(t, g.Start.Before(at(berlin, "2024-01-09", "00:00")))
		assert.False(t, g.End().After(at(berlin, "2024-01-10", "00:00")))
	}
}
