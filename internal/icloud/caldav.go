package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gapfinder/internal/models"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

const (
	// DefaultEndpoint is the iCloud CalDAV server.
	DefaultEndpoint = "https://caldav.icloud.com/"

	// propBusyStatus is how Outlook and Exchange export out-of-office periods.
	propBusyStatus   = "X-MICROSOFT-CDO-BUSYSTATUS"
	busyStatusAbsent = "OOF"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "gapfinder/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVClient reads events from a CalDAV calendar (iCloud by default).
type CalDAVClient struct {
	caldavClient *caldav.Client
	logger       *slog.Logger
	endpoint     string
	calendarPath string
	// location reads floating times and times whose TZID cannot be resolved.
	location *time.Location
}

// NewClient creates a CalDAVClient and resolves calendarName to its collection path.
// An empty endpoint selects iCloud. A nil loc reads floating times in time.Local.
func NewClient(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string, loc *time.Location) (*CalDAVClient, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if loc == nil {
		loc = time.Local
	}
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport, Timeout: 30 * time.Second}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	c := &CalDAVClient{
		caldavClient: caldavClient,
		logger:       logger,
		endpoint:     endpoint,
		location:     loc,
	}

	logger.Info("Finding CalDAV calendar", "calendarName", calendarName)
	calendarPath, err := c.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Successfully found CalDAV calendar", "path", calendarPath)

	return c, nil
}

// FetchEvents queries the calendar for events overlapping [start, end).
// Recurring events are expanded into their occurrences within the window.
func (c *CalDAVClient) FetchEvents(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	c.logger.Debug("Querying CalDAV calendar", "path", c.calendarPath, "start", start, "end", end)

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: start.UTC(),
				End:   end.UTC(),
			}},
		},
	}

	objects, err := c.caldavClient.QueryCalendar(ctx, c.calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	var events []models.Event
	for _, obj := range objects {
		events = append(events, c.toInternalEvents(obj.Data, obj.Path, start, end)...)
	}

	c.logger.Info("Successfully fetched events from CalDAV", "count", len(events), "path", c.calendarPath)
	return events, nil
}

// vevent is a VEVENT read from a calendar object, before recurrence expansion.
type vevent struct {
	uid          string
	summary      string
	start        time.Time
	end          time.Time
	zone         string
	kind         models.EventKind
	rrule        string
	exdates      []time.Time
	recurrenceID *time.Time
	cancelled    bool
}

func (v vevent) occurrence(start, end time.Time, source string) models.Event {
	return models.Event{
		ID:        v.uid,
		Title:     v.summary,
		StartTime: start,
		EndTime:   end,
		TimeZone:  v.zone,
		Kind:      v.kind,
		Source:    "caldav-" + source,
	}
}

// toInternalEvents converts the VEVENTs of a calendar object to the internal
// Event model, expanding recurring masters over [from, to). Overridden
// instances are taken from their RECURRENCE-ID components. Events outside
// the window are dropped.
func (c *CalDAVClient) toInternalEvents(cal *ical.Calendar, source string, from, to time.Time) []models.Event {
	if cal == nil {
		return nil
	}

	var parsed []vevent
	overridden := make(map[string][]time.Time)
	for _, ve := range cal.Events() {
		v, ok := c.parseEvent(ve.Component, source)
		if !ok {
			continue
		}
		if v.recurrenceID != nil {
			overridden[v.uid] = append(overridden[v.uid], *v.recurrenceID)
		}
		parsed = append(parsed, v)
	}

	var events []models.Event
	for _, v := range parsed {
		if v.rrule != "" && v.recurrenceID == nil {
			events = append(events, c.expand(v, overridden[v.uid], from, to, source)...)
			continue
		}
		if v.cancelled || v.end.Before(from) || !v.start.Before(to) {
			continue
		}
		events = append(events, v.occurrence(v.start, v.end, source))
	}
	return events
}

// parseEvent reads one VEVENT. All-day events and events without a usable
// start are skipped.
func (c *CalDAVClient) parseEvent(comp *ical.Component, source string) (vevent, bool) {
	v := vevent{kind: models.KindNormal}
	v.uid, _ = comp.Props.Text(ical.PropUID)
	v.summary, _ = comp.Props.Text(ical.PropSummary)

	dtStart := comp.Props.Get(ical.PropDateTimeStart)
	// All-day events carry a DATE value and do not occupy business hours.
	if dtStart == nil || dtStart.ValueType() == ical.ValueDate || !strings.Contains(dtStart.Value, "T") {
		return v, false
	}

	loc, zone := c.zoneOf(dtStart)
	start, err := parseDateTime(dtStart.Value, loc)
	if err != nil {
		c.logger.Warn("Skipping event with unparsable start", "uid", v.uid, "title", v.summary, "source", source, "error", err)
		return v, false
	}
	v.start, v.zone = start, zone

	v.end = start
	if dtEnd := comp.Props.Get(ical.PropDateTimeEnd); dtEnd != nil {
		endLoc, _ := c.zoneOf(dtEnd)
		if end, err := parseDateTime(dtEnd.Value, endLoc); err == nil {
			v.end = end
		} else {
			c.logger.Warn("Event has unparsable end, treating it as zero length", "uid", v.uid, "source", source, "error", err)
		}
	} else if dur := comp.Props.Get(ical.PropDuration); dur != nil {
		if d, err := dur.Duration(); err == nil {
			v.end = start.Add(d)
		}
	}

	if status, _ := comp.Props.Text(propBusyStatus); strings.EqualFold(status, busyStatusAbsent) {
		v.kind = models.KindOutOfOffice
	}
	if status, _ := comp.Props.Text(ical.PropStatus); strings.EqualFold(status, "CANCELLED") {
		v.cancelled = true
	}

	if rule := comp.Props.Get(ical.PropRecurrenceRule); rule != nil {
		v.rrule = rule.Value
	}
	for _, ex := range comp.Props.Values(ical.PropExceptionDates) {
		exLoc, _ := c.zoneOf(&ex)
		for _, value := range strings.Split(ex.Value, ",") {
			if t, err := parseDateTime(value, exLoc); err == nil {
				v.exdates = append(v.exdates, t)
			}
		}
	}
	if rid := comp.Props.Get(ical.PropRecurrenceID); rid != nil {
		ridLoc, _ := c.zoneOf(rid)
		if t, err := parseDateTime(rid.Value, ridLoc); err == nil {
			v.recurrenceID = &t
		}
	}

	return v, true
}

// zoneOf resolves the TZID parameter of prop. It returns the location to read
// the value in and the IANA name to declare for the event, which is empty for
// UTC, floating and unresolvable times.
func (c *CalDAVClient) zoneOf(prop *ical.Prop) (*time.Location, string) {
	tzid := prop.Params.Get(ical.ParamTimezoneID)
	if tzid == "" {
		return c.location, ""
	}
	if name, ok := ianaZone(tzid); ok {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc, name
		}
	}
	c.logger.Warn("Unknown TZID, reading time in fallback timezone", "tzid", tzid, "fallback", c.location)
	return c.location, ""
}

// parseDateTime parses an iCalendar DATE-TIME value. Values ending in Z are
// UTC; all others are read in loc.
func parseDateTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.HasSuffix(value, "Z") {
		return time.Parse("20060102T150405Z", value)
	}
	return time.ParseInLocation("20060102T150405", value, loc)
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
