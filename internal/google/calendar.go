package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gapfinder/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	credentialsFile = "credentials.json"

	// maxTokenAge is how long a stored token is trusted before the user has
	// to authenticate again. Refresh tokens of unverified OAuth apps expire
	// after seven days.
	maxTokenAge = 6 * 24 * time.Hour

	eventTypeOutOfOffice = "outOfOffice"
)

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewClient creates a new Google Calendar client.
// It handles loading credentials and setting up an authenticated HTTP client.
// The accountName is used to find the token file token-<accountName>.json.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName string) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := TokenFile(accountName)
	if removed, err := removeStaleToken(tokenFile, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to check token age: %w", err)
	} else if removed {
		logger.Warn("Stored token is too old and was removed.", "file", tokenFile, "maxAge", maxTokenAge)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger}, nil
}

// newClientWithService is used by tests to point the client at a fake server.
func newClientWithService(service *calendar.Service, logger *slog.Logger) *CalendarClient {
	return &CalendarClient{service: service, logger: logger}
}

// FetchEvents fetches all single events of calendarID overlapping [start, end).
// Recurring events are expanded by the API. The calendar's own timezone is
// returned alongside so callers have a fallback when the calendar is empty.
func (c *CalendarClient) FetchEvents(ctx context.Context, calendarID string, start, end time.Time) ([]models.Event, *time.Location, error) {
	c.logger.Debug("Fetching events", "calendarID", calendarID, "start", start, "end", end)

	var (
		events     []models.Event
		calendarTZ string
	)
	err := c.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		OrderBy("startTime").
		Pages(ctx, func(page *calendar.Events) error {
			calendarTZ = page.TimeZone
			events = append(events, c.toInternalEvents(page.Items, page.TimeZone, calendarID)...)
			return nil
		})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	var loc *time.Location
	if calendarTZ != "" {
		if loc, err = time.LoadLocation(calendarTZ); err != nil {
			c.logger.Warn("Calendar has an unknown timezone", "timezone", calendarTZ, "error", err)
			loc = nil
		}
	}

	c.logger.Info("Successfully fetched events from Google Calendar", "count", len(events), "calendarID", calendarID)
	return events, loc, nil
}

// toInternalEvents converts Google Calendar events to the internal Event model.
func (c *CalendarClient) toInternalEvents(googleEvents []*calendar.Event, calendarTZ, source string) []models.Event {
	var internalEvents []models.Event
	for _, item := range googleEvents {
		// All-day events have no DateTime and do not occupy business hours.
		if item.Start == nil || item.Start.DateTime == "" || item.End == nil {
			continue
		}

		startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			c.logger.Warn("Skipping event with unparsable start", "id", item.Id, "error", err)
			continue
		}
		endTime, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			c.logger.Warn("Skipping event with unparsable end", "id", item.Id, "error", err)
			continue
		}

		tz := item.Start.TimeZone
		if tz == "" {
			tz = calendarTZ
		}

		kind := models.KindNormal
		if item.EventType == eventTypeOutOfOffice {
			kind = models.KindOutOfOffice
		}

		internalEvents = append(internalEvents, models.Event{
			ID:        item.Id,
			Title:     item.Summary,
			StartTime: startTime,
			EndTime:   endTime,
			TimeZone:  tz,
			Kind:      kind,
			Source:    fmt.Sprintf("google-%s", source),
		})
	}
	return internalEvents
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes environment variables over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the root directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// TokenFile returns the token file name for an account.
func TokenFile(accountName string) string {
	return "token-" + accountName + ".json"
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// removeStaleToken deletes the token file if it was written more than
// maxTokenAge before now. A missing file is not an error.
func removeStaleToken(file string, now time.Time) (bool, error) {
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if now.Sub(info.ModTime()) <= maxTokenAge {
		return false, nil
	}
	if err := os.Remove(file); err != nil {
		return false, err
	}
	return true, nil
}

// GetTokenAccounts lists the accounts that have a token file in the working directory.
func GetTokenAccounts() ([]string, error) {
	files, err := os.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "token-") && strings.HasSuffix(file.Name(), ".json") {
			accountName := strings.TrimSuffix(strings.TrimPrefix(file.Name(), "token-"), ".json")
			accounts = append(accounts, accountName)
		}
	}
	return accounts, nil
}
