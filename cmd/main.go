package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gapfinder/internal/config"
	"gapfinder/internal/finder"
	"gapfinder/internal/gaps"
	"gapfinder/internal/google"
	"gapfinder/internal/icloud"
	"gapfinder/internal/models"
	"gapfinder/internal/output"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "gapfinder",
		Usage: "Find free slots in a calendar that fit a meeting during business hours.",
		Commands: []*cli.Command{
			authCommand(),
			gapsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			oauthConfig, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := google.TokenFile(accountName)

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func gapsCommand() *cli.Command {
	return &cli.Command{
		Name:  "gaps",
		Usage: "List free slots long enough for a meeting.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Calendar to pull events from.", Required: true},
			&cli.StringFlag{Name: "start-time", Usage: "Earliest time to offer slots from."},
			&cli.StringFlag{Name: "end-time", Usage: "Latest time to offer slots until."},
			&cli.IntFlag{Name: "next-weeks", Usage: "Number of weeks from now to offer slots for."},
			&cli.IntFlag{Name: "meeting-duration", Value: 30, Usage: "Expected meeting duration in minutes."},
			&cli.StringFlag{Name: "work-start", Value: "08:30", Usage: "Start of business hours.", EnvVars: []string{"WORK_START"}},
			&cli.StringFlag{Name: "work-end", Value: "18:30", Usage: "End of business hours.", EnvVars: []string{"WORK_END"}},
			&cli.StringFlag{Name: "source", Value: "google", Usage: "Event source: google or caldav."},
			&cli.StringFlag{Name: "account", Usage: "Google account token to use. Defaults to the only one found."},
			&cli.StringFlag{Name: "output", Usage: "Also write the result to this file."},
			&cli.BoolFlag{Name: "clipboard", Usage: "Copy the result to the clipboard instead of printing it."},
		},
		Action: func(c *cli.Context) error {
			logLevel := os.Getenv("LOG_LEVEL")
			if logLevel == "" {
				logLevel = "info"
			}
			logger := setupLogger(logLevel)

			fallback, err := config.Location(os.Getenv("PRIMARY_TIMEZONE"))
			if err != nil {
				return err
			}
			parseLoc := time.Local
			if fallback != nil {
				parseLoc = fallback
			}

			window, err := config.ResolveTimeframe(c.String("start-time"), c.String("end-time"), c.Int("next-weeks"), time.Now(), parseLoc)
			if err != nil {
				return err
			}
			workStart, err := config.ParseClock(c.String("work-start"))
			if err != nil {
				return err
			}
			workEnd, err := config.ParseClock(c.String("work-end"))
			if err != nil {
				return err
			}
			minDuration, err := config.MeetingDuration(c.Int("meeting-duration"))
			if err != nil {
				return err
			}

			source, err := newSource(c.Context, logger, c.String("source"), c.String("account"), c.String("email"), fallback)
			if err != nil {
				return err
			}

			f := finder.NewFinder(logger, source, newSink(c.Bool("clipboard"), c.String("output")))
			_, err = f.Run(c.Context, gaps.Params{
				WindowStart: window.Start,
				WindowEnd:   window.End,
				WorkStart:   workStart,
				WorkEnd:     workEnd,
				MinDuration: minDuration,
				Fallback:    fallback,
			})
			return err
		},
	}
}

func newSource(ctx context.Context, logger *slog.Logger, kind, account, email string, loc *time.Location) (finder.EventSource, error) {
	switch kind {
	case "google":
		if account == "" {
			accounts, err := google.GetTokenAccounts()
			if err != nil {
				return nil, fmt.Errorf("could not find any google accounts, did you run auth command? %w", err)
			}
			if len(accounts) != 1 {
				return nil, fmt.Errorf("found %d google accounts, pick one with --account or run the 'auth' command first", len(accounts))
			}
			account = accounts[0]
		}

		gClient, err := google.NewClient(ctx, logger, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), account)
		if err != nil {
			return nil, fmt.Errorf("failed to create google client for account %s: %w", account, err)
		}
		return finder.SourceFunc(func(ctx context.Context, start, end time.Time) ([]models.Event, *time.Location, error) {
			return gClient.FetchEvents(ctx, email, start, end)
		}), nil

	case "caldav":
		calendarName := os.Getenv("CALDAV_CALENDAR_NAME")
		if calendarName == "" {
			calendarName = email
		}
		iClient, err := icloud.NewClient(ctx, logger, os.Getenv("CALDAV_ENDPOINT"), os.Getenv("CALDAV_USERNAME"), os.Getenv("CALDAV_PASSWORD"), calendarName, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to create caldav client: %w", err)
		}
		return finder.SourceFunc(func(ctx context.Context, start, end time.Time) ([]models.Event, *time.Location, error) {
			events, err := iClient.FetchEvents(ctx, start, end)
			return events, nil, err
		}), nil

	default:
		return nil, fmt.Errorf("unknown event source '%s'", kind)
	}
}

func newSink(toClipboard bool, path string) output.Sink {
	var sinks output.Multi
	if toClipboard {
		sinks = append(sinks, output.NewClipboard())
	} else {
		sinks = append(sinks, output.Writer{W: os.Stdout})
	}
	if path != "" {
		sinks = append(sinks, output.File{Path: path})
	}
	return sinks
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
