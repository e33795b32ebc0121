package finder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gapfinder/internal/gaps"
	"gapfinder/internal/models"
	"gapfinder/internal/output"

	"github.com/google/uuid"
)

// ErrFetch wraps any failure of the event source, so that it can be told
// apart from a calendar that is simply empty.
var ErrFetch = errors.New("failed to fetch events")

// EventSource supplies the events overlapping a window. The returned location
// is the calendar's own timezone, or nil if the source does not know it.
type EventSource interface {
	FetchEvents(ctx context.Context, start, end time.Time) ([]models.Event, *time.Location, error)
}

// SourceFunc adapts a function to EventSource.
type SourceFunc func(ctx context.Context, start, end time.Time) ([]models.Event, *time.Location, error)

func (f SourceFunc) FetchEvents(ctx context.Context, start, end time.Time) ([]models.Event, *time.Location, error) {
	return f(ctx, start, end)
}

// Finder runs one gap search: fetch, compute, format, deliver.
type Finder struct {
	logger *slog.Logger
	source EventSource
	sink   output.Sink
}

// NewFinder creates a new Finder.
func NewFinder(logger *slog.Logger, source EventSource, sink output.Sink) *Finder {
	return &Finder{
		logger: logger,
		source: source,
		sink:   sink,
	}
}

// Run performs a single search with p. When p.Fallback is nil the calendar's
// timezone is used as fallback. The listing is always delivered, even when it
// is empty, so a previous result left in the sink is replaced.
func (f *Finder) Run(ctx context.Context, p gaps.Params) (gaps.Result, error) {
	logger := f.logger.With("run", uuid.NewString())

	if err := p.Validate(); err != nil {
		return gaps.Result{}, err
	}

	logger.Info("Starting gap search.", "start", p.WindowStart, "end", p.WindowEnd, "minDuration", p.MinDuration)

	events, calendarLoc, err := f.source.FetchEvents(ctx, p.WindowStart, p.WindowEnd)
	if err != nil {
		return gaps.Result{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	logger.Info("Fetched events.", "count", len(events))
	for _, e := range events {
		logger.Debug("Fetched event.", "id", e.ID, "title", e.Title, "source", e.Source, "kind", e.Kind, "start", e.StartTime, "end", e.EndTime)
	}

	if p.Fallback == nil {
		p.Fallback = calendarLoc
	}

	res, err := gaps.Find(events, p)
	switch {
	case errors.Is(err, gaps.ErrNoEvents):
		logger.Warn("No events and no timezone known, nothing to compute.")
		res = gaps.Result{}
	case err != nil:
		return gaps.Result{}, fmt.Errorf("failed to compute gaps: %w", err)
	default:
		logger.Info("Computed gaps.", "timezone", res.Location, "count", len(res.Gaps))
	}

	listing := res.String()
	if listing == "" {
		logger.Info("No suitable gaps found.")
	}

	if err := f.sink.Deliver(ctx, listing); err != nil {
		return res, fmt.Errorf("failed to deliver gaps: %w", err)
	}

	logger.Info("Gap search finished.")
	return res, nil
}
