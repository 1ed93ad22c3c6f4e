// Package resolver resolves UF values for a day or a month.
//
// A lookup goes through the date floor gate, then the resolution cache. On a
// miss the source page is fetched and the cell extracted; only successful
// resolutions are cached, so failures retry the round trip on the next call.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/sig-0/ufrates/failure"
	"github.com/sig-0/ufrates/provider/sii"
	"github.com/sig-0/ufrates/registry"
	"github.com/sig-0/ufrates/storage"
	"github.com/sig-0/ufrates/storage/types"
)

var (
	errInvalidRegistry = errors.New("invalid registry")
	errInvalidFetcher  = errors.New("invalid page fetcher")
	errInvalidStorage  = errors.New("invalid storage")
)

// PageFetcher downloads a source page
type PageFetcher interface {
	Fetch(ctx context.Context, url string, timeouts registry.Timeouts, userAgent string) (string, error)
}

// Resolver is the UF value-resolution engine
type Resolver struct {
	registry *registry.Registry
	fetcher  PageFetcher
	storage  storage.Storage

	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *metrics

	urlTemplate string

	group singleflight.Group
}

// New creates a new resolver instance
func New(
	reg *registry.Registry,
	fetcher PageFetcher,
	storage storage.Storage,
	opts ...Option,
) (*Resolver, error) {
	switch {
	case reg == nil:
		return nil, errInvalidRegistry
	case fetcher == nil:
		return nil, errInvalidFetcher
	case storage == nil:
		return nil, errInvalidStorage
	}

	r := &Resolver{
		registry:    reg,
		fetcher:     fetcher,
		storage:     storage,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		urlTemplate: sii.DefaultURLTemplate,
	}

	// Apply the options
	for _, opt := range opts {
		opt(r)
	}

	if err := sii.ValidateURLTemplate(r.urlTemplate); err != nil {
		return nil, fmt.Errorf("invalid source, %w", err)
	}

	if r.registerer == nil {
		r.registerer = prometheus.NewRegistry()
	}

	r.metrics = newMetrics(r.registerer)

	return r, nil
}

// MinDate returns the currently configured date floor
func (r *Resolver) MinDate() time.Time {
	return r.registry.Snapshot().Dates.MinDate
}

// Resolve returns the raw published text for the given date.
// An empty string means no value was published for that day
func (r *Resolver) Resolve(ctx context.Context, day, month, year int) (string, error) {
	date, err := calendarDate(day, month, year)
	if err != nil {
		return "", err
	}

	settings := r.registry.Snapshot()

	// The floor gates the lookup before any network call
	if err = checkFloor(date, settings.Dates); err != nil {
		return "", err
	}

	key := types.LookupKey{
		URL:   sii.PageURL(r.urlTemplate, year),
		Day:   day,
		Month: month,
	}

	return r.lookup(ctx, key, settings)
}

// Single resolves the normalized UF value for the given date
func (r *Resolver) Single(ctx context.Context, day, month, year int) (*types.ResolvedUF, error) {
	raw, err := r.Resolve(ctx, day, month, year)
	if err != nil {
		return nil, err
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	if raw == "" {
		return nil, failure.NewNotFound(
			fmt.Sprintf("no UF value published for %s", date.Format(types.DateLayout)),
		)
	}

	value, err := sii.Normalize(raw)
	if err != nil {
		return nil, err
	}

	return &types.ResolvedUF{
		Date:  date,
		Value: sii.FormatValue(value),
	}, nil
}

// lookup returns the cached value for the key, computing it on a miss.
// Concurrent misses for the same key share a single fetch. A caller whose
// context ends stops waiting, without cancelling the shared fetch
func (r *Resolver) lookup(
	ctx context.Context,
	key types.LookupKey,
	settings registry.Settings,
) (string, error) {
	value, ok, err := r.storage.Get(ctx, key)
	if err != nil {
		r.logger.Warn(
			"unable to read resolution cache",
			"url", key.URL,
			"err", err,
		)
	}

	if ok {
		r.metrics.cacheLookups.WithLabelValues(lookupHit).Inc()

		return value, nil
	}

	r.metrics.cacheLookups.WithLabelValues(lookupMiss).Inc()

	resCh := r.group.DoChan(flightKey(key), func() (any, error) {
		computeCtx := context.WithoutCancel(ctx)

		computed, err := r.compute(computeCtx, key, settings)
		if err != nil {
			return "", err // failures are never cached
		}

		if err := r.storage.Save(computeCtx, key, computed); err != nil {
			r.logger.Warn(
				"unable to save resolved value",
				"url", key.URL,
				"day", key.Day,
				"month", key.Month,
				"err", err,
			)
		}

		return computed, nil
	})

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", failure.Wrap(failure.Timeout, "lookup deadline exceeded", ctx.Err())
		}

		return "", failure.Wrap(failure.Transport, "lookup canceled", ctx.Err())
	case res := <-resCh:
		if res.Err != nil {
			return "", res.Err
		}

		computed, _ := res.Val.(string)

		return computed, nil
	}
}

// compute fetches the source page and extracts the cell for the key
func (r *Resolver) compute(
	ctx context.Context,
	key types.LookupKey,
	settings registry.Settings,
) (string, error) {
	start := time.Now()

	html, err := r.fetcher.Fetch(ctx, key.URL, settings.Timeouts, settings.Header.UserAgent)

	r.metrics.fetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		r.metrics.fetches.WithLabelValues(failure.KindOf(err).String()).Inc()

		r.logger.Error(
			"unable to fetch source page",
			"url", key.URL,
			"kind", failure.KindOf(err),
			"err", err,
		)

		return "", err
	}

	value, err := sii.Extract(html, key.Day, key.Month, settings.Selectors)
	if err != nil {
		r.metrics.fetches.WithLabelValues(failure.KindOf(err).String()).Inc()

		r.logger.Error(
			"unable to extract UF value",
			"url", key.URL,
			"day", key.Day,
			"month", key.Month,
			"err", err,
		)

		return "", err
	}

	r.metrics.fetches.WithLabelValues(fetchOK).Inc()

	r.logger.Debug(
		"resolved UF value",
		"url", key.URL,
		"day", key.Day,
		"month", key.Month,
		"value", value,
	)

	return value, nil
}

func flightKey(key types.LookupKey) string {
	return fmt.Sprintf("%s|%d|%d", key.URL, key.Day, key.Month)
}

// calendarDate builds the date, failing if it does not exist in the calendar
func calendarDate(day, month, year int) (time.Time, error) {
	if !dayExists(day, month, year) {
		return time.Time{}, failure.New(
			failure.CalendarInvalid,
			fmt.Sprintf("%02d/%02d/%d is not a valid date", day, month, year),
		)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// dayExists reports whether the day exists in the given month and year
func dayExists(day, month, year int) bool {
	if month < 1 || month > 12 || day < 1 || year < 1 || year > 9999 {
		return false
	}

	return day <= daysIn(month, year)
}

// daysIn returns the number of days in the given month and year
func daysIn(month, year int) int {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// checkFloor rejects dates strictly earlier than the configured floor
func checkFloor(date time.Time, dates registry.Dates) error {
	if !date.Before(floorDay(dates)) {
		return nil
	}

	return failure.New(
		failure.DateBeforeFloor,
		fmt.Sprintf(
			"date %s precedes the minimum date %s",
			date.Format(types.DateLayout),
			floorDay(dates).Format(types.DateLayout),
		),
	)
}

// floorDay returns the configured floor, truncated to its UTC calendar day
func floorDay(dates registry.Dates) time.Time {
	y, m, d := dates.MinDate.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
