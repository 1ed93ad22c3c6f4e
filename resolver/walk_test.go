package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/ufrates/failure"
	"github.com/sig-0/ufrates/provider/sii"
	"github.com/sig-0/ufrates/provider/sii/siitest"
	"github.com/sig-0/ufrates/registry"
)

// publishedUntil publishes calendar values up to (and including) the given day
func publishedUntil(year, month, lastDay int) siitest.ValueFn {
	values := siitest.CalendarValues(year)

	return func(day, m int) string {
		if m == month && day > lastDay {
			return ""
		}

		return values(day, m)
	}
}

func TestResolver_Month(t *testing.T) {
	t.Parallel()

	t.Run("walk ends at the end of the month", func(t *testing.T) {
		t.Parallel()

		testTable := []struct {
			name         string
			year         int
			month        int
			expectedDays int
		}{
			{"february, common year", 2023, 2, 28},
			{"february, leap year", 2024, 2, 29},
			{"30 day month", 2023, 4, 30},
			{"31 day month", 2023, 12, 31},
		}

		for _, testCase := range testTable {
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				var (
					fetcher = staticFetcher(siitest.Page(siitest.CalendarValues(testCase.year)))
					r       = newTestResolver(t, registry.NewDefault(), fetcher, registry.DefaultCapacity)
				)

				result, err := r.Month(context.Background(), testCase.month, testCase.year)
				require.NoError(t, err)

				require.Len(t, result.Values, testCase.expectedDays)

				// Every existing day is looked up exactly once
				assert.Equal(t, int64(testCase.expectedDays), fetcher.calls.Load())

				for i, v := range result.Values {
					assert.Equal(t, i+1, v.Date.Day())
					assert.Equal(t, time.Month(testCase.month), v.Date.Month())
				}

				require.NotNil(t, result.Average)
			})
		}
	})

	t.Run("walk stops at the first unpublished day", func(t *testing.T) {
		t.Parallel()

		var (
			fetcher = staticFetcher(siitest.Page(publishedUntil(2024, 10, 10)))
			r       = newTestResolver(t, registry.NewDefault(), fetcher, registry.DefaultCapacity)
		)

		result, err := r.Month(context.Background(), 10, 2024)
		require.NoError(t, err)

		assert.Len(t, result.Values, 10)

		// Day 11 is looked up, day 12 never is
		assert.Equal(t, int64(11), fetcher.calls.Load())
	})

	t.Run("average of the collected values", func(t *testing.T) {
		t.Parallel()

		page := siitest.Page(func(day, month int) string {
			if month != 5 {
				return ""
			}

			switch day {
			case 1:
				return "37.000,00"
			case 2:
				return "37.001,00"
			case 3:
				return "37.002,01"
			default:
				return ""
			}
		})

		r := newTestResolver(t, registry.NewDefault(), staticFetcher(page), registry.DefaultCapacity)

		result, err := r.Month(context.Background(), 5, 2024)
		require.NoError(t, err)

		require.Len(t, result.Values, 3)
		assert.Equal(t, "37000.00", result.Values[0].Value)
		assert.Equal(t, "37002.01", result.Values[2].Value)

		require.NotNil(t, result.Average)
		assert.Equal(t, "37001.00", *result.Average)
	})

	t.Run("values are served from cache on the second walk", func(t *testing.T) {
		t.Parallel()

		var (
			fetcher = staticFetcher(siitest.Page(siitest.CalendarValues(2023)))
			r       = newTestResolver(t, registry.NewDefault(), fetcher, registry.DefaultCapacity)
		)

		first, err := r.Month(context.Background(), 2, 2023)
		require.NoError(t, err)

		second, err := r.Month(context.Background(), 2, 2023)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int64(28), fetcher.calls.Load())
	})

	t.Run("nothing published", func(t *testing.T) {
		t.Parallel()

		var (
			fetcher = staticFetcher(siitest.Page(func(int, int) string { return "" }))
			r       = newTestResolver(t, registry.NewDefault(), fetcher, registry.DefaultCapacity)
		)

		_, err := r.Month(context.Background(), 12, 2030)

		assert.Equal(t, failure.NotFound, failure.KindOf(err))
		assert.Equal(t, int64(1), fetcher.calls.Load())
	})

	t.Run("month before the floor", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockFetcher{}
		r := newTestResolver(t, registry.NewDefault(), fetcher, registry.DefaultCapacity)

		_, err := r.Month(context.Background(), 12, 2012)

		assert.Equal(t, failure.DateBeforeFloor, failure.KindOf(err))
		assert.Equal(t, int64(0), fetcher.calls.Load())
	})

	t.Run("floor inside the month", func(t *testing.T) {
		t.Parallel()

		var (
			reg     = registry.NewDefault()
			fetcher = staticFetcher(siitest.Page(siitest.CalendarValues(2024)))
			r       = newTestResolver(t, reg, fetcher, registry.DefaultCapacity)
		)

		reg.UpdateDates(registry.Dates{
			MinDate: time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC),
		})

		result, err := r.Month(context.Background(), 2, 2024)
		require.NoError(t, err)

		require.Len(t, result.Values, 20)
		assert.Equal(t, 10, result.Values[0].Date.Day())
		assert.Equal(t, 29, result.Values[19].Date.Day())
	})

	t.Run("invalid month", func(t *testing.T) {
		t.Parallel()

		fetcher := &mockFetcher{}
		r := newTestResolver(t, registry.NewDefault(), fetcher, registry.DefaultCapacity)

		for _, month := range []int{0, 13, -1} {
			_, err := r.Month(context.Background(), month, 2024)

			assert.Equal(t, failure.CalendarInvalid, failure.KindOf(err))
		}

		assert.Equal(t, int64(0), fetcher.calls.Load())
	})

	t.Run("non numeric value aborts the walk", func(t *testing.T) {
		t.Parallel()

		page := siitest.Page(func(day, _ int) string {
			if day == 3 {
				return "n/a"
			}

			return "36.000,00"
		})

		r := newTestResolver(t, registry.NewDefault(), staticFetcher(page), registry.DefaultCapacity)

		_, err := r.Month(context.Background(), 1, 2024)

		assert.Equal(t, failure.InvalidValue, failure.KindOf(err))
	})

	t.Run("unreachable source terminates the walk", func(t *testing.T) {
		t.Parallel()

		f := sii.NewFetcher()
		defer f.Close()

		r := newTestResolver(
			t,
			registry.NewDefault(),
			f,
			registry.DefaultCapacity,
			WithURLTemplate(closedURLTemplate(t)),
		)

		_, err := r.Month(context.Background(), 3, 2024)

		assert.Equal(t, failure.Transport, failure.KindOf(err))
	})

	t.Run("misconfigured selectors abort the walk", func(t *testing.T) {
		t.Parallel()

		var (
			reg     = registry.NewDefault()
			fetcher = staticFetcher(siitest.Page(siitest.CalendarValues(2024)))
			r       = newTestResolver(t, reg, fetcher, registry.DefaultCapacity)
		)

		reg.UpdateSelectors(registry.Selectors{RowTag: "row"})

		_, err := r.Month(context.Background(), 6, 2024)
		assert.Equal(t, failure.NotFound, failure.KindOf(err))

		reg.Reset()

		result, err := r.Month(context.Background(), 6, 2024)
		require.NoError(t, err)

		assert.Len(t, result.Values, 30)
	})
}
