package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sig-0/ufrates/failure"
	"github.com/sig-0/ufrates/provider/sii"
	"github.com/sig-0/ufrates/storage/types"
)

const maxDay = 31

// Month walks the given month day by day, collecting published values.
//
// The walk stops at the first day missing from the calendar (e.g. 30/02) or
// at the first day with no published value; neither is an error. Any other
// failure aborts the walk. A walk that collects nothing fails with
// failure.NotFound
func (r *Resolver) Month(ctx context.Context, month, year int) (*types.MonthlyResult, error) {
	if !dayExists(1, month, year) {
		return nil, failure.New(
			failure.CalendarInvalid,
			fmt.Sprintf("%02d/%d is not a valid month", month, year),
		)
	}

	var (
		dates = r.registry.Snapshot().Dates
		floor = floorDay(dates)
		last  = time.Date(year, time.Month(month), daysIn(month, year), 0, 0, 0, 0, time.UTC)
	)

	// The whole month precedes the floor
	if err := checkFloor(last, dates); err != nil {
		return nil, err
	}

	// The floor may fall inside the requested month
	startDay := 1
	if floor.Year() == year && int(floor.Month()) == month {
		startDay = floor.Day()
	}

	var (
		result = &types.MonthlyResult{}
		sum    = decimal.Zero
	)

	for day := startDay; day <= maxDay; day++ {
		if !dayExists(day, month, year) {
			break // end of the month
		}

		raw, err := r.Resolve(ctx, day, month, year)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve day %d: %w", day, err)
		}

		if raw == "" {
			break // nothing published past this day
		}

		value, err := sii.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("unable to normalize day %d: %w", day, err)
		}

		sum = sum.Add(value)

		result.Values = append(result.Values, types.ResolvedUF{
			Date:  time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
			Value: sii.FormatValue(value),
		})
	}

	if len(result.Values) == 0 {
		return nil, failure.NewNotFound(
			fmt.Sprintf("no UF values published for %02d/%d", month, year),
		)
	}

	average := sii.FormatValue(sum.Div(decimal.NewFromInt(int64(len(result.Values)))))
	result.Average = &average

	return result, nil
}
