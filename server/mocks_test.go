package server

import (
	"context"
	"time"

	"github.com/sig-0/ufrates/registry"
	"github.com/sig-0/ufrates/storage/types"
)

type (
	singleDelegate func(context.Context, int, int, int) (*types.ResolvedUF, error)
	monthDelegate  func(context.Context, int, int) (*types.MonthlyResult, error)
)

type mockResolver struct {
	singleFn singleDelegate
	monthFn  monthDelegate
	minDate  time.Time
}

func (m *mockResolver) Single(ctx context.Context, day, month, year int) (*types.ResolvedUF, error) {
	if m.singleFn != nil {
		return m.singleFn(ctx, day, month, year)
	}

	return nil, nil
}

func (m *mockResolver) Month(ctx context.Context, month, year int) (*types.MonthlyResult, error) {
	if m.monthFn != nil {
		return m.monthFn(ctx, month, year)
	}

	return nil, nil
}

func (m *mockResolver) MinDate() time.Time {
	if m.minDate.IsZero() {
		return registry.DefaultMinDate
	}

	return m.minDate
}
