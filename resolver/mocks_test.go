package resolver

import (
	"context"
	"sync/atomic"

	"github.com/sig-0/ufrates/registry"
)

type fetchDelegate func(context.Context, string, registry.Timeouts, string) (string, error)

type mockFetcher struct {
	fetchFn fetchDelegate
	calls   atomic.Int64
}

func (m *mockFetcher) Fetch(
	ctx context.Context,
	url string,
	timeouts registry.Timeouts,
	userAgent string,
) (string, error) {
	m.calls.Add(1)

	if m.fetchFn != nil {
		return m.fetchFn(ctx, url, timeouts, userAgent)
	}

	return "", nil
}

// staticFetcher serves the same page for every URL
func staticFetcher(page string) *mockFetcher {
	return &mockFetcher{
		fetchFn: func(context.Context, string, registry.Timeouts, string) (string, error) {
			return page, nil
		},
	}
}
