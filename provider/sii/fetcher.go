package sii

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"resty.dev/v3"

	"github.com/sig-0/ufrates/failure"
	"github.com/sig-0/ufrates/registry"
)

// DefaultURLTemplate is the yearly UF page. {year} is replaced with the
// four-digit year
const DefaultURLTemplate = "https://www.sii.cl/valores_y_fechas/uf/uf{year}.htm"

const yearPlaceholder = "{year}"

var errMissingYearPlaceholder = errors.New("url template is missing the {year} placeholder")

// PageURL returns the source page URL for the given year
func PageURL(template string, year int) string {
	return strings.ReplaceAll(template, yearPlaceholder, strconv.Itoa(year))
}

// ValidateURLTemplate checks that the template can address yearly pages
func ValidateURLTemplate(template string) error {
	if !strings.Contains(template, yearPlaceholder) {
		return errMissingYearPlaceholder
	}

	return nil
}

type connectTimeoutKey struct{}

// FetcherOption is a Fetcher configuration option
type FetcherOption func(f *Fetcher)

// WithRateLimit caps the outbound request rate. Defaults to unlimited
func WithRateLimit(limit rate.Limit, burst int) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithFetcherLogger specifies the logger for the fetcher
func WithFetcherLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// Fetcher downloads source pages
type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewFetcher creates a new page fetcher. Timeouts and the user agent are
// supplied per call, so they follow runtime configuration changes
func NewFetcher(opts ...FetcherOption) *Fetcher {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = dialWithConnectTimeout

	f := &Fetcher{
		client:  resty.NewWithClient(&http.Client{Transport: tr}),
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Close releases the underlying HTTP client
func (f *Fetcher) Close() error {
	return f.client.Close()
}

// Fetch issues a single GET for the page at url and returns its body.
// Failures are classified as:
//   - 404 -> failure.NotFound
//   - any other non-2xx -> failure.Upstream
//   - deadline / network timeout -> failure.Timeout
//   - anything else below HTTP -> failure.Transport
func (f *Fetcher) Fetch(
	ctx context.Context,
	url string,
	timeouts registry.Timeouts,
	userAgent string,
) (string, error) {
	ctx, cancelFn := context.WithTimeout(ctx, timeouts.Total)
	defer cancelFn()

	if err := f.limiter.Wait(ctx); err != nil {
		return "", failure.Wrap(failure.Timeout, "rate limit wait exceeded the deadline", err)
	}

	ctx = context.WithValue(ctx, connectTimeoutKey{}, timeouts.Connect)

	start := time.Now()

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		Get(url)
	if err != nil {
		f.logger.Debug(
			"unable to execute GET request",
			"url", url,
			"err", err,
		)

		return "", classifyRequestError(ctx, err)
	}

	f.logger.Debug(
		"fetched source page",
		"url", url,
		"status", resp.StatusCode(),
		"took", time.Since(start).String(),
	)

	switch status := resp.StatusCode(); {
	case status == http.StatusNotFound:
		return "", failure.NewNotFound(fmt.Sprintf("page %s not found", url))
	case !resp.IsSuccess():
		return "", failure.NewUpstream(status)
	}

	return resp.String(), nil
}

// classifyRequestError maps a transport-level error to its failure kind
func classifyRequestError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failure.Wrap(failure.Timeout, "request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failure.Wrap(failure.Timeout, "request timed out", err)
	}

	return failure.Wrap(failure.Transport, "unable to reach source", err)
}

// dialWithConnectTimeout dials using the connect timeout carried by the request context
func dialWithConnectTimeout(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{
		KeepAlive: 30 * time.Second,
	}

	if timeout, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && timeout > 0 {
		d.Timeout = timeout
	}

	return d.DialContext(ctx, network, addr)
}
