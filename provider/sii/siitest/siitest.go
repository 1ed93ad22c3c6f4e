// Package siitest builds SII-shaped pages and upstream servers for tests
package siitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"
)

// ValueFn returns the published text for a day and month ("" if unpublished)
type ValueFn func(day, month int) string

// CalendarValues publishes a deterministic value for every existing
// calendar day of the year, and nothing for the rest
func CalendarValues(year int) ValueFn {
	return func(day, month int) string {
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day {
			return "" // the day does not exist in this month
		}

		return Value(day, month)
	}
}

// Value is the deterministic value CalendarValues publishes: "3M.0DD,DD"
func Value(day, month int) string {
	return fmt.Sprintf("3%d.0%02d,%02d", month%10, day, day)
}

// Page renders a yearly page with 31 rows of 12 cells each
func Page(values ValueFn) string {
	var b strings.Builder

	b.WriteString(`<html><head><title>UF</title></head><body>`)
	b.WriteString(`<table id="table_export" class="table"><thead><tr><th>Día</th>`)

	for month := 1; month <= 12; month++ {
		fmt.Fprintf(&b, "<th>%d</th>", month)
	}

	b.WriteString(`</tr></thead><tbody>`)

	for day := 1; day <= 31; day++ {
		fmt.Fprintf(&b, "<tr><th>%d</th>", day)

		for month := 1; month <= 12; month++ {
			fmt.Fprintf(&b, "<td>\n  %s  </td>", values(day, month))
		}

		b.WriteString("</tr>")
	}

	b.WriteString(`</tbody></table></body></html>`)

	return b.String()
}

// Upstream is a counting test double for the SII website
type Upstream struct {
	*httptest.Server

	requests atomic.Int64
	lastUA   atomic.Value
}

// NewUpstream serves handler, counting every request
func NewUpstream(handler http.HandlerFunc) *Upstream {
	u := &Upstream{}

	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.requests.Add(1)
		u.lastUA.Store(r.UserAgent())

		handler(w, r)
	}))

	return u
}

// NewPageUpstream serves the same page for every path
func NewPageUpstream(page string) *Upstream {
	return NewUpstream(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)

		_, _ = w.Write([]byte(page)) //nolint:errcheck // Fine to ignore
	})
}

// Requests returns the number of requests served so far
func (u *Upstream) Requests() int64 {
	return u.requests.Load()
}

// LastUserAgent returns the user agent of the latest request
func (u *Upstream) LastUserAgent() string {
	v, _ := u.lastUA.Load().(string)

	return v
}

// URLTemplate returns a {year} URL template pointing at the upstream
func (u *Upstream) URLTemplate() string {
	return u.URL + "/uf{year}.htm"
}
