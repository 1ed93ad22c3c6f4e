// Package registry holds the overridable parameters that describe where the
// UF data lives and how it is fetched.
//
// A Registry is created once per process and handed to the resolver. Every
// lookup takes a Snapshot and passes it down the fetch / extract chain, so an
// update made at runtime applies to the next lookup without a restart.
package registry

import (
	"errors"
	"sync"
	"time"
)

const (
	DefaultTableID  = "table_export"
	DefaultBodyTag  = "tbody"
	DefaultRowTag   = "tr"
	DefaultCellTag  = "td"
	DefaultCapacity = 100

	DefaultTotalTimeout   = 15 * time.Second
	DefaultConnectTimeout = 5 * time.Second

	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// DefaultMinDate is the earliest date the source publishes values for
var DefaultMinDate = time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	ErrInvalidSelectors = errors.New("invalid selectors, all tags are required")
	ErrInvalidTimeouts  = errors.New("invalid timeouts, must be positive")
	ErrInvalidCapacity  = errors.New("invalid cache capacity, must be positive")
	ErrInvalidMinDate   = errors.New("invalid minimum date")
	ErrInvalidUserAgent = errors.New("invalid user agent")
)

// Selectors describe the HTML shape leading to a UF cell
type Selectors struct {
	TableID string // id attribute of the table
	BodyTag string // body element inside the table
	RowTag  string // one row per day
	CellTag string // one cell per month
}

// Timeouts bound the outbound page fetch
type Timeouts struct {
	Total   time.Duration // whole request, including the body read
	Connect time.Duration // TCP dial
}

// Cache configures the resolution cache
type Cache struct {
	Capacity int
}

// Dates holds the date floor gating every lookup
type Dates struct {
	MinDate time.Time
}

// MinYear returns the floor year
func (d Dates) MinYear() int {
	return d.MinDate.Year()
}

// Header holds the outbound request headers
type Header struct {
	UserAgent string
}

// Settings is a point-in-time copy of every option group
type Settings struct {
	Dates     Dates
	Selectors Selectors
	Header    Header
	Timeouts  Timeouts
	Cache     Cache
}

// DefaultSettings returns the built-in settings
func DefaultSettings() Settings {
	return Settings{
		Selectors: Selectors{
			TableID: DefaultTableID,
			BodyTag: DefaultBodyTag,
			RowTag:  DefaultRowTag,
			CellTag: DefaultCellTag,
		},
		Timeouts: Timeouts{
			Total:   DefaultTotalTimeout,
			Connect: DefaultConnectTimeout,
		},
		Cache: Cache{
			Capacity: DefaultCapacity,
		},
		Dates: Dates{
			MinDate: DefaultMinDate,
		},
		Header: Header{
			UserAgent: DefaultUserAgent,
		},
	}
}

// Validate checks that the settings can drive a lookup
func (s Settings) Validate() error {
	sel := s.Selectors
	if sel.TableID == "" || sel.BodyTag == "" || sel.RowTag == "" || sel.CellTag == "" {
		return ErrInvalidSelectors
	}

	if s.Timeouts.Total <= 0 || s.Timeouts.Connect <= 0 {
		return ErrInvalidTimeouts
	}

	if s.Cache.Capacity <= 0 {
		return ErrInvalidCapacity
	}

	if s.Dates.MinDate.IsZero() {
		return ErrInvalidMinDate
	}

	if s.Header.UserAgent == "" {
		return ErrInvalidUserAgent
	}

	return nil
}

// Registry is the process-wide, mutable settings store.
// Concurrent updates and lookups are last-write-wins
type Registry struct {
	defaults Settings
	current  Settings

	mu sync.RWMutex
}

// New creates a registry whose defaults (restored by the Reset methods) are
// the given settings
func New(defaults Settings) (*Registry, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	return &Registry{
		defaults: defaults,
		current:  defaults,
	}, nil
}

// NewDefault creates a registry backed by DefaultSettings
func NewDefault() *Registry {
	r, _ := New(DefaultSettings()) //nolint:errcheck // defaults are valid

	return r
}

// Snapshot returns a copy of the current settings
func (r *Registry) Snapshot() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.current
}

// Defaults returns the settings the registry resets to
func (r *Registry) Defaults() Settings {
	return r.defaults
}

// UpdateSelectors overrides the non-empty fields of u
func (r *Registry) UpdateSelectors(u Selectors) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := &r.current.Selectors

	setString(&cur.TableID, u.TableID)
	setString(&cur.BodyTag, u.BodyTag)
	setString(&cur.RowTag, u.RowTag)
	setString(&cur.CellTag, u.CellTag)
}

// UpdateTimeouts overrides the positive fields of u
func (r *Registry) UpdateTimeouts(u Timeouts) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.Total > 0 {
		r.current.Timeouts.Total = u.Total
	}

	if u.Connect > 0 {
		r.current.Timeouts.Connect = u.Connect
	}
}

// UpdateCache overrides the cache group. The capacity is read by the cache
// at construction, so the new value only applies to caches built afterwards
func (r *Registry) UpdateCache(u Cache) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.Capacity > 0 {
		r.current.Cache.Capacity = u.Capacity
	}
}

// UpdateDates overrides the date floor, if set
func (r *Registry) UpdateDates(u Dates) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !u.MinDate.IsZero() {
		r.current.Dates.MinDate = u.MinDate
	}
}

// UpdateHeader overrides the user agent, if set
func (r *Registry) UpdateHeader(u Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	setString(&r.current.Header.UserAgent, u.UserAgent)
}

func (r *Registry) ResetSelectors() {
	r.mu.Lock()
	r.current.Selectors = r.defaults.Selectors
	r.mu.Unlock()
}

func (r *Registry) ResetTimeouts() {
	r.mu.Lock()
	r.current.Timeouts = r.defaults.Timeouts
	r.mu.Unlock()
}

func (r *Registry) ResetCache() {
	r.mu.Lock()
	r.current.Cache = r.defaults.Cache
	r.mu.Unlock()
}

func (r *Registry) ResetDates() {
	r.mu.Lock()
	r.current.Dates = r.defaults.Dates
	r.mu.Unlock()
}

func (r *Registry) ResetHeader() {
	r.mu.Lock()
	r.current.Header = r.defaults.Header
	r.mu.Unlock()
}

// Reset restores every group to its defaults
func (r *Registry) Reset() {
	r.mu.Lock()
	r.current = r.defaults
	r.mu.Unlock()
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
