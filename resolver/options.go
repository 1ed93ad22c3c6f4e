package resolver

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type Option func(r *Resolver)

// WithLogger specifies the logger for the resolver
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithURLTemplate specifies the {year} template of the source pages.
// Defaults to the SII website
func WithURLTemplate(template string) Option {
	return func(r *Resolver) {
		r.urlTemplate = template
	}
}

// WithRegisterer specifies where the resolver metrics are registered.
// Defaults to a private registry
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Resolver) {
		r.registerer = reg
	}
}
