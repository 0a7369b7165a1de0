// Package services contains the server-side business logic: the item
// admission and update pipelines, the capacity notification trigger, the
// one-todolist-per-user guard, user accounts and todo-list exports.
package services

import (
	"time"

	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/metrics"
	"github.com/dmitrijs2005/todolist/internal/server/validation"
)

type options struct {
	logger    logging.Logger
	metrics   *metrics.Metrics
	validator validation.FieldValidator
	now       func() time.Time
}

// Option customises a service.
type Option func(*options)

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithValidator(v validation.FieldValidator) Option {
	return func(o *options) { o.validator = v }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(module string, opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	if o.validator == nil {
		o.validator = validation.New()
	}
	o.logger = o.logger.With("module", module)
	return o
}
