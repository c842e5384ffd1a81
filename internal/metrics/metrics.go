// Package metrics exposes console activity as Prometheus collectors. A
// Collector implements the listing and form observer hooks so screens report
// into it without importing Prometheus themselves.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-formgrid/pkg/form"
	"github.com/goliatone/go-formgrid/pkg/listing"
)

const namespace = "formgrid"

// Collector counts page loads and submissions per entity.
type Collector struct {
	pages       *prometheus.CounterVec
	totals      *prometheus.GaugeVec
	submissions *prometheus.CounterVec
}

var (
	_ listing.Observer = (*Collector)(nil)
	_ form.Observer    = (*Collector)(nil)
)

// New builds a collector and registers it with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_fetches_total",
			Help:      "Page fetches by entity and outcome (loaded, failed, discarded).",
		}, []string{"entity", "outcome"}),
		totals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_total",
			Help:      "Last total count reported for the collection.",
		}, []string{"entity"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Form submissions by entity, mode and outcome.",
		}, []string{"entity", "mode", "outcome"}),
	}
	if reg == nil {
		return c, nil
	}
	var err error
	if c.pages, err = register(reg, c.pages); err != nil {
		return nil, err
	}
	if c.totals, err = register(reg, c.totals); err != nil {
		return nil, err
	}
	if c.submissions, err = register(reg, c.submissions); err != nil {
		return nil, err
	}
	return c, nil
}

// PageLoaded implements listing.Observer.
func (c *Collector) PageLoaded(entity string, page listing.Page) {
	c.pages.WithLabelValues(entity, "loaded").Inc()
	c.totals.WithLabelValues(entity).Set(float64(page.TotalCount))
}

// PageFailed implements listing.Observer.
func (c *Collector) PageFailed(entity string, _ int, _ error) {
	c.pages.WithLabelValues(entity, "failed").Inc()
}

// PageDiscarded implements listing.Observer.
func (c *Collector) PageDiscarded(entity string, _ int) {
	c.pages.WithLabelValues(entity, "discarded").Inc()
}

// Submitted implements form.Observer.
func (c *Collector) Submitted(entity string, mode form.Mode, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.submissions.WithLabelValues(entity, string(mode), outcome).Inc()
}

// register adds col to reg, reusing an identical collector that is already
// registered.
func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return col, err
	}
	return col, nil
}
