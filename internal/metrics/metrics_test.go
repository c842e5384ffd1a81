package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-formgrid/pkg/form"
	"github.com/goliatone/go-formgrid/pkg/listing"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.PageLoaded("customer", listing.Page{TotalCount: 45})
	c.PageLoaded("customer", listing.Page{TotalCount: 46})
	c.PageFailed("customer", 2, errors.New("boom"))
	c.PageDiscarded("customer", 1)
	c.Submitted("customer", form.ModeCreate, nil)
	c.Submitted("customer", form.ModeUpdate, errors.New("rejected"))

	if got := testutil.ToFloat64(c.pages.WithLabelValues("customer", "loaded")); got != 2 {
		t.Fatalf("loaded = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.pages.WithLabelValues("customer", "failed")); got != 1 {
		t.Fatalf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.totals.WithLabelValues("customer")); got != 46 {
		t.Fatalf("total = %v, want 46", got)
	}
	if got := testutil.ToFloat64(c.submissions.WithLabelValues("customer", "update", "error")); got != 1 {
		t.Fatalf("update errors = %v, want 1", got)
	}
}

func TestNewToleratesDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("first New: %v", err)
	}
	if _, err := New(reg); err != nil {
		t.Fatalf("second New: %v", err)
	}
}
