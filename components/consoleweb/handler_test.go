package consoleweb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/console"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

type fakeCollection struct {
	mu      sync.Mutex
	records []map[string]any
	lists   []int
	creates int
	deletes []string
	failing map[int]bool
}

func (f *fakeCollection) List(_ context.Context, page, size int) (client.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, page)
	if f.failing[page] {
		return client.ListResult{}, fmt.Errorf("page %d unavailable", page)
	}
	start := min(page*size, len(f.records))
	end := min(start+size, len(f.records))
	return client.ListResult{Items: append([]map[string]any(nil), f.records[start:end]...), Total: len(f.records)}, nil
}

func (f *fakeCollection) Get(_ context.Context, id string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r["id"] == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeCollection) Create(_ context.Context, payload map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	rec := map[string]any{"id": fmt.Sprintf("n%d", f.creates)}
	for k, v := range payload {
		if k != "id" {
			rec[k] = v
		}
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeCollection) Update(_ context.Context, payload map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r["id"] == payload["id"] {
			f.records[i] = payload
			return payload, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeCollection) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeCollection) listCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.lists...)
}

func setup(t *testing.T, opts ...console.Option) (http.Handler, *console.Screen, *fakeCollection) {
	t.Helper()
	api := &fakeCollection{}
	for i := 1; i <= 5; i++ {
		api.records = append(api.records, map[string]any{
			"id":    fmt.Sprintf("c%d", i),
			"name":  fmt.Sprintf("Customer %d", i),
			"email": fmt.Sprintf("c%d@example.test", i),
		})
	}
	s, err := schema.New("customer", []schema.Field{
		{Key: "name", Label: "Name", Required: true},
		{Key: "email", Label: "Email", Kind: schema.KindEmail},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	scr, err := console.New(api, s, append([]console.Option{console.WithTitle("Customers"), console.WithPageSize(2)}, opts...)...)
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	r := chi.NewRouter()
	prefix, err := RegisterRoutes(r, "", []*console.Screen{scr})
	if err != nil {
		t.Fatalf("register routes: %v", err)
	}
	if prefix != "/console" {
		t.Fatalf("unexpected prefix %q", prefix)
	}
	return r, scr, api
}

func do(h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDashboardListsTotals(t *testing.T) {
	h, _, _ := setup(t)
	rec := do(h, http.MethodGet, "/console/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/console/customer"`) || !strings.Contains(body, `<p class="count">5</p>`) {
		t.Fatalf("dashboard missing tile:\n%s", body)
	}
}

type feedSource struct {
	payload any
	err     error
}

func (f feedSource) Fetch(context.Context, string) (any, error) { return f.payload, f.err }

func feedRouter(t *testing.T, scr *console.Screen, src feedSource) http.Handler {
	t.Helper()
	feed := console.NewFeed(src, "/api/comment/recent",
		console.WithReference("customerId", "customer"),
		console.WithReference("leadId", "lead"),
	)
	r := chi.NewRouter()
	if _, err := RegisterRoutes(r, "", []*console.Screen{scr}, WithFeed(feed)); err != nil {
		t.Fatalf("register routes: %v", err)
	}
	return r
}

func TestDashboardShowsRecentActivity(t *testing.T) {
	_, scr, _ := setup(t)
	h := feedRouter(t, scr, feedSource{payload: []any{
		map[string]any{"id": "m1", "comment": "Renewal signed", "user": map[string]any{"name": "Priya"}, "customerId": "c4"},
		map[string]any{"id": "m2", "comment": "Lead note", "leadId": "l1"},
	}})

	body := do(h, http.MethodGet, "/console/", nil).Body.String()
	if !strings.Contains(body, "Renewal signed") || !strings.Contains(body, `href="/console/customer/rows/c4"`) {
		t.Fatalf("dashboard missing activity:\n%s", body)
	}
	if strings.Contains(body, "Lead note") {
		t.Fatalf("activity for an unmounted entity was linked:\n%s", body)
	}

	// c4 lives on the second page; the detail route loads it by id.
	body = do(h, http.MethodGet, "/console/customer/rows/c4", nil).Body.String()
	if !strings.Contains(body, "c4@example.test") {
		t.Fatalf("expected detail of c4:\n%s", body)
	}
}

func TestDashboardReportsFeedFailure(t *testing.T) {
	_, scr, _ := setup(t)
	h := feedRouter(t, scr, feedSource{err: errors.New("comments offline")})

	rec := do(h, http.MethodGet, "/console/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "comments offline") || !strings.Contains(body, `<p class="count">5</p>`) {
		t.Fatalf("expected totals and a feed notice:\n%s", body)
	}
}

func TestScreenFetchesOncePerPage(t *testing.T) {
	h, _, api := setup(t)

	if rec := do(h, http.MethodGet, "/console/customer", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec := do(h, http.MethodGet, "/console/customer?page=1", nil)
	if !strings.Contains(rec.Body.String(), "Page 2 of 3 (5 total)") {
		t.Fatalf("expected second page:\n%s", rec.Body.String())
	}
	do(h, http.MethodGet, "/console/customer?page=1", nil)

	if got := api.listCalls(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("unexpected list calls %v", got)
	}
}

func TestAddSubmitRefetchesCurrentPage(t *testing.T) {
	h, scr, api := setup(t)
	do(h, http.MethodGet, "/console/customer?page=1", nil)

	rec := do(h, http.MethodPost, "/console/customer/add", url.Values{})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/console/customer?page=1" {
		t.Fatalf("unexpected redirect %d %q", rec.Code, rec.Header().Get("Location"))
	}

	session := scr.Form().SessionID()
	rec = do(h, http.MethodPost, "/console/customer/form", url.Values{
		"_session": {session},
		"_action":  {"save"},
		"name":     {"Delta"},
		"email":    {"d@delta.test"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if api.creates != 1 {
		t.Fatalf("expected one create, got %d", api.creates)
	}
	calls := api.listCalls()
	if last := calls[len(calls)-1]; last != 1 {
		t.Fatalf("expected refetch of page 1, got calls %v", calls)
	}

	page := do(h, http.MethodGet, "/console/customer?page=1", nil).Body.String()
	if !strings.Contains(page, "Customers created") {
		t.Fatalf("expected saved notice:\n%s", page)
	}
}

func TestSaveAfterFailedPageReturnsToDisplayedPage(t *testing.T) {
	h, scr, api := setup(t)
	do(h, http.MethodGet, "/console/customer?page=1", nil)

	api.mu.Lock()
	api.failing = map[int]bool{2: true}
	api.mu.Unlock()
	body := do(h, http.MethodGet, "/console/customer?page=2", nil).Body.String()
	if !strings.Contains(body, "Page 2 of 3") || !strings.Contains(body, `data-id="c3"`) {
		t.Fatalf("expected page 2 still displayed:\n%s", body)
	}

	rec := do(h, http.MethodPost, "/console/customer/rows/c3/edit", url.Values{})
	if loc := rec.Header().Get("Location"); loc != "/console/customer?page=1" {
		t.Fatalf("edit redirected to %q", loc)
	}
	rec = do(h, http.MethodPost, "/console/customer/form", url.Values{
		"_session": {scr.Form().SessionID()},
		"_action":  {"save"},
		"name":     {"Customer 3 Ltd"},
		"email":    {"c3@example.test"},
	})
	if loc := rec.Header().Get("Location"); loc != "/console/customer?page=1" {
		t.Fatalf("save redirected to %q", loc)
	}
	calls := api.listCalls()
	if last := calls[len(calls)-1]; last != 1 {
		t.Fatalf("save refetched page %d, calls %v", last, calls)
	}
}

func TestInvalidSubmitKeepsFormOpen(t *testing.T) {
	h, scr, api := setup(t)
	do(h, http.MethodGet, "/console/customer", nil)
	do(h, http.MethodPost, "/console/customer/add", url.Values{})

	do(h, http.MethodPost, "/console/customer/form", url.Values{
		"_session": {scr.Form().SessionID()},
		"_action":  {"save"},
		"name":     {""},
		"email":    {"nope"},
	})
	if api.creates != 0 {
		t.Fatalf("invalid draft reached the collection")
	}
	body := do(h, http.MethodGet, "/console/customer", nil).Body.String()
	if !strings.Contains(body, `class="field-error"`) || !strings.Contains(body, `value="nope"`) {
		t.Fatalf("expected form with errors:\n%s", body)
	}
}

func TestStaleSessionPostIgnored(t *testing.T) {
	h, scr, api := setup(t)
	do(h, http.MethodGet, "/console/customer", nil)
	do(h, http.MethodPost, "/console/customer/add", url.Values{})
	old := scr.Form().SessionID()
	do(h, http.MethodPost, "/console/customer/cancel", url.Values{})
	do(h, http.MethodPost, "/console/customer/add", url.Values{})

	do(h, http.MethodPost, "/console/customer/form", url.Values{
		"_session": {old},
		"_action":  {"save"},
		"name":     {"Ghost"},
		"email":    {"g@ghost.test"},
	})
	if api.creates != 0 {
		t.Fatalf("stale session submitted")
	}
	if got := scr.Form().Draft().Get("name"); got != "" {
		t.Fatalf("stale post edited the new draft: %q", got)
	}
}

func TestDeleteRequiresOptIn(t *testing.T) {
	h, _, api := setup(t)
	do(h, http.MethodGet, "/console/customer", nil)
	do(h, http.MethodPost, "/console/customer/rows/c1/delete", url.Values{})
	if len(api.deletes) != 0 {
		t.Fatalf("delete executed while disabled")
	}

	h, _, api = setup(t, console.WithAllowDelete(true))
	do(h, http.MethodGet, "/console/customer", nil)
	do(h, http.MethodPost, "/console/customer/rows/c1/delete", url.Values{})
	if len(api.deletes) != 1 || api.deletes[0] != "c1" {
		t.Fatalf("unexpected deletes %v", api.deletes)
	}
}

func TestViewRendersDetail(t *testing.T) {
	h, _, _ := setup(t)
	body := do(h, http.MethodGet, "/console/customer/rows/c2", nil).Body.String()
	if !strings.Contains(body, `class="detail" data-id="c2"`) || !strings.Contains(body, "c2@example.test") {
		t.Fatalf("expected detail view:\n%s", body)
	}
}

func TestUnknownEntityIsNotFound(t *testing.T) {
	h, _, _ := setup(t)
	if rec := do(h, http.MethodGet, "/console/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
