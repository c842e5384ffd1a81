package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/console"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

type stubDriver struct {
	inputs       []string
	choices      []string
	confirm      []bool
	infoMessages []string
	inputPos     int
	choicePos    int
	confirmPos   int
	selectSeen   [][]string
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

// Select answers with the scripted option label so tests do not depend on
// option positions.
func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selectSeen = append(s.selectSeen, cfg.Options)
	if s.choicePos >= len(s.choices) {
		return -1, errors.New("no select scripted")
	}
	val := s.choices[s.choicePos]
	s.choicePos++
	idx := indexOf(cfg.Options, val)
	if idx < 0 {
		return -1, fmt.Errorf("option %q not offered in %v", val, cfg.Options)
	}
	return idx, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

type memCollection struct {
	mu      sync.Mutex
	records []map[string]any
	nextID  int
	updates int
}

func (m *memCollection) List(_ context.Context, page, size int) (client.ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := page * size
	if start > len(m.records) {
		start = len(m.records)
	}
	end := start + size
	if end > len(m.records) {
		end = len(m.records)
	}
	return client.ListResult{Items: append([]map[string]any(nil), m.records[start:end]...), Total: len(m.records)}, nil
}

func (m *memCollection) Get(_ context.Context, id string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r["id"] == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memCollection) Create(_ context.Context, payload map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec := map[string]any{}
	for k, v := range payload {
		rec[k] = v
	}
	rec["id"] = fmt.Sprintf("n%d", m.nextID)
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memCollection) Update(_ context.Context, payload map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	for i, r := range m.records {
		if r["id"] == payload["id"] {
			m.records[i] = payload
			return payload, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memCollection) Delete(_ context.Context, id string) error {
	return errors.New("unsupported")
}

func newScreen(t *testing.T, api client.Collection) *console.Screen {
	t.Helper()
	s, err := schema.New("customer", []schema.Field{
		{Key: "name", Label: "Name", Required: true},
		{Key: "email", Label: "Email", Kind: schema.KindEmail},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	scr, err := console.New(api, s, console.WithTitle("Customers"))
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	return scr
}

func TestRunScreenAddsRecordWithRetryOnInvalidInput(t *testing.T) {
	api := &memCollection{records: []map[string]any{{"id": "c1", "name": "Acme", "email": "a@acme.test"}}}
	driver := &stubDriver{
		choices: []string{actionAdd, actionBack},
		inputs:  []string{"", "Beta", "not-an-email", "b@beta.test"},
		confirm: []bool{true},
	}
	var out bytes.Buffer
	c := New(WithPromptDriver(driver), WithOutput(&out))

	if err := c.RunScreen(context.Background(), newScreen(t, api)); err != nil {
		t.Fatalf("RunScreen: %v", err)
	}

	if len(api.records) != 2 || api.records[1]["name"] != "Beta" {
		t.Fatalf("expected Beta to be created, got %#v", api.records)
	}
	joined := strings.Join(driver.infoMessages, "\n")
	if !strings.Contains(joined, "Invalid Name: Required") {
		t.Fatalf("expected required message, got %q", joined)
	}
	if !strings.Contains(joined, "Invalid Email: Invalid email address") {
		t.Fatalf("expected email message, got %q", joined)
	}
	if !strings.Contains(joined, "Customers created") {
		t.Fatalf("expected saved notice, got %q", joined)
	}
	if !strings.Contains(out.String(), "Acme") {
		t.Fatalf("expected grid output to include rows, got %q", out.String())
	}
}

func TestRunScreenEditsSelectedRow(t *testing.T) {
	api := &memCollection{records: []map[string]any{
		{"id": "c1", "name": "Acme", "email": "a@acme.test"},
		{"id": "c2", "name": "Beta", "email": "b@beta.test"},
	}}
	driver := &stubDriver{
		choices: []string{actionEdit, "2. Beta", actionBack},
		inputs:  []string{"Beta Corp", "b@beta.test"},
		confirm: []bool{true},
	}
	c := New(WithPromptDriver(driver), WithOutput(&bytes.Buffer{}))

	if err := c.RunScreen(context.Background(), newScreen(t, api)); err != nil {
		t.Fatalf("RunScreen: %v", err)
	}
	if api.updates != 1 || api.records[1]["name"] != "Beta Corp" {
		t.Fatalf("expected update of c2, got %#v (updates=%d)", api.records, api.updates)
	}
	if len(api.records) != 2 {
		t.Fatalf("edit must not create records")
	}
}

func TestRunScreenCancelledFormMakesNoWrites(t *testing.T) {
	api := &memCollection{}
	driver := &stubDriver{
		choices: []string{actionAdd, actionBack},
		inputs:  []string{"Gamma", ""},
		confirm: []bool{false},
	}
	c := New(WithPromptDriver(driver), WithOutput(&bytes.Buffer{}))
	scr := newScreen(t, api)

	if err := c.RunScreen(context.Background(), scr); err != nil {
		t.Fatalf("RunScreen: %v", err)
	}
	if len(api.records) != 0 {
		t.Fatalf("cancelled form must not create records")
	}
	if scr.Form().State().String() != "closed" {
		t.Fatalf("form should be closed, got %s", scr.Form().State())
	}
}

func TestActionsOfferPagingAndHideDelete(t *testing.T) {
	records := make([]map[string]any, 0, 25)
	for i := 0; i < 25; i++ {
		records = append(records, map[string]any{"id": fmt.Sprintf("c%d", i), "name": fmt.Sprintf("Customer %d", i)})
	}
	api := &memCollection{records: records}
	driver := &stubDriver{choices: []string{actionNext, actionBack}}
	c := New(WithPromptDriver(driver), WithOutput(&bytes.Buffer{}))

	if err := c.RunScreen(context.Background(), newScreen(t, api)); err != nil {
		t.Fatalf("RunScreen: %v", err)
	}
	first := strings.Join(driver.selectSeen[0], ",")
	if !strings.Contains(first, actionNext) || strings.Contains(first, actionPrev) || strings.Contains(first, actionDelete) {
		t.Fatalf("unexpected first-page actions %q", first)
	}
	second := strings.Join(driver.selectSeen[1], ",")
	if strings.Contains(second, actionNext) || !strings.Contains(second, actionPrev) {
		t.Fatalf("unexpected last-page actions %q", second)
	}
}

func TestRunWithoutScreens(t *testing.T) {
	c := New(WithPromptDriver(&stubDriver{}))
	if err := c.Run(context.Background()); !errors.Is(err, ErrNoScreens) {
		t.Fatalf("expected ErrNoScreens, got %v", err)
	}
}

type staticFeed []any

func (f staticFeed) Fetch(context.Context, string) (any, error) { return []any(f), nil }

func TestRunOpensRecentActivity(t *testing.T) {
	api := &memCollection{records: []map[string]any{
		{"id": "c1", "name": "Acme", "email": "ops@acme.test"},
	}}
	feed := console.NewFeed(staticFeed{
		map[string]any{"id": "m1", "comment": "Renewal signed", "user": map[string]any{"name": "Priya"}, "createdDate": "2024-04-08", "customerId": "c1"},
		map[string]any{"id": "m2", "comment": "Lead call", "createdDate": "2024-04-07", "leadId": "l1"},
	}, "/api/comment/recent",
		console.WithReference("customerId", "customer"),
		console.WithReference("leadId", "lead"),
	)
	driver := &stubDriver{choices: []string{
		actionRecent, "2024-04-08 Priya: Renewal signed",
		actionRecent, "2024-04-07 Someone: Lead call",
		actionQuit,
	}}
	var out bytes.Buffer
	c := New(WithPromptDriver(driver), WithOutput(&out), WithFeed(feed))

	scr := newScreen(t, api)
	if err := c.Run(context.Background(), scr); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "ops@acme.test") {
		t.Fatalf("expected detail of c1 in output:\n%s", out.String())
	}
	if _, open := scr.Viewing(); open {
		t.Fatalf("detail view left open")
	}
	if len(driver.infoMessages) == 0 || !strings.Contains(strings.Join(driver.infoMessages, "\n"), "no screen for activity") {
		t.Fatalf("expected a warning for the unmanaged entity, got %v", driver.infoMessages)
	}
}
