package form

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/options"
	"github.com/goliatone/go-formgrid/pkg/schema"
	"github.com/goliatone/go-formgrid/pkg/validation"
)

type call struct {
	op      string
	payload map[string]any
}

type fakeCollection struct {
	mu      sync.Mutex
	calls   []call
	err     error
	release chan struct{}
	entered chan struct{}
}

func (f *fakeCollection) record(op string, payload map[string]any) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{op, payload})
	err, release, entered := f.err, f.release, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return err
}

func (f *fakeCollection) List(context.Context, int, int) (client.ListResult, error) {
	return client.ListResult{}, f.record("list", nil)
}

func (f *fakeCollection) Get(context.Context, string) (map[string]any, error) {
	return nil, f.record("get", nil)
}

func (f *fakeCollection) Create(_ context.Context, payload map[string]any) (map[string]any, error) {
	if err := f.record("create", payload); err != nil {
		return nil, err
	}
	return map[string]any{"id": "new-1"}, nil
}

func (f *fakeCollection) Update(_ context.Context, payload map[string]any) (map[string]any, error) {
	if err := f.record("update", payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (f *fakeCollection) Delete(context.Context, string) error {
	return f.record("delete", nil)
}

func (f *fakeCollection) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}

type fetcher struct {
	err error
}

func (f fetcher) Fetch(context.Context, string) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []any{map[string]any{"id": "cp-1", "name": "Northwind"}}, nil
}

type submitLog struct {
	mu      sync.Mutex
	entries []string
}

func (s *submitLog) Submitted(entity string, mode Mode, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, fmt.Sprintf("%s/%s/%v", entity, mode, err == nil))
}

func customerSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("customer", []schema.Field{
		{Key: "name", Required: true},
		{Key: "email", Kind: schema.KindEmail, Required: true},
		{Key: "channelPartnerId", Kind: schema.KindDynamicOption, RemoteSource: &schema.RemoteSource{Path: "/api/channelpartner/nameList"}},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func newController(t *testing.T, api client.Collection, opts ...Option) *Controller {
	t.Helper()
	s := customerSchema(t)
	ids := 0
	opts = append([]Option{WithSessionIDs(func() string {
		ids++
		return fmt.Sprintf("s%d", ids)
	})}, opts...)
	return New(api, s, validation.MustBuilder().Compile(s), opts...)
}

func existing() *schema.Record {
	return &schema.Record{
		ID:     "c1",
		Values: map[string]string{"id": "c1", "name": "Acme", "email": "a@acme.test"},
		Extra:  map[string]any{"createdAt": "2024-01-01"},
	}
}

func TestOpenCreateAndSubmit(t *testing.T) {
	api := &fakeCollection{}
	refreshed := 0
	log := &submitLog{}
	c := newController(t, api, WithRefresh(func(context.Context) { refreshed++ }), WithObserver(log))
	ctx := context.Background()

	sess, err := c.Open(ctx, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if sess.Mode != ModeCreate || c.State() != StateEditing || sess.ID != "s1" {
		t.Fatalf("unexpected session %+v state %v", sess, c.State())
	}
	if diff := cmp.Diff(map[string]string{"id": "", "name": "", "email": "", "channelPartnerId": ""}, c.Draft().Values()); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}

	mustSet(t, c, "name", "Beta")
	mustSet(t, c, "email", "b@beta.test")
	rec, err := c.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.ID != "new-1" || rec.Values["name"] != "Beta" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if c.State() != StateClosed || !c.Draft().IsZero() {
		t.Fatalf("form not closed after success")
	}
	if diff := cmp.Diff([]string{"create"}, api.ops()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if refreshed != 1 {
		t.Fatalf("expected one refresh, got %d", refreshed)
	}
	if diff := cmp.Diff([]string{"customer/create/true"}, log.entries); diff != "" {
		t.Fatalf("observer mismatch (-want +got):\n%s", diff)
	}
}

func TestEditSubmitsUpdateWithExtras(t *testing.T) {
	api := &fakeCollection{}
	c := newController(t, api)
	ctx := context.Background()

	sess, err := c.Open(ctx, existing())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if sess.Mode != ModeUpdate {
		t.Fatalf("expected update mode, got %s", sess.Mode)
	}
	mustSet(t, c, "name", "Acme Ltd")
	if _, err := c.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	payload := api.calls[0].payload
	if api.calls[0].op != "update" || payload["id"] != "c1" || payload["name"] != "Acme Ltd" || payload["createdAt"] != "2024-01-01" {
		t.Fatalf("unexpected update call %+v", api.calls[0])
	}
}

func TestInvalidDraftNeverReachesNetwork(t *testing.T) {
	api := &fakeCollection{}
	c := newController(t, api)
	ctx := context.Background()
	if _, err := c.Open(ctx, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	msg, err := c.SetField("email", "nope")
	if err != nil || msg != validation.MessageEmail {
		t.Fatalf("SetField = %q, %v", msg, err)
	}

	_, err = c.Submit(ctx)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := map[string]string{"name": validation.MessageRequired, "email": validation.MessageEmail}
	if diff := cmp.Diff(want, c.Errors().Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(api.ops()) != 0 || c.State() != StateEditing || c.Valid() {
		t.Fatalf("invalid submit changed state or called api: %v", api.ops())
	}
}

func TestServerRejectionReturnsToEditing(t *testing.T) {
	api := &fakeCollection{err: &client.StatusError{
		Code:   http.StatusUnprocessableEntity,
		Fields: map[string][]string{"body.email": {"already taken"}},
	}}
	c := newController(t, api)
	ctx := context.Background()
	if _, err := c.Open(ctx, existing()); err != nil {
		t.Fatalf("Open: %v", err)
	}

	_, err := c.Submit(ctx)
	var serr *SubmitError
	if !errors.As(err, &serr) || serr.Mode != ModeUpdate {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if c.State() != StateEditing || c.Draft().Get("name") != "Acme" {
		t.Fatalf("draft lost after rejection")
	}
	if diff := cmp.Diff(map[string][]string{"email": {"already taken"}}, c.ServerErrors()); diff != "" {
		t.Fatalf("server errors mismatch (-want +got):\n%s", diff)
	}

	mustSet(t, c, "email", "other@acme.test")
	if _, ok := c.ServerErrors()["email"]; ok {
		t.Fatalf("editing a field must clear its server error")
	}
}

func TestCancelMakesNoCalls(t *testing.T) {
	api := &fakeCollection{}
	c := newController(t, api)
	if err := c.Cancel(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
	if _, err := c.Open(context.Background(), existing()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustSet(t, c, "name", "Changed")
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(api.ops()) != 0 || c.State() != StateClosed {
		t.Fatalf("cancel touched the network or left the form open")
	}
	if _, err := c.SetField("name", "x"); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("expected ErrNotEditing after cancel, got %v", err)
	}
}

func TestSetFieldGuards(t *testing.T) {
	c := newController(t, &fakeCollection{})
	if _, err := c.Open(context.Background(), nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := c.Open(context.Background(), nil); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}
	if _, err := c.SetField("nope", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := c.SetField("id", "forged"); !errors.Is(err, ErrReadOnlyField) {
		t.Fatalf("expected ErrReadOnlyField, got %v", err)
	}
	if c.Mode() != ModeCreate {
		t.Fatalf("identifier changed through SetField")
	}
}

func TestCancelDuringSubmitAbandonsSession(t *testing.T) {
	api := &fakeCollection{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	refreshed := make(chan struct{}, 1)
	c := newController(t, api, WithRefresh(func(context.Context) { refreshed <- struct{}{} }))
	ctx := context.Background()
	if _, err := c.Open(ctx, existing()); err != nil {
		t.Fatalf("Open: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx)
		done <- err
	}()
	<-api.entered
	if c.State() != StateSubmitting {
		t.Fatalf("expected submitting, got %v", c.State())
	}
	if _, err := c.SetField("name", "x"); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("edits must be rejected while submitting, got %v", err)
	}
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := c.Open(ctx, nil); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	close(api.release)

	if err := <-done; !errors.Is(err, ErrSessionAbandoned) {
		t.Fatalf("expected ErrSessionAbandoned, got %v", err)
	}
	<-refreshed
	if c.State() != StateEditing || c.SessionID() != "s2" || c.Mode() != ModeCreate {
		t.Fatalf("late completion touched the new session: state %v session %s", c.State(), c.SessionID())
	}
}

func TestOpenResolvesOptionsAndDegrades(t *testing.T) {
	ctx := context.Background()

	c := newController(t, &fakeCollection{}, WithResolver(options.NewResolver(fetcher{})))
	sess, err := c.Open(ctx, nil)
	if err != nil || len(sess.OptionErrors) != 0 {
		t.Fatalf("Open: %v %v", err, sess.OptionErrors)
	}
	if got := c.Options("channelPartnerId"); len(got) != 1 || got[0].Label != "Northwind" {
		t.Fatalf("unexpected options %+v", got)
	}

	boom := errors.New("timeout")
	api := &fakeCollection{}
	c = newController(t, api, WithResolver(options.NewResolver(fetcher{err: boom})))
	sess, err = c.Open(ctx, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(sess.OptionErrors) != 1 || !errors.Is(sess.OptionErrors[0], boom) {
		t.Fatalf("expected one option failure, got %v", sess.OptionErrors)
	}
	if len(c.Options("channelPartnerId")) != 0 || c.State() != StateEditing {
		t.Fatalf("option failure must degrade to an empty set")
	}
	if len(api.ops()) != 0 {
		t.Fatalf("open called the collection: %v", api.ops())
	}
}

func mustSet(t *testing.T, c *Controller, key, value string) {
	t.Helper()
	if msg, err := c.SetField(key, value); err != nil || msg != "" {
		t.Fatalf("SetField(%q, %q) = %q, %v", key, value, msg, err)
	}
}
