// Package console composes the listing, form, option and detail components
// into one screen per entity. A Screen is the only thing a surface (terminal
// or HTML) talks to: it exposes the lifecycle hooks and row actions, delegates
// to the controllers, and records every recoverable error as a Notice.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/detail"
	"github.com/goliatone/go-formgrid/pkg/form"
	"github.com/goliatone/go-formgrid/pkg/listing"
	"github.com/goliatone/go-formgrid/pkg/options"
	"github.com/goliatone/go-formgrid/pkg/schema"
	"github.com/goliatone/go-formgrid/pkg/validation"
)

var (
	// ErrDeleteDisabled is returned by Delete unless the entity opts in.
	ErrDeleteDisabled = errors.New("console: delete is disabled for this entity")
	// ErrRowNotFound is returned when a row id is not on the current page.
	ErrRowNotFound = errors.New("console: row not found on current page")
)

// Option configures a Screen.
type Option func(*settings)

type settings struct {
	title         string
	pageSize      int
	allowDelete   bool
	resolver      *options.Resolver
	validation    *validation.Builder
	logger        *slog.Logger
	listObserver  listing.Observer
	formObserver  form.Observer
	labelledViews bool
}

// WithTitle sets the display title; defaults to the entity name.
func WithTitle(title string) Option {
	return func(s *settings) { s.title = strings.TrimSpace(title) }
}

// WithPageSize overrides the listing page size.
func WithPageSize(size int) Option {
	return func(s *settings) { s.pageSize = size }
}

// WithAllowDelete enables Delete.
func WithAllowDelete(allow bool) Option {
	return func(s *settings) { s.allowDelete = allow }
}

// WithResolver enables dynamic option resolution for forms and labelled
// detail views.
func WithResolver(r *options.Resolver) Option {
	return func(s *settings) { s.resolver = r }
}

// WithValidationBuilder replaces the default rule builder.
func WithValidationBuilder(b *validation.Builder) Option {
	return func(s *settings) { s.validation = b }
}

// WithLogger sets the logger shared by the screen's controllers.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithListingObserver forwards listing outcomes, typically to metrics.
func WithListingObserver(o listing.Observer) Option {
	return func(s *settings) { s.listObserver = o }
}

// WithFormObserver forwards submit outcomes, typically to metrics.
func WithFormObserver(o form.Observer) Option {
	return func(s *settings) { s.formObserver = o }
}

// WithLabelledViews resolves dynamic options when viewing a record so ids
// are shown with their labels.
func WithLabelledViews(enabled bool) Option {
	return func(s *settings) { s.labelledViews = enabled }
}

// Screen wires the controllers of one entity.
type Screen struct {
	title       string
	schema      *schema.Schema
	api         client.Collection
	list        *listing.Controller
	form        *form.Controller
	resolver    *options.Resolver
	logger      *slog.Logger
	allowDelete bool
	labelled    bool

	mu      sync.Mutex
	mounted bool
	notices []Notice
	view    *detail.DisplayModel
}

// New builds a screen for s backed by api.
func New(api client.Collection, s *schema.Schema, opts ...Option) (*Screen, error) {
	if api == nil {
		return nil, errors.New("console: collection is nil")
	}
	if s == nil {
		return nil, errors.New("console: schema is nil")
	}
	cfg := settings{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.title == "" {
		cfg.title = s.Entity()
	}
	builder := cfg.validation
	if builder == nil {
		var err error
		builder, err = validation.NewBuilder()
		if err != nil {
			return nil, fmt.Errorf("console: validation builder: %w", err)
		}
	}
	logger := cfg.logger.With("entity", s.Entity())

	scr := &Screen{
		title:       cfg.title,
		schema:      s,
		api:         api,
		resolver:    cfg.resolver,
		logger:      logger,
		allowDelete: cfg.allowDelete,
		labelled:    cfg.labelledViews && cfg.resolver != nil,
	}

	listOpts := []listing.Option{listing.WithLogger(logger), listing.WithObserver(cfg.listObserver)}
	if cfg.pageSize > 0 {
		listOpts = append(listOpts, listing.WithPageSize(cfg.pageSize))
	}
	scr.list = listing.New(api, s, listOpts...)

	formOpts := []form.Option{
		form.WithLogger(logger),
		form.WithRefresh(scr.refresh),
	}
	if cfg.resolver != nil {
		formOpts = append(formOpts, form.WithResolver(cfg.resolver))
	}
	if cfg.formObserver != nil {
		formOpts = append(formOpts, form.WithObserver(cfg.formObserver))
	}
	scr.form = form.New(api, s, builder.Compile(s), formOpts...)
	return scr, nil
}

// Title returns the display title.
func (s *Screen) Title() string { return s.title }

// Entity returns the entity name.
func (s *Screen) Entity() string { return s.schema.Entity() }

// Schema returns the screen's schema.
func (s *Screen) Schema() *schema.Schema { return s.schema }

// List exposes the listing controller for read access.
func (s *Screen) List() *listing.Controller { return s.list }

// Form exposes the form controller for read access.
func (s *Screen) Form() *form.Controller { return s.form }

// AllowDelete reports whether Delete is enabled.
func (s *Screen) AllowDelete() bool { return s.allowDelete }

// Mount fetches page 0 on the first call only. Later calls return the
// current page without fetching.
func (s *Screen) Mount(ctx context.Context) listing.Page {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return s.list.Current()
	}
	s.mounted = true
	s.mu.Unlock()

	page, err := s.list.OnMount(ctx)
	s.record(err)
	return page
}

// Mounted reports whether Mount ran.
func (s *Screen) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// PageChange fetches page index. A superseded response is not a failure and
// raises no notice.
func (s *Screen) PageChange(ctx context.Context, index int) listing.Page {
	page, err := s.list.OnPageChange(ctx, index)
	if !errors.Is(err, listing.ErrStale) {
		s.record(err)
	}
	return page
}

// Add opens an empty create form.
func (s *Screen) Add(ctx context.Context) (form.Session, error) {
	return s.open(ctx, nil)
}

// Edit opens the form seeded from row.
func (s *Screen) Edit(ctx context.Context, row schema.Record) (form.Session, error) {
	return s.open(ctx, &row)
}

// EditID opens the form for the current-page row with id.
func (s *Screen) EditID(ctx context.Context, id string) (form.Session, error) {
	row, ok := s.list.Find(id)
	if !ok {
		s.record(fmt.Errorf("%w: %s", ErrRowNotFound, id))
		return form.Session{}, ErrRowNotFound
	}
	return s.Edit(ctx, row)
}

func (s *Screen) open(ctx context.Context, seed *schema.Record) (form.Session, error) {
	s.CloseView()
	sess, err := s.form.Open(ctx, seed)
	if err != nil {
		s.record(err)
		return form.Session{}, err
	}
	for _, failure := range sess.OptionErrors {
		s.record(failure)
	}
	return sess, nil
}

// SetField forwards one edit and returns the field's validation message.
func (s *Screen) SetField(key, value string) (string, error) {
	msg, err := s.form.SetField(key, value)
	if err != nil {
		s.record(err)
	}
	return msg, err
}

// Submit validates and saves the draft. On success the displayed page is
// refetched; the page index never resets.
func (s *Screen) Submit(ctx context.Context) (schema.Record, error) {
	mode := s.form.Mode()
	rec, err := s.form.Submit(ctx)
	if err != nil {
		s.record(err)
		return schema.Record{}, err
	}
	s.note(slog.LevelInfo, NoticeSaved, fmt.Sprintf("%s %sd", s.title, mode))
	return rec, nil
}

// Cancel closes the form without saving.
func (s *Screen) Cancel() error {
	err := s.form.Cancel()
	if err != nil {
		s.record(err)
	}
	return err
}

// View projects row for display, fetching the full record by id when the
// row does not carry every schema key.
func (s *Screen) View(ctx context.Context, row schema.Record) (detail.DisplayModel, error) {
	rec := row
	if !row.Complete(s.schema) && row.ID != "" {
		raw, err := s.api.Get(ctx, row.ID)
		if err != nil {
			err = fmt.Errorf("console: load %s %s: %w", s.schema.Entity(), row.ID, err)
			s.noteErr(NoticeDetail, err)
			return detail.DisplayModel{}, err
		}
		rec = s.schema.DecodeRecord(raw)
	}

	var model detail.DisplayModel
	if s.labelled && len(s.schema.DynamicFields()) > 0 {
		sets, failures := s.resolver.Resolve(ctx, s.schema)
		for _, failure := range failures {
			s.record(failure)
		}
		model = detail.ProjectWithOptions(rec, s.schema, sets)
	} else {
		model = detail.Project(rec, s.schema)
	}

	s.mu.Lock()
	s.view = &model
	s.mu.Unlock()
	return model, nil
}

// ViewID views the current-page row with id.
func (s *Screen) ViewID(ctx context.Context, id string) (detail.DisplayModel, error) {
	row, ok := s.list.Find(id)
	if !ok {
		row = schema.Record{ID: id}
	}
	return s.View(ctx, row)
}

// Viewing returns the model of the open detail view.
func (s *Screen) Viewing() (detail.DisplayModel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return detail.DisplayModel{}, false
	}
	return *s.view, true
}

// CloseView dismisses the detail view.
func (s *Screen) CloseView() {
	s.mu.Lock()
	s.view = nil
	s.mu.Unlock()
}

// Delete removes a record when the entity allows it and refetches the
// current page. Otherwise it is inert and returns ErrDeleteDisabled.
func (s *Screen) Delete(ctx context.Context, id string) error {
	if !s.allowDelete {
		s.record(ErrDeleteDisabled)
		return ErrDeleteDisabled
	}
	if err := s.api.Delete(ctx, id); err != nil {
		err = fmt.Errorf("console: delete %s %s: %w", s.schema.Entity(), id, err)
		s.noteErr(NoticeDelete, err)
		return err
	}
	s.note(slog.LevelInfo, NoticeSaved, fmt.Sprintf("%s deleted", s.title))
	s.refresh(ctx)
	return nil
}

// Total returns the collection's remote total without touching the listing.
func (s *Screen) Total(ctx context.Context) (int, error) {
	res, err := s.api.List(ctx, 0, 1)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// Notices returns a copy of the pending notices.
func (s *Screen) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notice(nil), s.notices...)
}

// DrainNotices returns and clears the pending notices.
func (s *Screen) DrainNotices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// Refresh refetches the displayed page.
func (s *Screen) Refresh(ctx context.Context) listing.Page {
	s.refresh(ctx)
	return s.list.Current()
}

func (s *Screen) refresh(ctx context.Context) {
	_, err := s.list.Refresh(ctx)
	if errors.Is(err, listing.ErrStale) {
		return
	}
	s.record(err)
}

func (s *Screen) record(err error) {
	if err == nil {
		return
	}
	s.noteErr(classify(err), err)
}

func (s *Screen) noteErr(kind NoticeKind, err error) {
	level := slog.LevelError
	switch kind {
	case NoticeValidation, NoticeOptions, NoticeDelete, NoticeState:
		level = slog.LevelWarn
	}
	s.note(level, kind, err.Error())
}

func (s *Screen) note(level slog.Level, kind NoticeKind, msg string) {
	s.logger.Log(context.Background(), level, "notice", "kind", kind, "message", msg)
	s.mu.Lock()
	s.notices = append(s.notices, Notice{Level: level, Kind: kind, Message: msg})
	s.mu.Unlock()
}
