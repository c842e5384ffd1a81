// Package form implements the entity form controller: a small state machine
// (Closed → Editing → Submitting → Closed, or back to Editing on failure) that
// owns the draft, per-field validation and the create-versus-update decision.
// Each Open starts a new session; asynchronous completions are matched
// against the session that issued them and dropped when it is gone.
package form

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/options"
	"github.com/goliatone/go-formgrid/pkg/schema"
	"github.com/goliatone/go-formgrid/pkg/validation"
)

// RefreshFunc is invoked after a successful create or update so the listing
// can refetch the page currently on screen.
type RefreshFunc func(ctx context.Context)

// Observer is notified about submission outcomes.
type Observer interface {
	Submitted(entity string, mode Mode, err error)
}

// Session describes an opened form.
type Session struct {
	ID           string
	Mode         Mode
	OptionErrors []*options.ResolutionError
}

// Option configures a Controller.
type Option func(*Controller)

// WithResolver enables dynamic option resolution on Open.
func WithResolver(r *options.Resolver) Option {
	return func(c *Controller) { c.resolver = r }
}

// WithRefresh registers the post-submit refresh hook.
func WithRefresh(fn RefreshFunc) Option {
	return func(c *Controller) { c.refresh = fn }
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a submission observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithSessionIDs overrides session id generation.
func WithSessionIDs(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Controller is safe for concurrent use; network calls run without the lock.
type Controller struct {
	api      client.Collection
	schema   *schema.Schema
	rules    *validation.Rules
	resolver *options.Resolver
	refresh  RefreshFunc
	observer Observer
	logger   *slog.Logger
	newID    func() string

	mu           sync.Mutex
	state        State
	session      string
	draft        Draft
	extra        map[string]any
	result       validation.Result
	serverErrors map[string][]string
	sets         options.Sets
}

// New constructs a controller. rules must be compiled from s.
func New(api client.Collection, s *schema.Schema, rules *validation.Rules, opts ...Option) *Controller {
	c := &Controller{
		api:    api,
		schema: s,
		rules:  rules,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Open starts a session seeded from seed (edit) or empty (create) and
// resolves dynamic options for it. Option failures degrade to empty sets and
// are reported on the returned Session.
func (c *Controller) Open(ctx context.Context, seed *schema.Record) (Session, error) {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return Session{}, ErrAlreadyOpen
	}
	c.state = StateEditing
	c.session = c.newID()
	c.draft = newDraft(c.schema, seed)
	c.extra = nil
	if seed != nil && len(seed.Extra) > 0 {
		c.extra = seed.Clone().Extra
	}
	c.result = validation.Result{}
	c.serverErrors = nil
	c.sets = options.Sets{}
	sess := Session{ID: c.session, Mode: c.modeLocked()}
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "form opened", "entity", c.schema.Entity(), "session", sess.ID, "mode", sess.Mode)

	if c.resolver == nil || len(c.schema.DynamicFields()) == 0 {
		return sess, nil
	}

	sets, failures := c.resolver.Resolve(ctx, c.schema)
	sess.OptionErrors = failures

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == sess.ID && c.state != StateClosed {
		c.sets = sets
	}
	return sess, nil
}

// SetField updates one draft slot and re-validates that field only. The
// returned message is "" when the value is valid.
func (c *Controller) SetField(key, value string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing {
		return "", ErrNotEditing
	}
	field, ok := c.schema.Field(key)
	if !ok {
		return "", ErrUnknownField
	}
	if field.Hidden {
		return "", ErrReadOnlyField
	}
	c.draft.set(key, value)
	msg, err := c.rules.Field(key, value)
	if err != nil {
		return "", err
	}
	c.result = c.result.With(key, msg)
	if len(c.serverErrors) > 0 {
		delete(c.serverErrors, key)
	}
	return msg, nil
}

// Submit validates the whole draft and, when valid, creates (empty
// identifier) or updates (non-empty identifier) the record. Client-side
// failures return *ValidationError without any network call. Server-side
// failures return *SubmitError and put the session back into Editing with the
// draft untouched. On success the session closes and the refresh hook runs.
func (c *Controller) Submit(ctx context.Context) (schema.Record, error) {
	c.mu.Lock()
	if c.state != StateEditing {
		c.mu.Unlock()
		return schema.Record{}, ErrNotEditing
	}
	result := c.rules.Validate(c.draft.values)
	c.result = result
	if !result.Valid() {
		c.mu.Unlock()
		return schema.Record{}, &ValidationError{Result: result}
	}
	c.state = StateSubmitting
	session := c.session
	mode := c.modeLocked()
	payload := c.payloadLocked()
	submitted := c.draft.clone()
	c.mu.Unlock()

	var (
		raw map[string]any
		err error
	)
	if mode == ModeUpdate {
		raw, err = c.api.Update(ctx, payload)
	} else {
		raw, err = c.api.Create(ctx, payload)
	}
	if c.observer != nil {
		c.observer.Submitted(c.schema.Entity(), mode, err)
	}

	c.mu.Lock()
	if c.session != session || c.state != StateSubmitting {
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "dropping late submit completion", "entity", c.schema.Entity(), "session", session, "error", err)
		if err == nil && c.refresh != nil {
			c.refresh(ctx)
		}
		return schema.Record{}, ErrSessionAbandoned
	}

	if err != nil {
		c.state = StateEditing
		serr := &SubmitError{Mode: mode, Err: err}
		var se *client.StatusError
		if asStatus(err, &se) && len(se.Fields) > 0 {
			serr.Fields, serr.Form = client.FieldErrors(c.schema.Keys(), se.Fields)
		}
		c.serverErrors = serr.Fields
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "submit rejected", "entity", c.schema.Entity(), "mode", mode, "session", session, "error", err)
		return schema.Record{}, serr
	}

	c.closeLocked()
	c.mu.Unlock()

	rec := c.schema.DecodeRecord(payloadOf(submitted, raw))
	c.logger.InfoContext(ctx, "record saved", "entity", c.schema.Entity(), "mode", mode, "id", rec.ID)
	if c.refresh != nil {
		c.refresh(ctx)
	}
	return rec, nil
}

// Cancel closes the session without any network call. Cancelling while a
// submit is in flight abandons it: its completion will not touch form state.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrNotOpen
	}
	c.closeLocked()
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the active session id, or "" when closed.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Mode reports the route Submit would take for the current draft.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeLocked()
}

// Draft returns a copy of the draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.IsZero() {
		return Draft{}
	}
	return c.draft.clone()
}

// Errors returns the latest client-side validation result.
func (c *Controller) Errors() validation.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result.Clone()
}

// ServerErrors returns field errors from the last rejected submit.
func (c *Controller) ServerErrors() map[string][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]string, len(c.serverErrors))
	for k, v := range c.serverErrors {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Options returns the option set resolved for a dynamic field in this session.
func (c *Controller) Options(key string) options.OptionSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets.For(key)
}

// Valid reports whether the whole draft currently passes validation.
func (c *Controller) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft.IsZero() {
		return false
	}
	return c.rules.Validate(c.draft.values).Valid()
}

func (c *Controller) modeLocked() Mode {
	if c.draft.identifier(c.schema.IDKey()) != "" {
		return ModeUpdate
	}
	return ModeCreate
}

func (c *Controller) payloadLocked() map[string]any {
	out := make(map[string]any, len(c.extra)+len(c.draft.values))
	for k, v := range c.extra {
		out[k] = v
	}
	for k, v := range c.draft.values {
		out[k] = v
	}
	return out
}

func (c *Controller) closeLocked() {
	c.state = StateClosed
	c.session = ""
	c.draft = Draft{}
	c.extra = nil
	c.result = validation.Result{}
	c.serverErrors = nil
	c.sets = nil
}

func payloadOf(d Draft, raw map[string]any) map[string]any {
	out := make(map[string]any, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	for k, v := range raw {
		out[k] = v
	}
	return out
}
