package memstore

import "net/http"

// Component bundles a Store with its configuration and routing helpers.
type Component struct {
	opts  Options
	store *Store
}

// New constructs a component with default options plus any overrides and
// loads the configured collections.
func New(fns ...OptionFn) *Component {
	opts := NewOptions(fns...)
	return &Component{opts: opts, store: NewStore(opts.IDs, opts.Collections...)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Store returns the backing store.
func (c *Component) Store() *Store {
	if c == nil {
		return nil
	}
	return c.store
}

// Handler returns the relative router for the store.
func (c *Component) Handler() http.Handler {
	return HandlerWithOptions(c.store, c.opts)
}

// RegisterRoutes mounts the store under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	return RegisterRoutesWithOptions(mux, basePath, c.store, c.opts)
}
