package consoleweb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formgrid/pkg/console"
	"github.com/goliatone/go-formgrid/pkg/renderers/html"
)

const maxFormBytes = 1 << 20

// ErrDuplicateEntity is returned when two screens share an entity name.
var ErrDuplicateEntity = errors.New("consoleweb: duplicate entity")

// ErrStaleSession is reported when a form post targets a session that is no
// longer open.
var ErrStaleSession = errors.New("consoleweb: form session is no longer open")

type handler struct {
	opts    Options
	engine  *html.Engine
	base    string
	order   []*console.Screen
	screens map[string]*console.Screen
}

// Handler builds the relative router for screens. base is the absolute path
// the router is mounted under; it prefixes every generated link.
func Handler(base string, screens []*console.Screen, fns ...OptionFn) (http.Handler, error) {
	return HandlerWithOptions(base, screens, NewOptions(fns...))
}

// HandlerWithOptions builds the router from a pre-constructed Options value.
func HandlerWithOptions(base string, screens []*console.Screen, opts Options) (http.Handler, error) {
	opts = NewOptions(func(o *Options) { *o = opts })
	engine := opts.Engine
	if engine == nil {
		var err error
		engine, err = html.New()
		if err != nil {
			return nil, fmt.Errorf("consoleweb: template engine: %w", err)
		}
	}
	h := &handler{
		opts:    opts,
		engine:  engine,
		base:    strings.TrimRight(base, "/"),
		screens: make(map[string]*console.Screen, len(screens)),
	}
	for _, scr := range screens {
		if scr == nil {
			continue
		}
		if _, dup := h.screens[scr.Entity()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, scr.Entity())
		}
		h.screens[scr.Entity()] = scr
		h.order = append(h.order, scr)
	}

	r := chi.NewRouter()
	r.Get("/", h.dashboard)
	r.Route("/{entity}", func(r chi.Router) {
		r.Use(h.screenCtx)
		r.Get("/", h.screen)
		r.Post("/add", h.add)
		r.Post("/form", h.submit)
		r.Post("/cancel", h.cancel)
		r.Get("/rows/{id}", h.view)
		r.Post("/rows/{id}/edit", h.edit)
		r.Post("/rows/{id}/delete", h.remove)
	})
	return r, nil
}

type screenKey struct{}

func (h *handler) screenCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scr, ok := h.screens[chi.URLParam(r, "entity")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), screenKey{}, scr)))
	})
}

func screenFrom(r *http.Request) *console.Screen {
	scr, _ := r.Context().Value(screenKey{}).(*console.Screen)
	return scr
}

func (h *handler) screenBase(scr *console.Screen) string {
	return h.base + "/" + scr.Entity()
}

func (h *handler) home() string {
	if h.base == "" {
		return "/"
	}
	return h.base + "/"
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	totals := console.Dashboard(r.Context(), h.order...)
	var notices []console.Notice
	for _, scr := range h.order {
		notices = append(notices, scr.DrainNotices()...)
	}
	view := html.BuildDashboardView(h.opts.Title, h.base, totals, notices)
	view.Activity, view.Notices = h.activity(r.Context(), view.Notices)

	var buf bytes.Buffer
	if err := h.engine.RenderDashboard(&buf, view); err != nil {
		h.fail(w, r, err)
		return
	}
	writeHTML(w, buf.Bytes())
}

// activity loads the feed entries that point at a mounted screen. A failed
// feed becomes a warning notice.
func (h *handler) activity(ctx context.Context, notices []html.NoticeView) ([]html.ActivityView, []html.NoticeView) {
	if h.opts.Feed == nil {
		return nil, notices
	}
	items, err := h.opts.Feed.Recent(ctx)
	if err != nil {
		h.opts.Logger.WarnContext(ctx, "activity feed failed", "error", err)
		return nil, append(notices, html.Notices([]console.Notice{{
			Level:   slog.LevelWarn,
			Kind:    console.NoticeFetch,
			Message: err.Error(),
		}})...)
	}
	shown := items[:0]
	for _, a := range items {
		if _, ok := h.screens[a.Entity]; ok {
			shown = append(shown, a)
		}
	}
	return html.Activities(h.base, shown), notices
}

func (h *handler) screen(w http.ResponseWriter, r *http.Request) {
	scr := screenFrom(r)
	ctx := r.Context()
	if !scr.Mounted() {
		scr.Mount(ctx)
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil || index < 0 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		if index != scr.List().Requested() || !scr.List().Loaded() {
			scr.PageChange(ctx, index)
		}
	}
	h.render(w, r, scr)
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, scr *console.Screen) {
	view := html.BuildScreenView(scr, h.screenBase(scr), scr.DrainNotices())
	view.Home = h.home()
	view.Nav = h.nav()

	var buf bytes.Buffer
	if err := h.engine.RenderScreen(&buf, view); err != nil {
		h.fail(w, r, err)
		return
	}
	writeHTML(w, buf.Bytes())
}

func (h *handler) nav() []html.TileView {
	totals := make([]console.Total, 0, len(h.order))
	for _, scr := range h.order {
		totals = append(totals, console.Total{Entity: scr.Entity(), Title: scr.Title()})
	}
	return html.Tiles(h.base, totals)
}

func (h *handler) add(w http.ResponseWriter, r *http.Request) {
	scr := screenFrom(r)
	_, _ = scr.Add(r.Context())
	h.back(w, r, scr)
}

func (h *handler) edit(w http.ResponseWriter, r *http.Request) {
	scr := screenFrom(r)
	_, _ = scr.EditID(r.Context(), chi.URLParam(r, "id"))
	h.back(w, r, scr)
}

func (h *handler) view(w http.ResponseWriter, r *http.Request) {
	scr := screenFrom(r)
	if !scr.Mounted() {
		scr.Mount(r.Context())
	}
	_, _ = scr.ViewID(r.Context(), chi.URLParam(r, "id"))
	h.render(w, r, scr)
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	scr := screenFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("_session") != scr.Form().SessionID() {
		h.opts.Logger.WarnContext(r.Context(), "stale form post", "entity", scr.Entity())
		h.back(w, r, scr)
		return
	}
	for _, f := range scr.Schema().Inputs() {
		if _, posted := r.PostForm[f.Key]; !posted {
			continue
		}
		if _, err := scr.SetField(f.Key, r.PostForm.Get(f.Key)); err != nil {
			h.back(w, r, scr)
			return
		}
	}
	if r.PostForm.Get("_action") == "save" {
		_, _ = scr.Submit(r.Context())
	}
	h.back(w, r, scr)
}

func (h *handler) cancel(w http.ResponseWriter, r *http.Request) {
	scr := screenFrom(r)
	_ = scr.Cancel()
	h.back(w, r, scr)
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	scr := screenFrom(r)
	_ = scr.Delete(r.Context(), chi.URLParam(r, "id"))
	h.back(w, r, scr)
}

// back redirects to the screen at the displayed page, or the page in flight.
func (h *handler) back(w http.ResponseWriter, r *http.Request, scr *console.Screen) {
	target := h.screenBase(scr)
	if index := scr.List().Requested(); index > 0 {
		target += "?page=" + strconv.Itoa(index)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.opts.Logger.ErrorContext(r.Context(), "console render failed", "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
