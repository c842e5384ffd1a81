package memstore

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type pageInfo struct {
	TotalElements int `json:"totalElements"`
	Number        int `json:"number"`
	Size          int `json:"size"`
}

type listResponse struct {
	Content []map[string]any `json:"content"`
	Page    pageInfo         `json:"page"`
}

type errorResponse struct {
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// Handler serves the store under a chi router. Routes are relative; mount the
// result under Options.RoutePath (RegisterRoutes does).
func Handler(store *Store, fns ...OptionFn) http.Handler {
	return HandlerWithOptions(store, NewOptions(fns...))
}

// HandlerWithOptions builds the router from a pre-constructed Options value.
func HandlerWithOptions(store *Store, opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	h := &handler{store: store, opts: opts}

	r := chi.NewRouter()
	if opts.Guard != nil {
		r.Use(h.guard)
	}
	r.Get("/{collection}", h.list)
	r.Post("/{collection}", h.create)
	r.Put("/{collection}", h.update)
	r.Post("/{collection}/edit", h.update)
	r.Get("/{collection}/nameList", h.names)
	r.Get("/{collection}/recent", h.recent)
	r.Get("/{collection}/{id}", h.get)
	r.Delete("/{collection}/{id}", h.remove)
	return r
}

type handler struct {
	store *Store
	opts  Options
}

func (h *handler) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.opts.Guard(r); err != nil {
			h.writeError(w, r, guardError(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	page := parseInt(r.URL.Query().Get(h.opts.PageParam))
	size := clampPageSize(parseInt(r.URL.Query().Get(h.opts.PageSizeParam)), h.opts)
	items, total, err := h.store.List(chi.URLParam(r, "collection"), page, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, http.StatusOK, listResponse{
		Content: items,
		Page:    pageInfo{TotalElements: total, Number: page, Size: size},
	})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, http.StatusOK, rec)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rec, err := h.store.Create(chi.URLParam(r, "collection"), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, http.StatusCreated, rec)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rec, err := h.store.Update(chi.URLParam(r, "collection"), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, http.StatusOK, rec)
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "collection"), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) names(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get(h.opts.SearchParam)
	limit := parseInt(r.URL.Query().Get(h.opts.LimitParam))
	entries, err := h.store.Names(chi.URLParam(r, "collection"), query, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, http.StatusOK, entries)
}

func (h *handler) recent(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get(h.opts.LimitParam))
	items, err := h.store.Recent(chi.URLParam(r, "collection"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, http.StatusOK, items)
}

func (h *handler) write(w http.ResponseWriter, code int, payload any) {
	var body any = payload
	if h.opts.Envelope != "" {
		body = map[string]any{h.opts.Envelope: payload}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
	}
	resp := errorResponse{Message: err.Error()}
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		resp.Fields = statusErr.Fields
	}
	h.opts.Logger.WarnContext(r.Context(), "memstore request failed", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func guardError(err error) error {
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil && httpErr.StatusCode() > 0 {
		return err
	}
	return StatusError{Code: http.StatusForbidden, Err: err}
}

func decodeBody(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, StatusError{Code: http.StatusBadRequest, Err: err}
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
