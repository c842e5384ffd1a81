package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const maxBodyBytes = 8 << 20

// HTTP talks to a JSON collection API. Reads go through a retrying client;
// writes are sent once.
type HTTP struct {
	baseURL    *url.URL
	envelope   string
	updateMode UpdateMode
	pageParam  string
	sizeParam  string
	headers    http.Header
	logger     *slog.Logger

	base         *http.Client
	timeout      time.Duration
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	reads  *retryablehttp.Client
	writes *retryablehttp.Client
}

// NewHTTP constructs a client rooted at baseURL.
func NewHTTP(baseURL string, options ...Option) (*HTTP, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	h := &HTTP{
		baseURL:      parsed,
		updateMode:   UpdateModeEdit,
		pageParam:    "pageNumber",
		headers:      make(http.Header),
		logger:       slog.Default(),
		timeout:      30 * time.Second,
		retryMax:     3,
		retryWaitMin: 250 * time.Millisecond,
		retryWaitMax: 2 * time.Second,
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}

	httpClient := h.base
	if httpClient == nil {
		httpClient = &http.Client{}
	} else {
		clone := *httpClient
		httpClient = &clone
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = h.timeout
	}

	h.reads = h.newRetryClient(httpClient, h.retryMax)
	h.writes = h.newRetryClient(httpClient, 0)
	return h, nil
}

func (h *HTTP) newRetryClient(httpClient *http.Client, retries int) *retryablehttp.Client {
	cl := retryablehttp.NewClient()
	cl.HTTPClient = httpClient
	cl.RetryMax = retries
	cl.RetryWaitMin = h.retryWaitMin
	cl.RetryWaitMax = h.retryWaitMax
	cl.Logger = h.logger
	cl.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return cl
}

// Collection binds the client to a collection path such as "/api/customer".
func (h *HTTP) Collection(path string) Collection {
	return &httpCollection{http: h, path: "/" + strings.Trim(strings.TrimSpace(path), "/")}
}

// Fetch retrieves path and returns the decoded, unwrapped body.
func (h *HTTP) Fetch(ctx context.Context, path string) (any, error) {
	return h.do(ctx, h.reads, http.MethodGet, h.resolve(path, nil), nil)
}

func (h *HTTP) resolve(path string, query url.Values) string {
	ref := &url.URL{Path: path}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		ref.Path = path[:i]
		ref.RawQuery = path[i+1:]
	}
	u := h.baseURL.ResolveReference(ref)
	if strings.TrimRight(h.baseURL.Path, "/") != "" && !strings.HasPrefix(ref.Path, h.baseURL.Path) {
		u.Path = strings.TrimRight(h.baseURL.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (h *HTTP) do(ctx context.Context, cl *retryablehttp.Client, method, target string, payload any) (any, error) {
	var body any
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("client: encode payload: %w", err)
		}
		body = raw
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	for k, vs := range h.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := cl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("client: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := newStatusError(method, target, resp.StatusCode, data)
		h.logger.DebugContext(ctx, "collection request rejected", "method", method, "url", target, "status", resp.StatusCode)
		return nil, se
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, target, err)
	}
	return h.unwrap(decoded), nil
}

func (h *HTTP) unwrap(v any) any {
	if h.envelope == "" {
		return v
	}
	if obj, ok := v.(map[string]any); ok {
		if inner, ok := obj[h.envelope]; ok {
			return inner
		}
	}
	return v
}

type httpCollection struct {
	http *HTTP
	path string
}

func (c *httpCollection) List(ctx context.Context, page, size int) (ListResult, error) {
	query := url.Values{}
	query.Set(c.http.pageParam, strconv.Itoa(page))
	if c.http.sizeParam != "" && size > 0 {
		query.Set(c.http.sizeParam, strconv.Itoa(size))
	}
	decoded, err := c.http.do(ctx, c.http.reads, http.MethodGet, c.http.resolve(c.path, query), nil)
	if err != nil {
		return ListResult{}, err
	}
	return decodeList(decoded)
}

func (c *httpCollection) Get(ctx context.Context, id string) (map[string]any, error) {
	decoded, err := c.http.do(ctx, c.http.reads, http.MethodGet, c.http.resolve(c.path+"/"+url.PathEscape(id), nil), nil)
	if err != nil {
		return nil, err
	}
	return decodeObject(decoded)
}

func (c *httpCollection) Create(ctx context.Context, payload map[string]any) (map[string]any, error) {
	decoded, err := c.http.do(ctx, c.http.writes, http.MethodPost, c.http.resolve(c.path, nil), payload)
	if err != nil {
		return nil, err
	}
	return decodeOptionalObject(decoded), nil
}

func (c *httpCollection) Update(ctx context.Context, payload map[string]any) (map[string]any, error) {
	method, path := http.MethodPost, c.path+"/edit"
	if c.http.updateMode == UpdateModePut {
		method, path = http.MethodPut, c.path
	}
	decoded, err := c.http.do(ctx, c.http.writes, method, c.http.resolve(path, nil), payload)
	if err != nil {
		return nil, err
	}
	return decodeOptionalObject(decoded), nil
}

func (c *httpCollection) Delete(ctx context.Context, id string) error {
	_, err := c.http.do(ctx, c.http.writes, http.MethodDelete, c.http.resolve(c.path+"/"+url.PathEscape(id), nil), nil)
	return err
}

func decodeList(decoded any) (ListResult, error) {
	switch v := decoded.(type) {
	case []any:
		items := objects(v)
		return ListResult{Items: items, Total: len(items)}, nil
	case map[string]any:
		content, ok := v["content"].([]any)
		if !ok && v["content"] != nil {
			return ListResult{}, fmt.Errorf("%w: content is not a list", ErrMalformedResponse)
		}
		res := ListResult{Items: objects(content)}
		total, found := totalFrom(v)
		if !found {
			total = len(res.Items)
		}
		res.Total = total
		return res, nil
	case nil:
		return ListResult{}, nil
	default:
		return ListResult{}, fmt.Errorf("%w: unexpected list shape %T", ErrMalformedResponse, decoded)
	}
}

func totalFrom(obj map[string]any) (int, bool) {
	if page, ok := obj["page"].(map[string]any); ok {
		if n, ok := toInt(page["totalElements"]); ok {
			return n, true
		}
	}
	if n, ok := toInt(obj["totalElements"]); ok {
		return n, true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func objects(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func decodeObject(decoded any) (map[string]any, error) {
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrMalformedResponse, decoded)
	}
	return obj, nil
}

func decodeOptionalObject(decoded any) map[string]any {
	obj, _ := decoded.(map[string]any)
	return obj
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode() == code
}
