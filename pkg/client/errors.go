package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrMalformedResponse is wrapped when a response body cannot be interpreted.
var ErrMalformedResponse = errors.New("client: malformed response")

// StatusError reports a non-2xx response. Fields carries server-side field
// errors keyed by dotted path when the body provided them.
type StatusError struct {
	Code    int
	Method  string
	URL     string
	Message string
	Fields  map[string][]string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode())
	}
	return fmt.Sprintf("client: %s %s: %d %s", e.Method, e.URL, e.StatusCode(), msg)
}

// StatusCode returns the HTTP status, defaulting to 500.
func (e *StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Temporary reports whether the failure is worth retrying by the user.
func (e *StatusError) Temporary() bool {
	return e.StatusCode() >= 500 || e.StatusCode() == http.StatusTooManyRequests
}

type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string]any      `json:"errors"`
	Fields  map[string][]string `json:"fields"`
}

func newStatusError(method, url string, code int, body []byte) *StatusError {
	se := &StatusError{Code: code, Method: method, URL: url}
	if len(body) == 0 {
		return se
	}

	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil {
		se.Message = strings.TrimSpace(truncate(string(body), 200))
		return se
	}
	se.Message = strings.TrimSpace(payload.Message)
	if se.Message == "" {
		se.Message = strings.TrimSpace(payload.Error)
	}

	fields := make(map[string][]string)
	for path, raw := range payload.Errors {
		fields[path] = append(fields[path], messagesFrom(raw)...)
	}
	for path, msgs := range payload.Fields {
		fields[path] = append(fields[path], msgs...)
	}
	if len(fields) > 0 {
		se.Fields = fields
	}
	return se
}

func messagesFrom(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, messagesFrom(item)...)
		}
		return out
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return []string{msg}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// FieldErrors splits a server error payload into messages for known keys and
// form-level messages. Paths may use dotted, slash or JSON pointer notation and
// may be nested under request wrappers ("body.name", "/data/name"); the longest
// matching known key wins. Unknown paths become form-level so no message is
// lost.
func FieldErrors(keys []string, payload map[string][]string) (map[string][]string, []string) {
	if len(payload) == 0 {
		return nil, nil
	}
	known := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		known[k] = struct{}{}
	}

	fields := make(map[string][]string)
	var form []string
	for raw, messages := range payload {
		msgs := normalizeMessages(messages)
		if len(msgs) == 0 {
			continue
		}
		key := matchKey(raw, known)
		if key == "" {
			form = append(form, msgs...)
			continue
		}
		fields[key] = append(fields[key], msgs...)
	}
	if len(fields) == 0 {
		fields = nil
	}
	return fields, normalizeMessages(form)
}

func matchKey(raw string, known map[string]struct{}) string {
	segments := pathSegments(raw)
	if len(segments) == 0 {
		return ""
	}
	for _, variant := range [][]string{segments, dropWrappers(segments), dropNumeric(dropWrappers(segments))} {
		for end := len(variant); end > 0; end-- {
			candidate := strings.Join(variant[:end], ".")
			if _, ok := known[candidate]; ok {
				return candidate
			}
		}
	}
	return ""
}

func pathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "$") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ReplaceAll(strings.TrimSpace(part), "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dropWrappers(segments []string) []string {
	out := segments
	for len(out) > 0 {
		switch strings.ToLower(out[0]) {
		case "body", "request", "payload", "data", "detail", "attributes":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func dropNumeric(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if _, err := strconv.Atoi(s); err == nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		trimmed := strings.TrimSpace(m)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
