package validation

import "fmt"

// Rules holds the compiled per-field checks for one schema.
type Rules struct {
	order  []string
	checks map[string]Check
}

// Field validates a single key. The returned message is "" when valid.
func (r *Rules) Field(key, value string) (string, error) {
	check, ok := r.checks[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	return check(value), nil
}

// Validate runs every compiled check against values. Missing keys validate as
// empty strings.
func (r *Rules) Validate(values map[string]string) Result {
	res := Result{}
	for _, key := range r.order {
		if msg := r.checks[key](values[key]); msg != "" {
			res.set(key, msg)
		}
	}
	return res
}

// Result maps field keys to error messages. Keys absent from Errors are valid.
type Result struct {
	Errors map[string]string
}

// Valid reports whether no field carries an error.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Message returns the message recorded for key.
func (r Result) Message(key string) string {
	return r.Errors[key]
}

// With returns a copy of r with key's outcome replaced. An empty message marks
// the key valid.
func (r Result) With(key, msg string) Result {
	out := Result{}
	for k, v := range r.Errors {
		if k != key {
			out.set(k, v)
		}
	}
	if msg != "" {
		out.set(key, msg)
	}
	return out
}

func (r *Result) set(key, msg string) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[key] = msg
}

// Clone returns an independent copy of r.
func (r Result) Clone() Result {
	return r.With("", "")
}
