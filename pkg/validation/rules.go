// Package validation compiles a field schema into one composable check per
// field and aggregates them into a form-level Result. Type rules (email,
// digits-only phone numbers, URLs, ISO dates) are evaluated through
// go-playground/validator so the rule vocabulary stays the same one the
// backend services use.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/goliatone/go-formgrid/pkg/schema"
)

// Default messages, keyed by rule.
const (
	MessageRequired = "Required"
	MessageEmail    = "Invalid email address"
	MessageDigits   = "Must be a valid contact number"
	MessageURL      = "Invalid URL"
	MessageDate     = "Invalid date, expected YYYY-MM-DD"
	MessageInvalid  = "Invalid value"
)

// ErrUnknownField is returned when a key is not part of the compiled schema.
var ErrUnknownField = errors.New("validation: unknown field")

// Check validates a single value and returns an error message, or "" when the
// value is acceptable.
type Check func(value string) string

// Compose runs checks in order and returns the first failure.
func Compose(checks ...Check) Check {
	return func(value string) string {
		for _, check := range checks {
			if check == nil {
				continue
			}
			if msg := check(value); msg != "" {
				return msg
			}
		}
		return ""
	}
}

// Required fails on blank values.
func Required(message string) Check {
	return func(value string) string {
		if strings.TrimSpace(value) == "" {
			return message
		}
		return ""
	}
}

// Option configures a Builder.
type Option func(*Builder)

// WithMessages overrides messages per rule name ("required", "email", ...).
func WithMessages(messages map[string]string) Option {
	return func(b *Builder) {
		for rule, msg := range messages {
			if strings.TrimSpace(msg) != "" {
				b.messages[rule] = msg
			}
		}
	}
}

// Builder turns schemas into compiled rule sets. It is safe for concurrent use
// once constructed.
type Builder struct {
	validate *validator.Validate
	messages map[string]string
}

var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

// NewBuilder registers the custom rules on a fresh validator instance.
func NewBuilder(options ...Option) (*Builder, error) {
	v := validator.New()
	if err := v.RegisterValidation(schema.RuleDigits, digitsValidator); err != nil {
		return nil, fmt.Errorf("validation: register %s: %w", schema.RuleDigits, err)
	}
	if err := v.RegisterValidation(schema.RuleDate, isoDateValidator); err != nil {
		return nil, fmt.Errorf("validation: register %s: %w", schema.RuleDate, err)
	}

	b := &Builder{
		validate: v,
		messages: map[string]string{
			"required":        MessageRequired,
			schema.RuleEmail:  MessageEmail,
			schema.RuleDigits: MessageDigits,
			schema.RuleURL:    MessageURL,
			schema.RuleDate:   MessageDate,
		},
	}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// MustBuilder is NewBuilder for package-level defaults; it panics on failure.
func MustBuilder(options ...Option) *Builder {
	b, err := NewBuilder(options...)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) message(rule string) string {
	if msg, ok := b.messages[rule]; ok {
		return msg
	}
	return MessageInvalid
}

// Tag returns a check that applies a validator tag to non-empty values.
func (b *Builder) Tag(tag string) Check {
	if tag == "" {
		return nil
	}
	msg := b.message(tag)
	return func(value string) string {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return ""
		}
		if err := b.validate.Var(trimmed, tag); err != nil {
			return msg
		}
		return ""
	}
}

// Compile resolves one check per schema field.
func (b *Builder) Compile(s *schema.Schema) *Rules {
	rules := &Rules{
		checks: make(map[string]Check, s.Len()),
	}
	for _, field := range s.Fields() {
		spec, _ := s.Spec(field.Key)
		var checks []Check
		if field.Required {
			checks = append(checks, Required(b.message("required")))
		}
		checks = append(checks, b.Tag(spec.Rule))
		rules.order = append(rules.order, field.Key)
		rules.checks[field.Key] = Compose(checks...)
	}
	return rules
}

func digitsValidator(fl validator.FieldLevel) bool {
	return digitsPattern.MatchString(fl.Field().String())
}

func isoDateValidator(fl validator.FieldLevel) bool {
	_, err := time.Parse(schema.DateLayout, fl.Field().String())
	return err == nil
}
