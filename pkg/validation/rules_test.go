package validation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formgrid/pkg/schema"
)

func customerSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("customer", []schema.Field{
		{Key: "name", Required: true},
		{Key: "contactNumber", Kind: schema.KindPhone, Required: true},
		{Key: "email", Kind: schema.KindEmail},
		{Key: "url", Kind: schema.KindURL},
		{Key: "since", Kind: schema.KindDate},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func TestFieldRules(t *testing.T) {
	rules := MustBuilder().Compile(customerSchema(t))

	tests := []struct {
		key, value, want string
	}{
		{"name", "", MessageRequired},
		{"name", "   ", MessageRequired},
		{"name", "Acme", ""},
		{"contactNumber", "", MessageRequired},
		{"contactNumber", "555-01", MessageDigits},
		{"contactNumber", "55501", ""},
		{"email", "", ""},
		{"email", "nope", MessageEmail},
		{"email", "a@acme.test", ""},
		{"url", "acme", MessageURL},
		{"url", "https://acme.test", ""},
		{"since", "2024-13-01", MessageDate},
		{"since", "2024-02-29", ""},
		{"id", "", ""},
	}
	for _, tt := range tests {
		got, err := rules.Field(tt.key, tt.value)
		if err != nil {
			t.Fatalf("Field(%q): %v", tt.key, err)
		}
		if got != tt.want {
			t.Fatalf("Field(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}

	if _, err := rules.Field("nope", ""); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestValidateAggregatesEveryField(t *testing.T) {
	rules := MustBuilder().Compile(customerSchema(t))
	res := rules.Validate(map[string]string{"email": "nope"})
	want := map[string]string{
		"name":          MessageRequired,
		"contactNumber": MessageRequired,
		"email":         MessageEmail,
	}
	if diff := cmp.Diff(want, res.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if res.Valid() {
		t.Fatalf("expected invalid result")
	}

	cleared := res.With("email", "")
	if cleared.Message("email") != "" || res.Message("email") != MessageEmail {
		t.Fatalf("With must not mutate the receiver")
	}
}

func TestCustomMessages(t *testing.T) {
	b := MustBuilder(WithMessages(map[string]string{"required": "Cannot be blank"}))
	msg, err := b.Compile(customerSchema(t)).Field("name", "")
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	if msg != "Cannot be blank" {
		t.Fatalf("unexpected message %q", msg)
	}
}
