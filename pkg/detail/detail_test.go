package detail

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formgrid/pkg/options"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

func customerSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New("customer", []schema.Field{
		{Key: "name", Label: "Name", Kind: schema.KindText, Required: true},
		{Key: "email", Label: "Email", Kind: schema.KindEmail},
		{Key: "notes", Label: "Notes", Kind: schema.KindText},
		{Key: "channelPartnerId", Label: "Channel Partner", Kind: schema.KindDynamicOption,
			RemoteSource: &schema.RemoteSource{Path: "/api/channelpartner/nameList"}},
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}

func TestProjectRendersEveryFieldInOrder(t *testing.T) {
	s := customerSchema(t)
	rec := schema.Record{ID: "7", Values: map[string]string{
		"id":    "7",
		"name":  "Acme",
		"email": "ops@acme.test",
		"notes": "   ",
	}}

	got := Project(rec, s)
	want := DisplayModel{
		Entity: "customer",
		ID:     "7",
		Entries: []Entry{
			{Key: "id", Label: "ID", Value: "7"},
			{Key: "name", Label: "Name", Value: "Acme"},
			{Key: "email", Label: "Email", Value: "ops@acme.test"},
			{Key: "notes", Label: "Notes", Value: EmptyMarker, Empty: true},
			{Key: "channelPartnerId", Label: "Channel Partner", Value: EmptyMarker, Empty: true},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectIsIdempotentAndDoesNotMutate(t *testing.T) {
	s := customerSchema(t)
	rec := schema.Record{ID: "1", Values: map[string]string{"id": "1", "name": "Beta"}}
	before := rec.Clone()

	first := Project(rec, s)
	second := Project(rec, s)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("projection not idempotent:\n%s", diff)
	}
	if diff := cmp.Diff(before, rec); diff != "" {
		t.Fatalf("record mutated:\n%s", diff)
	}
}

func TestProjectStripsMarkup(t *testing.T) {
	s := customerSchema(t)
	rec := schema.Record{Values: map[string]string{"name": "<script>alert(1)</script>Gamma"}}

	entry, ok := Project(rec, s).Entry("name")
	if !ok {
		t.Fatalf("expected name entry")
	}
	if entry.Value != "Gamma" {
		t.Fatalf("expected sanitised value, got %q", entry.Value)
	}

	rec.Values["name"] = "<b></b>"
	entry, _ = Project(rec, s).Entry("name")
	if !entry.Empty || entry.Value != EmptyMarker {
		t.Fatalf("markup-only value should render empty, got %+v", entry)
	}
}

func TestProjectWithOptionsUsesLabels(t *testing.T) {
	s := customerSchema(t)
	rec := schema.Record{Values: map[string]string{"channelPartnerId": "3"}}
	sets := options.Sets{"channelPartnerId": {{ID: "3", Label: "Northwind"}}}

	entry, _ := ProjectWithOptions(rec, s, sets).Entry("channelPartnerId")
	if entry.Value != "Northwind" {
		t.Fatalf("expected option label, got %q", entry.Value)
	}

	rec.Values["channelPartnerId"] = "9"
	entry, _ = ProjectWithOptions(rec, s, sets).Entry("channelPartnerId")
	if entry.Value != "9" {
		t.Fatalf("unknown id should render raw, got %q", entry.Value)
	}
}
