package formgrid_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-formgrid"
)

func TestEmbeddedTemplatesExposeScreen(t *testing.T) {
	for _, name := range []string{"layout.tpl", "dashboard.tpl", "screen.tpl", "form.tpl", "grid.tpl", "detail.tpl"} {
		if _, err := fs.Stat(formgrid.EmbeddedTemplates(), name); err != nil {
			t.Fatalf("expected embedded template %s: %v", name, err)
		}
	}
}

func TestLoadBuildsScreensFromConsoleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	doc := `
baseURL: http://127.0.0.1:1
entities:
  - name: customer
    title: Customers
    collection: /api/customer
    schema:
      fields:
        - key: name
          required: true
        - key: email
          kind: email
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	screens, err := formgrid.Load(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(screens) != 1 || screens[0].Entity() != "customer" || screens[0].Title() != "Customers" {
		t.Fatalf("unexpected screens %+v", screens)
	}
	if screens[0].Mounted() {
		t.Fatalf("screen mounted before use")
	}
}
