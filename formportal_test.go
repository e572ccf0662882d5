package formportal

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-formportal/pkg/renderers/vanilla"
	"github.com/goliatone/go-formportal/pkg/testsupport"
)

func TestNewRequiresGateway(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("expected error without gateway")
	}
}

func TestNewInMemoryOpensSession(t *testing.T) {
	data, config := testsupport.SampleTables()
	p, err := NewInMemory([]Table{data, config})
	if err != nil {
		t.Fatalf("new portal: %v", err)
	}
	session, err := p.Open(context.Background(), testsupport.TokenAcme)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if session.Client != "Acme Corp" {
		t.Fatalf("expected Acme Corp, got %q", session.Client)
	}
}

func TestEmbeddedTemplatesContainPage(t *testing.T) {
	if _, err := fs.ReadFile(EmbeddedTemplates(), "templates/page.tmpl"); err != nil {
		t.Fatalf("expected page template to be readable: %v", err)
	}
}

func TestEmbeddedAssetsContainStylesheet(t *testing.T) {
	data, err := fs.ReadFile(EmbeddedAssets(), vanilla.StylesheetName)
	if err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
	if !strings.Contains(string(data), "{") {
		t.Fatalf("expected stylesheet rules")
	}
}
