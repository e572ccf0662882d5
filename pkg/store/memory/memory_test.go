package memory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/store"
)

func TestLoadFile(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "portal.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	data, err := s.ReadTable(context.Background(), model.TableData)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	wantColumns := []string{"Token", "Client", "Frequency", "Revenue", "Approved", "Notes"}
	if diff := cmp.Diff(wantColumns, data.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if got := data.Value(0, "Revenue"); got != float64(42) {
		t.Fatalf("expected integers to load as float64, got %#v", got)
	}
	if got := data.FindAll(model.ColumnToken, "9001"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("numeric token should match its string form, got %v", got)
	}
	if got := data.Value(0, "Notes"); got != nil {
		t.Fatalf("expected null cell to read as nil, got %#v", got)
	}
}

func TestStore_ReadReturnsCopies(t *testing.T) {
	s := New(model.NewTable("Data", []string{"Token"}, model.Row{"Token": "a"}))
	ctx := context.Background()

	first, err := s.ReadTable(ctx, "Data")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := first.Set(0, "Token", "mutated"); err != nil {
		t.Fatalf("set: %v", err)
	}

	second, _ := s.ReadTable(ctx, "Data")
	if got := second.Value(0, "Token"); got != "a" {
		t.Fatalf("store leaked a mutable row: %#v", got)
	}

	if err := s.WriteTable(ctx, "Data", first); err != nil {
		t.Fatalf("write: %v", err)
	}
	third, _ := s.ReadTable(ctx, "Data")
	if got := third.Value(0, "Token"); got != "mutated" {
		t.Fatalf("write not visible: %#v", got)
	}
}

func TestStore_UnknownTable(t *testing.T) {
	_, err := New().ReadTable(context.Background(), "Missing")
	if !errors.Is(err, store.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestStore_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().ReadTable(ctx, "Data"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
