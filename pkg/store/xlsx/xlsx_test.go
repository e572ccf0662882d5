package xlsx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/store"
)

func sampleData() model.Table {
	return model.NewTable(model.TableData,
		[]string{"Token", "Client", "Revenue", "Approved", "Notes"},
		model.Row{"Token": "00123", "Client": "Acme", "Revenue": float64(42.5), "Approved": true, "Notes": nil},
		model.Row{"Token": "xyz", "Client": "Globex", "Revenue": nil, "Approved": false, "Notes": "late"},
	)
}

func TestStore_RoundTripPreservesTypes(t *testing.T) {
	ctx := context.Background()
	s := Open(filepath.Join(t.TempDir(), "portal.xlsx"))

	if err := s.WriteTable(ctx, model.TableData, sampleData()); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := s.ReadTable(ctx, model.TableData)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	want := model.NewTable(model.TableData,
		[]string{"Token", "Client", "Revenue", "Approved", "Notes"},
		model.Row{"Token": "00123", "Client": "Acme", "Revenue": float64(42.5), "Approved": true, "Notes": nil},
		model.Row{"Token": "xyz", "Client": "Globex", "Revenue": nil, "Approved": false, "Notes": "late"},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_WritesKeepOtherSheets(t *testing.T) {
	ctx := context.Background()
	s := Open(filepath.Join(t.TempDir(), "portal.xlsx"))

	config := model.NewTable(model.TableConfig, model.ConfigColumns(),
		model.Row{"Tab": "Finance", "Column Name": "Revenue", "Label": "Revenue", "Type": "number"},
	)
	if err := s.WriteTable(ctx, model.TableConfig, config); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := s.WriteTable(ctx, model.TableData, sampleData()); err != nil {
		t.Fatalf("write data: %v", err)
	}

	smaller := sampleData()
	smaller.Rows = smaller.Rows[:1]
	if err := s.WriteTable(ctx, model.TableData, smaller); err != nil {
		t.Fatalf("rewrite data: %v", err)
	}

	gotConfig, err := s.ReadTable(ctx, model.TableConfig)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if gotConfig.Len() != 1 || gotConfig.Value(0, "Type") != "number" {
		t.Fatalf("config sheet changed: %+v", gotConfig)
	}

	gotData, err := s.ReadTable(ctx, model.TableData)
	if err != nil {
		t.Fatalf("read data: %v", err)
	}
	if gotData.Len() != 1 {
		t.Fatalf("expected trailing rows to be removed, got %d rows", gotData.Len())
	}
}

func writeRawSheet(t *testing.T, path, sheet string, rows [][]any) {
	t.Helper()
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()
	if err := file.SetSheetName(defaultSheet, sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for idx, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := file.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func readRawSheet(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = file.Close() }()
	rows, err := file.GetRows(sheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	return rows
}

func TestStore_BlankAndDuplicateHeadersSurviveRewrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "portal.xlsx")
	writeRawSheet(t, path, model.TableData, [][]any{
		{"Token", "", "Client", "Notes", "Notes"},
		{"abc", "keepme", "Acme", "first", "second"},
		{"xyz", nil, "Globex", nil, "other"},
	})
	before := readRawSheet(t, path, model.TableData)

	s := Open(path)
	table, err := s.ReadTable(ctx, model.TableData)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	wantColumns := []string{"Token", "Unnamed: 1", "Client", "Notes", "Notes.1"}
	if diff := cmp.Diff(wantColumns, table.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if got := table.Value(0, "Unnamed: 1"); got != "keepme" {
		t.Fatalf("unnamed column value = %#v", got)
	}
	if got := table.Value(0, "Notes"); got != "first" {
		t.Fatalf("first Notes value = %#v", got)
	}

	if err := s.WriteTable(ctx, model.TableData, table); err != nil {
		t.Fatalf("write: %v", err)
	}
	if diff := cmp.Diff(before, readRawSheet(t, path, model.TableData)); diff != "" {
		t.Fatalf("sheet changed on unchanged rewrite (-want +got):\n%s", diff)
	}

	table.Rows[1]["Client"] = "Globex Ltd"
	table.EnsureColumn("Revenue")
	table.Rows[0]["Revenue"] = float64(10)
	if err := s.WriteTable(ctx, model.TableData, table); err != nil {
		t.Fatalf("write edit: %v", err)
	}
	want := [][]string{
		{"Token", "", "Client", "Notes", "Notes", "Revenue"},
		{"abc", "keepme", "Acme", "first", "second", "10"},
		{"xyz", "", "Globex Ltd", "", "other"},
	}
	if diff := cmp.Diff(want, readRawSheet(t, path, model.TableData)); diff != "" {
		t.Fatalf("sheet mismatch after edit (-want +got):\n%s", diff)
	}
}

func TestStore_MissingWorkbookOrSheet(t *testing.T) {
	ctx := context.Background()
	s := Open(filepath.Join(t.TempDir(), "missing.xlsx"))

	if _, err := s.ReadTable(ctx, model.TableData); !errors.Is(err, store.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound for missing workbook, got %v", err)
	}

	if err := s.WriteTable(ctx, model.TableData, sampleData()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.ReadTable(ctx, model.TableConfig); !errors.Is(err, store.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound for missing sheet, got %v", err)
	}
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func TestStore_S3Blob(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{}
	s := New(NewS3Blob(client, "reports", "portal.xlsx"))

	if _, err := s.ReadTable(ctx, model.TableData); !errors.Is(err, store.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound before first write, got %v", err)
	}
	if err := s.WriteTable(ctx, model.TableData, sampleData()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if client.puts != 1 {
		t.Fatalf("expected one upload, got %d", client.puts)
	}

	got, err := s.ReadTable(ctx, model.TableData)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Value(1, "Notes") != "late" {
		t.Fatalf("unexpected value %#v", got.Value(1, "Notes"))
	}
}
