// Package xlsx implements store.Gateway over an Excel workbook where every
// worksheet is a table whose first row is the header.
package xlsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/store"
)

const defaultSheet = "Sheet1"

// Store reads the workbook on every call. Writes are read-modify-write of the
// whole workbook, serialised within the process.
type Store struct {
	blob Blob
	mu   sync.Mutex
}

var _ store.Gateway = (*Store)(nil)

// New returns a store over blob.
func New(blob Blob) *Store {
	return &Store{blob: blob}
}

// Open returns a store over a workbook on disk.
func Open(path string) *Store {
	return New(FileBlob{Path: path})
}

// ReadTable implements store.Gateway.
func (s *Store) ReadTable(ctx context.Context, name string) (model.Table, error) {
	data, err := s.blob.Load(ctx)
	if errors.Is(err, ErrBlobNotFound) {
		return model.Table{}, fmt.Errorf("xlsx: %q: %w", name, store.ErrTableNotFound)
	}
	if err != nil {
		return model.Table{}, err
	}

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return model.Table{}, fmt.Errorf("xlsx: open workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	return readSheet(file, name)
}

// WriteTable implements store.Gateway.
func (s *Store) WriteTable(ctx context.Context, name string, table model.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var file *excelize.File
	data, err := s.blob.Load(ctx)
	switch {
	case errors.Is(err, ErrBlobNotFound):
		file = excelize.NewFile()
	case err != nil:
		return err
	default:
		file, err = excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("xlsx: open workbook: %w", err)
		}
	}
	defer func() { _ = file.Close() }()

	if err := writeSheet(file, name, table); err != nil {
		return err
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx: encode workbook: %w", err)
	}
	return s.blob.Save(ctx, buf.Bytes())
}

func readSheet(file *excelize.File, name string) (model.Table, error) {
	if idx, err := file.GetSheetIndex(name); err != nil || idx < 0 {
		return model.Table{}, fmt.Errorf("xlsx: %q: %w", name, store.ErrTableNotFound)
	}

	rows, err := file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return model.Table{}, fmt.Errorf("xlsx: read sheet %q: %w", name, err)
	}
	if len(rows) == 0 {
		return model.NewTable(name, nil), nil
	}

	columns := columnKeys(rows)
	out := make([]model.Row, 0, len(rows)-1)
	for rowIdx, raw := range rows[1:] {
		row := make(model.Row, len(columns))
		for colIdx, column := range columns {
			if colIdx >= len(raw) || raw[colIdx] == "" {
				row[column] = nil
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return model.Table{}, fmt.Errorf("xlsx: cell name: %w", err)
			}
			cellType, err := file.GetCellType(name, cell)
			if err != nil {
				return model.Table{}, fmt.Errorf("xlsx: cell type %s!%s: %w", name, cell, err)
			}
			row[column] = decodeCell(cellType, raw[colIdx])
		}
		out = append(out, row)
	}
	return model.NewTable(name, columns, out...), nil
}

// columnKeys names every column of the sheet, one key per position. The sheet
// is as wide as its widest row. A blank header becomes "Unnamed: N" with N the
// zero-based position, and repeated headers get ".1", ".2" suffixes in order.
func columnKeys(rows [][]string) []string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	keys := make([]string, width)
	taken := make(map[string]bool, width)
	for idx := range keys {
		base := ""
		if idx < len(rows[0]) {
			base = strings.TrimSpace(rows[0][idx])
		}
		if base == "" {
			base = "Unnamed: " + strconv.Itoa(idx)
		}
		key := base
		for n := 1; taken[key]; n++ {
			key = base + "." + strconv.Itoa(n)
		}
		taken[key] = true
		keys[idx] = key
	}
	return keys
}

// decodeCell maps a raw cell to the model scalar set: numbers become float64,
// booleans bool, everything else stays a string.
func decodeCell(cellType excelize.CellType, raw string) any {
	switch cellType {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if number, err := strconv.ParseFloat(raw, 64); err == nil {
			return number
		}
		return raw
	default:
		return raw
	}
}

// writeSheet puts each table column back at the position its key was read
// from and appends columns the sheet does not have yet. Header cells of
// existing columns, and columns the table does not name, are left untouched.
func writeSheet(file *excelize.File, name string, table model.Table) error {
	idx, err := file.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("xlsx: sheet index %q: %w", name, err)
	}
	if idx < 0 {
		if _, err := file.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx: create sheet %q: %w", name, err)
		}
		if name != defaultSheet {
			if other, _ := file.GetSheetIndex(defaultSheet); other >= 0 && sheetIsEmpty(file, defaultSheet) {
				_ = file.DeleteSheet(defaultSheet)
			}
		}
	}

	existing, err := file.GetRows(name)
	if err != nil {
		return fmt.Errorf("xlsx: read sheet %q: %w", name, err)
	}

	positions := make(map[string]int, len(table.Columns))
	width := 0
	if len(existing) > 0 {
		keys := columnKeys(existing)
		for pos, key := range keys {
			positions[key] = pos
		}
		width = len(keys)
	}
	for _, column := range table.Columns {
		if _, ok := positions[column]; ok {
			continue
		}
		positions[column] = width
		cell, err := excelize.CoordinatesToCellName(width+1, 1)
		if err != nil {
			return fmt.Errorf("xlsx: cell name: %w", err)
		}
		if err := file.SetCellValue(name, cell, column); err != nil {
			return fmt.Errorf("xlsx: write header %q: %w", column, err)
		}
		width++
	}

	for rowIdx, row := range table.Rows {
		for _, column := range table.Columns {
			cell, err := excelize.CoordinatesToCellName(positions[column]+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("xlsx: cell name: %w", err)
			}
			if err := file.SetCellValue(name, cell, encodeCell(row[column])); err != nil {
				return fmt.Errorf("xlsx: write %s!%s: %w", name, cell, err)
			}
		}
	}

	for rowNum := len(existing); rowNum > len(table.Rows)+1; rowNum-- {
		if err := file.RemoveRow(name, rowNum); err != nil {
			return fmt.Errorf("xlsx: trim row %d: %w", rowNum, err)
		}
	}
	return nil
}

func encodeCell(value any) any {
	if model.IsAbsent(value) {
		return nil
	}
	switch v := value.(type) {
	case string, bool, float64, int, int64:
		return v
	default:
		return model.Stringify(v)
	}
}

func sheetIsEmpty(file *excelize.File, name string) bool {
	rows, err := file.GetRows(name)
	return err == nil && len(rows) == 0
}
