package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/store"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryReadTable(ctx context.Context, db executor, name string) (model.Table, error) {
	var rawColumns []byte
	err := db.QueryRowContext(ctx, `SELECT columns FROM portal_tables WHERE name = $1`, name).Scan(&rawColumns)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Table{}, fmt.Errorf("postgres: %q: %w", name, store.ErrTableNotFound)
	}
	if err != nil {
		return model.Table{}, fmt.Errorf("postgres: read header %q: %w", name, err)
	}

	var columns []string
	if err := json.Unmarshal(rawColumns, &columns); err != nil {
		return model.Table{}, fmt.Errorf("postgres: decode header %q: %w", name, err)
	}

	rows, err := db.QueryContext(ctx, `SELECT cells FROM portal_rows WHERE table_name = $1 ORDER BY position`, name)
	if err != nil {
		return model.Table{}, fmt.Errorf("postgres: read rows %q: %w", name, err)
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var rawCells []byte
		if err := rows.Scan(&rawCells); err != nil {
			return model.Table{}, fmt.Errorf("postgres: scan row %q: %w", name, err)
		}
		row := make(model.Row)
		if err := json.Unmarshal(rawCells, &row); err != nil {
			return model.Table{}, fmt.Errorf("postgres: decode row %q: %w", name, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return model.Table{}, fmt.Errorf("postgres: iterate rows %q: %w", name, err)
	}

	return model.NewTable(name, columns, out...), nil
}

func queryWriteTable(ctx context.Context, db executor, name string, table model.Table, now time.Time) error {
	columns, err := json.Marshal(nonNilColumns(table.Columns))
	if err != nil {
		return fmt.Errorf("postgres: encode header %q: %w", name, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO portal_tables (name, columns, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET columns = EXCLUDED.columns, updated_at = EXCLUDED.updated_at`,
		name, columns, now)
	if err != nil {
		return fmt.Errorf("postgres: upsert header %q: %w", name, err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM portal_rows WHERE table_name = $1`, name); err != nil {
		return fmt.Errorf("postgres: clear rows %q: %w", name, err)
	}

	for idx, row := range table.Rows {
		cells, err := json.Marshal(encodeRow(row))
		if err != nil {
			return fmt.Errorf("postgres: encode row %d of %q: %w", idx, name, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO portal_rows (table_name, position, cells) VALUES ($1, $2, $3)`,
			name, idx, cells); err != nil {
			return fmt.Errorf("postgres: insert row %d of %q: %w", idx, name, err)
		}
	}
	return nil
}

// encodeRow drops NaN floats, which JSON cannot carry; they read back as
// absent either way.
func encodeRow(row model.Row) model.Row {
	out := make(model.Row, len(row))
	for key, value := range row {
		if value != nil && model.IsAbsent(value) {
			if _, isString := value.(string); !isString {
				out[key] = nil
				continue
			}
		}
		out[key] = value
	}
	return out
}

func nonNilColumns(columns []string) []string {
	if columns == nil {
		return []string{}
	}
	return columns
}
