// Package store defines the tabular backend contract the portal reads from and
// writes back to. Backends live in subpackages.
package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-formportal/pkg/model"
)

// ErrTableNotFound is returned when the backend has no table with the
// requested name.
var ErrTableNotFound = errors.New("store: table not found")

// Gateway reads and writes whole tables. Reads are always live: backends must
// not cache between calls. Writes replace the table content.
type Gateway interface {
	ReadTable(ctx context.Context, name string) (model.Table, error)
	WriteTable(ctx context.Context, name string, table model.Table) error
}

// Closer is implemented by gateways holding connections or files.
type Closer interface {
	Close() error
}

// Close closes gw when it implements Closer.
func Close(gw Gateway) error {
	if closer, ok := gw.(Closer); ok {
		return closer.Close()
	}
	return nil
}
