package portal

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Pipeline outcomes. Callers match them with errors.Is.
var (
	// ErrAccessDenied means the request carried no token. It is returned
	// before any backend read.
	ErrAccessDenied = errors.New("portal: access denied: no token provided")
	// ErrInvalidToken means no record carries the token.
	ErrInvalidToken = errors.New("portal: invalid token")
	// ErrDuplicateToken means several records carry the token and strict
	// token matching is enabled.
	ErrDuplicateToken = errors.New("portal: token matches more than one record")
	// ErrBackend wraps any failure reading or writing the tabular store.
	ErrBackend = errors.New("portal: backend failure")
	// ErrConflict means the record changed after the form was rendered.
	ErrConflict = errors.New("portal: record changed since it was loaded")
)

// ValidationError reports submitted values that could not be converted to
// their field types. Nothing is written when it is returned.
type ValidationError struct {
	Tab string
	// Fields maps a column name to its messages. The empty key holds
	// form-level messages.
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	columns := make([]string, 0, len(e.Fields))
	for column := range e.Fields {
		if column == "" {
			columns = append(columns, "(form)")
			continue
		}
		columns = append(columns, column)
	}
	slices.Sort(columns)
	return fmt.Sprintf("portal: invalid submission for tab %q: %s", e.Tab, strings.Join(columns, ", "))
}

func (e *ValidationError) add(column, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[column] = append(e.Fields[column], message)
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

func backendError(op, table string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrBackend, op, table, err)
}
