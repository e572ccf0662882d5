package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/pkg/model"
)

// Operation names reported to observers.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// Observer receives one call per gateway operation.
type Observer func(op, table string, elapsed time.Duration, err error)

// InstrumentOption configures Instrument.
type InstrumentOption func(*instrumented)

// WithLogger logs every operation at debug level and failures at warn.
func WithLogger(logger *zap.Logger) InstrumentOption {
	return func(i *instrumented) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithObserver registers observer; several observers may be added.
func WithObserver(observer Observer) InstrumentOption {
	return func(i *instrumented) {
		if observer != nil {
			i.observers = append(i.observers, observer)
		}
	}
}

type instrumented struct {
	next      Gateway
	logger    *zap.Logger
	observers []Observer
	now       func() time.Time
}

// Instrument wraps gw so every read and write is timed, logged and reported to
// observers. The wrapped gateway keeps the Closer behaviour of gw.
func Instrument(gw Gateway, options ...InstrumentOption) Gateway {
	out := &instrumented{
		next:   gw,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(out)
		}
	}
	return out
}

func (i *instrumented) ReadTable(ctx context.Context, name string) (model.Table, error) {
	start := i.now()
	table, err := i.next.ReadTable(ctx, name)
	i.report(OpRead, name, start, err, zap.Int("rows", table.Len()))
	return table, err
}

func (i *instrumented) WriteTable(ctx context.Context, name string, table model.Table) error {
	start := i.now()
	err := i.next.WriteTable(ctx, name, table)
	i.report(OpWrite, name, start, err, zap.Int("rows", table.Len()))
	return err
}

func (i *instrumented) Close() error {
	return Close(i.next)
}

func (i *instrumented) report(op, table string, start time.Time, err error, extra ...zap.Field) {
	elapsed := i.now().Sub(start)
	fields := append([]zap.Field{
		zap.String("op", op),
		zap.String("table", table),
		zap.Duration("elapsed", elapsed),
	}, extra...)
	if err != nil {
		i.logger.Warn("store operation failed", append(fields, zap.Error(err))...)
	} else {
		i.logger.Debug("store operation", fields...)
	}
	for _, observer := range i.observers {
		observer(op, table, elapsed, err)
	}
}
