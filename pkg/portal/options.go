package portal

import (
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/pkg/events"
	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/schema"
	"github.com/goliatone/go-formportal/pkg/store"
	"github.com/goliatone/go-formportal/pkg/widgets"
)

// DefaultTokenParam is the request parameter carrying the access token.
const DefaultTokenParam = "token"

// Option customises the portal.
type Option func(*Portal)

// WithGateway sets the tabular backend. Required.
func WithGateway(gateway store.Gateway) Option {
	return func(p *Portal) {
		p.gateway = gateway
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Portal) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithWidgets overrides the widget registry.
func WithWidgets(registry *widgets.Registry) Option {
	return func(p *Portal) {
		if registry != nil {
			p.widgets = registry
		}
	}
}

// WithPublisher sets the publisher notified after each save.
func WithPublisher(publisher events.Publisher) Option {
	return func(p *Portal) {
		if publisher != nil {
			p.publisher = publisher
		}
	}
}

// WithTables overrides the Data and Config table names. Blank names keep the
// defaults.
func WithTables(data, config string) Option {
	return func(p *Portal) {
		if data != "" {
			p.dataTable = data
		}
		if config != "" {
			p.configTable = config
		}
	}
}

// WithTokenParam overrides the request parameter carrying the token.
func WithTokenParam(name string) Option {
	return func(p *Portal) {
		if name != "" {
			p.tokenParam = name
		}
	}
}

// WithStrictTokens makes a token shared by several records fail with
// ErrDuplicateToken instead of resolving to the first one.
func WithStrictTokens(strict bool) Option {
	return func(p *Portal) {
		p.strictTokens = strict
	}
}

// WithRevisions overrides the generator used to stamp saved records.
func WithRevisions(generate func() (string, error)) Option {
	return func(p *Portal) {
		if generate != nil {
			p.newRevision = generate
		}
	}
}

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Portal) {
		if now != nil {
			p.now = now
		}
	}
}

// WithSchemaOptions forwards options to schema.Build.
func WithSchemaOptions(options ...schema.Option) Option {
	return func(p *Portal) {
		p.schemaOptions = append(p.schemaOptions, options...)
	}
}

func defaults() *Portal {
	return &Portal{
		logger:      zap.NewNop(),
		widgets:     widgets.NewRegistry(),
		publisher:   &events.NoopPublisher{},
		dataTable:   model.TableData,
		configTable: model.TableConfig,
		tokenParam:  DefaultTokenParam,
		newRevision: NewRevision,
		now:         time.Now,
	}
}
