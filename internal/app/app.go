// Package app assembles the portal from configuration: backend, publisher,
// themes, metrics and the pipeline itself. Both the server and the CLI
// commands start from Build.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/internal/config"
	"github.com/goliatone/go-formportal/internal/metrics"
	"github.com/goliatone/go-formportal/pkg/events"
	"github.com/goliatone/go-formportal/pkg/portal"
	"github.com/goliatone/go-formportal/pkg/renderers/vanilla"
	"github.com/goliatone/go-formportal/pkg/store"
	"github.com/goliatone/go-formportal/pkg/store/memory"
	"github.com/goliatone/go-formportal/pkg/store/postgres"
	"github.com/goliatone/go-formportal/pkg/store/xlsx"
)

// App holds the wired components. Close releases the backend and publisher.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Gateway   store.Gateway
	Publisher events.Publisher
	Themes    *vanilla.ThemeSet
	Portal    *portal.Portal
}

// Build wires every component described by cfg. The returned App must be
// closed by the caller.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewMetrics(),
	}

	themes, err := LoadThemes(cfg.Theme)
	if err != nil {
		return nil, err
	}
	a.Themes = themes

	backend, err := OpenGateway(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.Gateway = store.Instrument(backend,
		store.WithLogger(logger.Named("store")),
		store.WithObserver(a.Metrics.StoreObserver()),
	)

	publisher, err := OpenPublisher(cfg.Events, logger)
	if err != nil {
		_ = store.Close(a.Gateway)
		return nil, err
	}
	a.Publisher = publisher

	p, err := portal.New(
		portal.WithGateway(a.Gateway),
		portal.WithLogger(logger.Named("portal")),
		portal.WithPublisher(publisher),
		portal.WithTables(cfg.Portal.DataTable, cfg.Portal.ConfigTable),
		portal.WithTokenParam(cfg.Portal.TokenParam),
		portal.WithStrictTokens(cfg.Portal.StrictTokens),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Portal = p

	logger.Info("portal assembled",
		zap.String("store", cfg.Store.Driver),
		zap.String("data_table", cfg.Portal.DataTable),
		zap.String("config_table", cfg.Portal.ConfigTable),
		zap.Bool("events", cfg.Events.NATSURL != ""),
	)
	return a, nil
}

// HTMLRenderer builds the vanilla renderer with the configured themes.
func (a *App) HTMLRenderer() (*vanilla.Renderer, error) {
	var options []vanilla.Option
	if dir := a.Config.Theme.TemplatesDir; dir != "" {
		options = append(options, vanilla.WithTemplatesDir(dir))
	}
	if a.Themes != nil {
		options = append(options, vanilla.WithThemeSelector(a.Themes))
	}
	return vanilla.New(options...)
}

// Close releases the publisher and the backend.
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.Gateway != nil {
		errs = append(errs, store.Close(a.Gateway))
	}
	return errors.Join(errs...)
}

// OpenGateway opens the backend selected by cfg.Driver.
func OpenGateway(ctx context.Context, cfg config.StoreConfig) (store.Gateway, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		if cfg.Memory.Fixture == "" {
			return memory.New(), nil
		}
		return memory.LoadFile(cfg.Memory.Fixture)
	case config.DriverXLSX:
		if cfg.XLSX.Bucket != "" {
			blob, err := xlsx.NewS3BlobFromConfig(ctx, cfg.XLSX.Bucket, cfg.XLSX.Key, cfg.XLSX.Region, cfg.XLSX.Endpoint)
			if err != nil {
				return nil, err
			}
			return xlsx.New(blob), nil
		}
		return xlsx.Open(cfg.XLSX.Path), nil
	case config.DriverPostgres:
		return postgres.New(cfg.Postgres.URL)
	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.Driver)
	}
}

// OpenPublisher connects to NATS when a URL is configured and returns a
// no-op publisher otherwise.
func OpenPublisher(cfg config.EventsConfig, logger *zap.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		return &events.NoopPublisher{}, nil
	}
	publisher, err := events.NewNATSPublisher(cfg.NATSURL, cfg.Prefix)
	if err != nil {
		return nil, err
	}
	logger.Info("publishing save events", zap.String("prefix", cfg.Prefix))
	return publisher, nil
}

// LoadThemes reads the configured theme manifests and checks the default
// selection. No files means no theming.
func LoadThemes(cfg config.ThemeConfig) (*vanilla.ThemeSet, error) {
	if len(cfg.Files) == 0 {
		if cfg.Name != "" {
			return nil, fmt.Errorf("app: theme %q selected but no theme files configured", cfg.Name)
		}
		return nil, nil
	}

	set, err := vanilla.NewThemeSet()
	if err != nil {
		return nil, err
	}
	for _, path := range cfg.Files {
		manifest, err := vanilla.LoadThemeFile(path)
		if err != nil {
			return nil, err
		}
		if err := set.Register(manifest); err != nil {
			return nil, err
		}
	}
	if _, err := set.Select(cfg.Name, cfg.Variant); err != nil {
		return nil, fmt.Errorf("app: default theme: %w", err)
	}
	return set, nil
}
