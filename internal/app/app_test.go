package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formportal/internal/config"
	"github.com/goliatone/go-formportal/pkg/events"
	"github.com/goliatone/go-formportal/pkg/store"
)

const fixturePath = "../../pkg/store/memory/testdata/portal.yaml"

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Store: config.StoreConfig{
			Driver: config.DriverMemory,
			Memory: config.MemoryConfig{Fixture: fixturePath},
		},
		Portal:  config.PortalConfig{DataTable: "Data", ConfigTable: "Config", TokenParam: "token"},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestOpenGateway(t *testing.T) {
	ctx := context.Background()

	empty, err := OpenGateway(ctx, config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	_, err = empty.ReadTable(ctx, "Data")
	assert.True(t, errors.Is(err, store.ErrTableNotFound))

	seeded, err := OpenGateway(ctx, config.StoreConfig{Driver: config.DriverMemory, Memory: config.MemoryConfig{Fixture: fixturePath}})
	require.NoError(t, err)
	data, err := seeded.ReadTable(ctx, "Data")
	require.NoError(t, err)
	assert.Equal(t, 2, data.Len())

	workbook, err := OpenGateway(ctx, config.StoreConfig{Driver: config.DriverXLSX, XLSX: config.XLSXConfig{Path: filepath.Join(t.TempDir(), "portal.xlsx")}})
	require.NoError(t, err)
	assert.NotNil(t, workbook)

	_, err = OpenGateway(ctx, config.StoreConfig{Driver: config.DriverMemory, Memory: config.MemoryConfig{Fixture: "missing.yaml"}})
	assert.Error(t, err)

	_, err = OpenGateway(ctx, config.StoreConfig{Driver: "sheets"})
	assert.Error(t, err)
}

func TestOpenPublisher_NoopWithoutURL(t *testing.T) {
	publisher, err := OpenPublisher(config.EventsConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &events.NoopPublisher{}, publisher)
}

func TestLoadThemes(t *testing.T) {
	set, err := LoadThemes(config.ThemeConfig{})
	require.NoError(t, err)
	assert.Nil(t, set)

	_, err = LoadThemes(config.ThemeConfig{Name: "acme"})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "acme.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: acme\ntokens:\n  brand: \"#123456\"\nvariants:\n  dark:\n    tokens:\n      brand: \"#000000\"\n"), 0o644))

	set, err = LoadThemes(config.ThemeConfig{Files: []string{path}, Variant: "dark"})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, set.Names())

	_, err = LoadThemes(config.ThemeConfig{Files: []string{path}, Variant: "neon"})
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	a, err := Build(context.Background(), baseConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	session, err := a.Portal.Open(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", session.Client)

	report, err := a.Portal.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Records)

	renderer, err := a.HTMLRenderer()
	require.NoError(t, err)
	assert.Equal(t, "vanilla", renderer.Name())
}

func TestBuild_RequiresConfig(t *testing.T) {
	_, err := Build(context.Background(), nil, nil)
	assert.Error(t, err)
}
