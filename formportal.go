// Package formportal is the top-level entry point for the client reporting
// portal. It re-exports the portal service and the renderer contracts so
// callers can embed the portal without importing each subpackage.
package formportal

import (
	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/portal"
	"github.com/goliatone/go-formportal/pkg/render"
	"github.com/goliatone/go-formportal/pkg/store"
	"github.com/goliatone/go-formportal/pkg/store/memory"
)

// Portal aliases portal.Portal.
type Portal = portal.Portal

// Session aliases portal.Session.
type Session = portal.Session

// Option configures a Portal.
type Option = portal.Option

// Gateway is the tabular storage contract the portal reads and writes.
type Gateway = store.Gateway

// Page is the renderer-neutral description of one portal screen.
type Page = render.Page

// RenderOptions describes per-request overrides such as validation errors,
// locale and theme.
type RenderOptions = render.RenderOptions

// Renderer turns a Page into bytes.
type Renderer = render.Renderer

// New constructs a Portal. WithGateway is required.
func New(options ...Option) (*Portal, error) {
	return portal.New(options...)
}

// NewInMemory constructs a Portal over the given tables, useful for demos and
// tests.
func NewInMemory(tables []model.Table, options ...Option) (*Portal, error) {
	gateway := memory.New(tables...)
	return portal.New(append([]Option{portal.WithGateway(gateway)}, options...)...)
}

// Table aliases model.Table, the grid shape shared by the Data and Config
// worksheets.
type Table = model.Table

// WithGateway selects the storage backend.
func WithGateway(gateway Gateway) Option {
	return portal.WithGateway(gateway)
}
