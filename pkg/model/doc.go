// Package model holds the tabular types the portal moves between the store, the
// schema interpreter and the renderers: tables of loosely typed rows, the field
// definitions read from the Config worksheet, and the closed set of field types.
package model
