// Package template defines the contract HTML renderers use to execute named
// templates. The pongo subpackage implements it with pongo2.
package template
