package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoForm is returned for pages that carry a message instead of a form.
	// The message has already been shown.
	ErrNoForm = errors.New("tui: page has no form")
)
