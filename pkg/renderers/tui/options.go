package tui

import "io"

// OutputFormat names the encoding Render uses for the collected answers.
type OutputFormat string

const (
	// OutputFormatJSON is a JSON object keyed by column name, the shape the
	// JSON form API accepts.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded mirrors what the HTML form posts, hidden
	// fields included.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText prints one "Label: value" line per field.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme holds prefixes prepended to informational and error lines.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPromptDriver replaces the survey driver, mostly for tests.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sends the survey driver's messages to w. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Renderer) {
		if w != nil {
			r.out = w
		}
	}
}

// WithOutputFormat picks the answer encoding. Empty keeps JSON.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithTheme sets the message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}
