package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-formportal/pkg/model"
	"github.com/goliatone/go-formportal/pkg/render"
	"github.com/goliatone/go-formportal/pkg/widgets"
)

// Renderer implements render.Renderer for terminal sessions. Render walks the
// controls of the page as prompts, each pre-filled with the stored value, and
// returns the answers serialized in the configured format.
type Renderer struct {
	driver       PromptDriver
	out          io.Writer
	outputFormat OutputFormat
	theme        Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every control on the page. Pages without a form print
// their message and fail with ErrNoForm.
func (r *Renderer) Render(ctx context.Context, page render.Page, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	prepared := render.Prepare(page, opts)
	if !prepared.HasForm() {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+prepared.Message); err != nil {
			return nil, err
		}
		return nil, ErrNoForm
	}

	if err := r.info(ctx, fmt.Sprintf("%s: %s", prepared.Client, prepared.Heading)); err != nil {
		return nil, err
	}
	if prepared.Notice != "" {
		if err := r.info(ctx, prepared.Notice); err != nil {
			return nil, err
		}
	}
	for _, message := range prepared.FormErrors {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+message); err != nil {
			return nil, err
		}
	}

	values := make(map[string]any, len(prepared.Controls))
	order := make([]string, 0, len(prepared.Controls))
	for _, control := range prepared.Controls {
		for _, message := range control.Errors {
			if err := r.driver.Info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, control.Label, message)); err != nil {
				return nil, err
			}
		}
		value, err := r.promptControl(ctx, control)
		if err != nil {
			return nil, err
		}
		if _, seen := values[control.Column]; !seen {
			order = append(order, control.Column)
		}
		values[control.Column] = value
	}

	return r.serialize(values, order, prepared.Hidden)
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) promptControl(ctx context.Context, control widgets.Control) (any, error) {
	label := displayLabel(control)

	switch control.Widget {
	case widgets.WidgetSelect:
		options := make([]string, len(control.Options))
		for idx, option := range control.Options {
			options[idx] = option.Value
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: control.Selected,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(options) {
			return nil, fmt.Errorf("tui: selection out of range for %q", control.Column)
		}
		return options[idx], nil

	case widgets.WidgetCheckbox:
		return r.driver.Confirm(ctx, ConfirmConfig{
			Message: label,
			Default: control.Checked,
		})

	case widgets.WidgetNumber:
		raw, err := r.driver.Input(ctx, InputConfig{
			Message:   label,
			Default:   control.Text,
			Validator: validateNumber,
		})
		if err != nil {
			return nil, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return 0.0, nil
		}
		number, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("tui: %s: must be a number", control.Column)
		}
		return number, nil

	case widgets.WidgetTextarea:
		return r.driver.TextArea(ctx, TextAreaConfig{
			Message: label,
			Default: control.Text,
		})

	case widgets.WidgetDate:
		return r.driver.Input(ctx, InputConfig{
			Message: label,
			Default: control.Text,
			Help:    "YYYY-MM-DD",
		})

	default:
		return r.driver.Input(ctx, InputConfig{
			Message: label,
			Default: control.Text,
		})
	}
}

func validateNumber(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return errors.New("must be a number")
	}
	return nil
}

func (r *Renderer) serialize(values map[string]any, order []string, hidden []render.HiddenField) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(encodeForm(values, hidden)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values, order)), nil
	default:
		out, err := json.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("tui: encode values: %w", err)
		}
		return out, nil
	}
}

// encodeForm mirrors what a browser posts: unchecked boxes are omitted.
func encodeForm(values map[string]any, hidden []render.HiddenField) string {
	form := url.Values{}
	for column, value := range values {
		if checked, ok := value.(bool); ok {
			if checked {
				form.Set(column, "true")
			}
			continue
		}
		form.Set(column, model.Stringify(value))
	}
	for _, field := range hidden {
		form.Set(field.Name, field.Value)
	}
	return form.Encode()
}

func prettyPrint(values map[string]any, order []string) string {
	keys := order
	if len(keys) == 0 {
		keys = make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		slices.Sort(keys)
	}
	var b strings.Builder
	for _, key := range keys {
		value, ok := values[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", key, model.Stringify(value))
	}
	return b.String()
}

func displayLabel(control widgets.Control) string {
	if control.Label != "" {
		return control.Label
	}
	return control.Column
}
