package widgets

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formportal/pkg/model"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetInput    = "input"
	WidgetTextarea = "textarea"
	WidgetDate     = "date"
	WidgetSelect   = "select"
	WidgetNumber   = "number"
	WidgetCheckbox = "checkbox"
)

// Option is one entry of a select control.
type Option struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// Control is a field bound to its pre-filled value, ready for a renderer.
type Control struct {
	Column   string          `json:"column"`
	Label    string          `json:"label"`
	Type     model.FieldType `json:"type"`
	Widget   string          `json:"widget"`
	Position int             `json:"position"`
	// Value is typed per widget: string, float64 or bool.
	Value    any      `json:"value"`
	Text     string   `json:"text"`
	Options  []Option `json:"options,omitempty"`
	Selected int      `json:"selected"`
	Checked  bool     `json:"checked"`
	Errors   []string `json:"errors,omitempty"`
}

// Widget couples a field type with its pre-fill and submission rules.
type Widget struct {
	Name string
	// Prefill derives the initial control state from the stored cell. It never
	// fails; unusable values fall back to the widget default.
	Prefill func(field model.FieldDefinition, cell any) Control
	// Parse converts form-encoded values (possibly none) into the stored type.
	Parse func(field model.FieldDefinition, values []string) (any, error)
	// Decode converts a JSON value into the stored type.
	Decode func(field model.FieldDefinition, value any) (any, error)
}

// Registry resolves widgets by field type. The built-in set covers every
// model.FieldType; Register replaces an entry.
type Registry struct {
	mu      sync.RWMutex
	widgets map[model.FieldType]Widget
}

// NewRegistry constructs a registry with the built-in widgets registered.
func NewRegistry() *Registry {
	reg := &Registry{widgets: make(map[model.FieldType]Widget)}
	reg.registerBuiltins()
	return reg
}

// Register installs widget for fieldType. Incomplete widgets and unknown types
// are rejected.
func (r *Registry) Register(fieldType model.FieldType, widget Widget) error {
	if r == nil {
		return fmt.Errorf("widgets: registry is nil")
	}
	if !fieldType.Valid() {
		return fmt.Errorf("widgets: unsupported field type %q", fieldType)
	}
	if strings.TrimSpace(widget.Name) == "" || widget.Prefill == nil || widget.Parse == nil || widget.Decode == nil {
		return fmt.Errorf("widgets: widget for %q must define name, prefill, parse and decode", fieldType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.widgets[fieldType] = widget
	return nil
}

// Resolve returns the widget for fieldType.
func (r *Registry) Resolve(fieldType model.FieldType) (Widget, bool) {
	if r == nil {
		return Widget{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	widget, ok := r.widgets[fieldType]
	return widget, ok
}

// Types lists the registered field types in sorted order.
func (r *Registry) Types() []model.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.FieldType, 0, len(r.widgets))
	for ft := range r.widgets {
		out = append(out, ft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Prefill builds the control for field from the stored cell.
func (r *Registry) Prefill(field model.FieldDefinition, cell any) (Control, error) {
	widget, ok := r.Resolve(field.Type)
	if !ok {
		return Control{}, fmt.Errorf("widgets: no widget for field type %q", field.Type)
	}
	control := widget.Prefill(field, cell)
	control.Column = field.Column
	control.Label = field.Label
	control.Type = field.Type
	control.Position = field.Position
	if control.Widget == "" {
		control.Widget = widget.Name
	}
	return control, nil
}

// Parse converts submitted form values for field.
func (r *Registry) Parse(field model.FieldDefinition, values []string) (any, error) {
	widget, ok := r.Resolve(field.Type)
	if !ok {
		return nil, fmt.Errorf("widgets: no widget for field type %q", field.Type)
	}
	return widget.Parse(field, values)
}

// Decode converts a JSON submitted value for field.
func (r *Registry) Decode(field model.FieldDefinition, value any) (any, error) {
	widget, ok := r.Resolve(field.Type)
	if !ok {
		return nil, fmt.Errorf("widgets: no widget for field type %q", field.Type)
	}
	return widget.Decode(field, value)
}

func (r *Registry) registerBuiltins() {
	r.widgets[model.FieldTypeText] = textWidget(WidgetInput)
	r.widgets[model.FieldTypeTextarea] = textWidget(WidgetTextarea)
	r.widgets[model.FieldTypeDate] = textWidget(WidgetDate)

	r.widgets[model.FieldTypeDropdown] = Widget{
		Name:    WidgetSelect,
		Prefill: prefillDropdown,
		Parse: func(field model.FieldDefinition, values []string) (any, error) {
			return chooseOption(field, firstValue(values))
		},
		Decode: func(field model.FieldDefinition, value any) (any, error) {
			text, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("must be one of %s", quoteOptions(field.Options))
			}
			return chooseOption(field, text)
		},
	}

	r.widgets[model.FieldTypeNumber] = Widget{
		Name: WidgetNumber,
		Prefill: func(_ model.FieldDefinition, cell any) Control {
			number := NumberValue(cell)
			return Control{Value: number, Text: model.Stringify(number)}
		},
		Parse: func(_ model.FieldDefinition, values []string) (any, error) {
			raw := strings.TrimSpace(firstValue(values))
			if raw == "" {
				return 0.0, nil
			}
			number, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errNotANumber
			}
			return finite(number)
		},
		Decode: func(_ model.FieldDefinition, value any) (any, error) {
			switch v := value.(type) {
			case float64:
				return finite(v)
			case int:
				return float64(v), nil
			case int64:
				return float64(v), nil
			case json.Number:
				number, err := v.Float64()
				if err != nil {
					return nil, errNotANumber
				}
				return finite(number)
			default:
				return nil, errNotANumber
			}
		},
	}

	r.widgets[model.FieldTypeCheckbox] = Widget{
		Name: WidgetCheckbox,
		Prefill: func(_ model.FieldDefinition, cell any) Control {
			checked := CheckboxValue(cell)
			return Control{Value: checked, Text: strconv.FormatBool(checked), Checked: checked}
		},
		Parse: func(_ model.FieldDefinition, values []string) (any, error) {
			for _, value := range values {
				switch strings.ToLower(strings.TrimSpace(value)) {
				case "on", "true", "1", "yes":
					return true, nil
				}
			}
			return false, nil
		},
		Decode: func(_ model.FieldDefinition, value any) (any, error) {
			checked, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("must be true or false")
			}
			return checked, nil
		},
	}
}

func textWidget(name string) Widget {
	return Widget{
		Name: name,
		Prefill: func(_ model.FieldDefinition, cell any) Control {
			text := model.Stringify(cell)
			return Control{Value: text, Text: text}
		},
		Parse: func(_ model.FieldDefinition, values []string) (any, error) {
			return firstValue(values), nil
		},
		Decode: func(_ model.FieldDefinition, value any) (any, error) {
			text, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("must be a string")
			}
			return text, nil
		},
	}
}

func prefillDropdown(field model.FieldDefinition, cell any) Control {
	options := field.Options
	if len(options) == 0 {
		options = []string{""}
	}
	selected := DropdownIndex(options, cell)
	out := Control{
		Value:    options[selected],
		Text:     options[selected],
		Selected: selected,
		Options:  make([]Option, len(options)),
	}
	for idx, option := range options {
		out.Options[idx] = Option{Value: option, Selected: idx == selected}
	}
	return out
}

// DropdownIndex returns the index of the option equal to the stringified
// cell, or 0 when there is no exact match.
func DropdownIndex(options []string, cell any) int {
	current := model.Stringify(cell)
	for idx, option := range options {
		if option == current {
			return idx
		}
	}
	return 0
}

// NumberValue coerces a stored cell to float64. Absent and unparsable values
// read as 0.
func NumberValue(cell any) float64 {
	switch v := cell.(type) {
	case float64:
		if model.IsAbsent(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	}
	raw := strings.TrimSpace(model.Stringify(cell))
	if raw == "" {
		return 0
	}
	number, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		return 0
	}
	return number
}

var errNotANumber = errors.New("must be a number")

// finite rejects NaN and the infinities strconv accepts, none of which a
// backend can store.
func finite(number float64) (any, error) {
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return nil, errNotANumber
	}
	return number, nil
}

// CheckboxValue reports whether the stringified cell is "true", ignoring case.
func CheckboxValue(cell any) bool {
	return strings.ToLower(model.Stringify(cell)) == "true"
}

func chooseOption(field model.FieldDefinition, value string) (any, error) {
	options := field.Options
	if len(options) == 0 {
		options = []string{""}
	}
	for _, option := range options {
		if option == value {
			return option, nil
		}
	}
	return nil, fmt.Errorf("must be one of %s", quoteOptions(options))
}

func quoteOptions(options []string) string {
	quoted := make([]string, len(options))
	for idx, option := range options {
		quoted[idx] = strconv.Quote(option)
	}
	return strings.Join(quoted, ", ")
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
