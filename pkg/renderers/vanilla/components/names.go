package components

import "github.com/goliatone/go-formportal/pkg/widgets"

// Canonical component names. They match the widget names produced by the
// widget registry so a control resolves to its component directly.
const (
	NameInput    = widgets.WidgetInput
	NameTextarea = widgets.WidgetTextarea
	NameDate     = widgets.WidgetDate
	NameSelect   = widgets.WidgetSelect
	NameNumber   = widgets.WidgetNumber
	NameCheckbox = widgets.WidgetCheckbox
)

// Theme partial keys looked up before the built-in component templates.
const (
	PartialInput    = "forms.input"
	PartialTextarea = "forms.textarea"
	PartialDate     = "forms.date"
	PartialSelect   = "forms.select"
	PartialNumber   = "forms.number"
	PartialCheckbox = "forms.checkbox"
)
