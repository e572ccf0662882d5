package render

import (
	"github.com/goliatone/go-formportal/pkg/widgets"
)

// Denial explains why a page carries a message instead of a form.
type Denial string

const (
	DenialNone         Denial = ""
	DenialAccess       Denial = "access_denied"
	DenialInvalidToken Denial = "invalid_token"
	DenialUnavailable  Denial = "unavailable"
)

// TabLink is one navigation entry in the sidebar.
type TabLink struct {
	Name   string `json:"name"`
	URL    string `json:"url,omitempty"`
	Active bool   `json:"active"`
}

// Page is the view model shared by every renderer: the client sidebar, the tab
// navigation and the form for the active tab. Display strings (Title,
// Heading, SubmitLabel, Notice, Message) are filled by Localize.
type Page struct {
	Title       string            `json:"title"`
	Client      string            `json:"client"`
	NavLabel    string            `json:"nav_label"`
	Tabs        []TabLink         `json:"tabs"`
	Tab         string            `json:"tab"`
	Heading     string            `json:"heading"`
	Controls    []widgets.Control `json:"controls"`
	Hidden      []HiddenField     `json:"hidden,omitempty"`
	Action      string            `json:"action,omitempty"`
	SubmitLabel string            `json:"submit_label"`
	Revision    string            `json:"revision,omitempty"`
	Saved       bool              `json:"saved"`
	Notice      string            `json:"notice,omitempty"`
	Denial      Denial            `json:"denial,omitempty"`
	Message     string            `json:"message,omitempty"`
	FormErrors  []string          `json:"form_errors,omitempty"`
}

// DeniedPage returns a page carrying only the message for reason.
func DeniedPage(reason Denial) Page {
	return Page{Denial: reason}
}

// HasForm reports whether the page renders a form.
func (p Page) HasForm() bool {
	return p.Denial == DenialNone && p.Tab != ""
}

// LinkTabs fills every tab URL using link.
func (p *Page) LinkTabs(link func(tab string) string) {
	if p == nil || link == nil {
		return
	}
	for idx := range p.Tabs {
		p.Tabs[idx].URL = link(p.Tabs[idx].Name)
	}
}

// Control returns the control bound to column.
func (p Page) Control(column string) (widgets.Control, bool) {
	for _, control := range p.Controls {
		if control.Column == column {
			return control, true
		}
	}
	return widgets.Control{}, false
}

// Prepare returns a copy of page with options applied: localised strings,
// mapped errors, sanitised display text, the action URL and hidden fields.
// Renderers call it before producing output.
func Prepare(page Page, options RenderOptions) Page {
	out := page
	out.Tabs = append([]TabLink(nil), page.Tabs...)
	out.Controls = append([]widgets.Control(nil), page.Controls...)
	if options.Action != "" {
		out.Action = options.Action
	}

	hidden := MergeHiddenFields(hiddenMap(page.Hidden), options.Hidden...)
	if page.Revision != "" {
		hidden = MergeHiddenFields(hidden, RevisionField(page.Revision))
	}
	out.Hidden = SortedHiddenFields(hidden)

	mapping := MapErrorPayload(out, options.Errors)
	for idx := range out.Controls {
		control := &out.Controls[idx]
		control.Label = SanitizeText(control.Label)
		if messages := mapping.Fields[control.Column]; len(messages) > 0 {
			control.Errors = MergeFormErrors(control.Errors, messages...)
		}
	}
	out.FormErrors = MergeFormErrors(page.FormErrors, mapping.Form...)
	out.Client = SanitizeText(out.Client)

	Localize(&out, options)
	return out
}

func hiddenMap(fields []HiddenField) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		out[field.Name] = field.Value
	}
	return out
}
