package render

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the page pipeline.
type RenderOptions struct {
	// Action is the URL the form posts back to. Renderers fall back to an empty
	// action (the current URL) when unset.
	Action string
	// Errors surfaces validation feedback keyed by column name. Keys that do not
	// match a control on the page are shown as form-level errors.
	Errors map[string][]string
	// Hidden lists extra hidden inputs emitted inside the form.
	Hidden []HiddenField
	// Locale and Translator localise the fixed UI strings. Without a translator
	// the built-in English messages are used.
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
	// Theme and Variant select a registered theme for renderers that support
	// theming.
	Theme   string
	Variant string
}
