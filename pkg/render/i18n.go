package render

import (
	"errors"
	"fmt"
	"strings"
)

// Message keys for the fixed UI strings.
const (
	MessageTitle        = "portal.title"
	MessageNavigate     = "portal.navigate"
	MessageHeading      = "portal.heading"
	MessageSubmit       = "portal.submit"
	MessageSaved        = "portal.saved"
	MessageAccessDenied = "portal.access_denied"
	MessageInvalidToken = "portal.invalid_token"
	MessageUnavailable  = "portal.unavailable"
)

// DefaultMessages are the English strings used when no translator is set or a
// key is missing. Heading and Saved take the tab name as argument.
var DefaultMessages = map[string]string{
	MessageTitle:        "Client Reporting Portal",
	MessageNavigate:     "Navigate",
	MessageHeading:      "%s Reporting",
	MessageSubmit:       "Save Progress",
	MessageSaved:        "Saved data for %s!",
	MessageAccessDenied: "Access Denied. No token provided.",
	MessageInvalidToken: "Invalid Token. Please check your link.",
	MessageUnavailable:  "The reporting data is temporarily unavailable. Please try again later.",
}

// ErrMissingTranslator is passed to MissingTranslationHandler when no
// translator is configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a message key for a locale. Args follow fmt verbs.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides the string used when translation fails.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// MapTranslator is a static Translator keyed by locale then message key.
type MapTranslator map[string]map[string]string

// Translate implements Translator.
func (m MapTranslator) Translate(locale, key string, args ...any) (string, error) {
	messages, ok := m[locale]
	if !ok {
		return "", fmt.Errorf("render: no messages for locale %q", locale)
	}
	format, ok := messages[key]
	if !ok || strings.TrimSpace(format) == "" {
		return "", fmt.Errorf("render: no message %q for locale %q", key, locale)
	}
	return formatMessage(format, args...), nil
}

// Localize fills the display strings of page from its raw state.
func Localize(page *Page, opts RenderOptions) {
	if page == nil {
		return
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	tr := func(key string, args ...any) string {
		return translate(opts.Locale, key, args, opts.Translator, onMissing)
	}

	page.Title = tr(MessageTitle)
	page.NavLabel = tr(MessageNavigate)
	page.SubmitLabel = tr(MessageSubmit)

	switch page.Denial {
	case DenialAccess:
		page.Message = tr(MessageAccessDenied)
		return
	case DenialInvalidToken:
		page.Message = tr(MessageInvalidToken)
		return
	case DenialUnavailable:
		page.Message = tr(MessageUnavailable)
		return
	}

	if page.Tab != "" {
		page.Heading = tr(MessageHeading, page.Tab)
	}
	if page.Saved && page.Tab != "" {
		page.Notice = tr(MessageSaved, page.Tab)
	}
}

func translate(locale, key string, args []any, t Translator, onMissing MissingTranslationHandler) string {
	if t == nil {
		return onMissing(locale, key, args, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key, args...)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, args, err)
}

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	format, ok := DefaultMessages[key]
	if !ok {
		return key
	}
	return formatMessage(format, args...)
}

func formatMessage(format string, args ...any) string {
	if len(args) == 0 || !strings.Contains(format, "%") {
		return format
	}
	return fmt.Sprintf(format, args...)
}
