package render

import "strings"

// TemplateFuncs returns the helpers HTML templates use to localise strings
// beyond the fixed page fields, bound to the locale and translator of opts:
//
//	{{ translate("portal.saved", page.tab) }}
//
// Missing keys fall back to OnMissing, then DefaultMessages, then the key.
func TemplateFuncs(opts RenderOptions) map[string]any {
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	locale := strings.TrimSpace(opts.Locale)
	return map[string]any{
		"translate": func(key string, args ...any) string {
			key = strings.TrimSpace(key)
			if key == "" {
				return ""
			}
			return translate(locale, key, args, opts.Translator, onMissing)
		},
	}
}
