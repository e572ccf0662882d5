package render

import (
	"slices"
	"strings"
)

// ErrorMapping splits an error payload into control-level and form-level
// messages. Control keys are worksheet column names.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates and normalises multiple form-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload matches payload keys to the controls on page. A key matches
// when it equals a column name or is a JSON pointer to one (for example
// "/Annual Revenue" or "/body/Notes"). Unknown keys become form-level errors
// so messages are not lost.
func MapErrorPayload(page Page, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{
		Fields: make(map[string][]string),
	}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	columns := make(map[string]struct{}, len(page.Controls))
	for _, control := range page.Controls {
		columns[control.Column] = struct{}{}
	}

	for _, rawKey := range sortedKeys(payload) {
		messages := normalizeMessages(payload[rawKey])
		if len(messages) == 0 {
			continue
		}
		column, ok := matchColumn(rawKey, columns)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[column] = append(mapping.Fields[column], messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func matchColumn(raw string, columns map[string]struct{}) (string, bool) {
	if _, ok := columns[raw]; ok {
		return raw, true
	}
	if isFormLevelKey(raw) {
		return "", false
	}
	segments := pointerSegments(raw)
	for len(segments) > 0 {
		if _, wrapper := wrapperSegments[strings.ToLower(segments[0])]; !wrapper {
			break
		}
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return "", false
	}
	if _, ok := columns[segments[0]]; ok {
		return segments[0], true
	}
	return "", false
}

var wrapperSegments = map[string]struct{}{
	"body":    {},
	"request": {},
	"payload": {},
	"data":    {},
}

func pointerSegments(raw string) []string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "#")
	if !strings.HasPrefix(clean, "/") {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func sortedKeys(payload map[string][]string) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", "/", "#", "#/", "form", "__all__", "non_field_errors":
		return true
	default:
		return false
	}
}
