package vanilla

import (
	"strings"

	"github.com/goliatone/go-formportal/pkg/render/template/pongo"
)

func componentControlID(column string) string {
	slug := pongo.FieldID(column)
	if slug == "" {
		return ""
	}
	return "fp-" + slug
}

// sanitizeClassList drops reserved fp- classes and anything that could break
// out of the attribute.
func sanitizeClassList(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	tokens := strings.Fields(value)
	keep := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.HasPrefix(token, "fp-") || strings.ContainsAny(token, `"'<>&`) {
			continue
		}
		keep = append(keep, token)
	}
	return strings.Join(keep, " ")
}
