package content

import (
	"strings"

	"github.com/ButyrinIA/spacetraveling/internal/models"
)

// FlattenText returns the plain text of a rich-text value: span texts in
// source order, separated by a single space, formatting dropped.
func FlattenText(spans []models.RichTextSpan) string {
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		if s.Text == "" {
			continue
		}
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// textOf flattens a field that may be either a plain string or rich text.
func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		return FlattenText(parseRichText(t))
	default:
		return ""
	}
}

func parseRichText(v any) []models.RichTextSpan {
	items, ok := v.([]any)
	if !ok {
		if s, ok := v.(string); ok && s != "" {
			return []models.RichTextSpan{{Type: "paragraph", Text: s}}
		}
		return []models.RichTextSpan{}
	}

	spans := make([]models.RichTextSpan, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		span := models.RichTextSpan{
			Type: stringField(obj, "type"),
			Text: stringField(obj, "text"),
		}
		if raw, ok := obj["spans"].([]any); ok {
			span.Marks = parseMarks(raw)
		}
		spans = append(spans, span)
	}
	return spans
}

func parseMarks(raw []any) []models.Mark {
	var marks []models.Mark
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		m := models.Mark{
			Type:  stringField(obj, "type"),
			Start: intField(obj, "start"),
			End:   intField(obj, "end"),
		}
		if data, ok := obj["data"].(map[string]any); ok {
			m.URL = stringField(data, "url")
		}
		marks = append(marks, m)
	}
	return marks
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func intField(obj map[string]any, key string) int {
	switch n := obj[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
