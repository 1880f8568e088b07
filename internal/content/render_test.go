package content

import (
	"testing"

	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRenderHTML(t *testing.T) {
	t.Run("paragraph with marks", func(t *testing.T) {
		out := RenderHTML([]models.RichTextSpan{{
			Type:  "paragraph",
			Text:  "bold and italic",
			Marks: []models.Mark{{Type: "strong", Start: 0, End: 4}, {Type: "em", Start: 9, End: 15}},
		}})
		assert.Equal(t, "<p><strong>bold</strong> and <em>italic</em></p>", string(out))
	})

	t.Run("lists are grouped", func(t *testing.T) {
		out := RenderHTML([]models.RichTextSpan{
			{Type: "list-item", Text: "one"},
			{Type: "list-item", Text: "two"},
			{Type: "o-list-item", Text: "first"},
			{Type: "paragraph", Text: "after"},
		})
		assert.Equal(t, "<ul><li>one</li><li>two</li></ul><ol><li>first</li></ol><p>after</p>", string(out))
	})

	t.Run("text is escaped", func(t *testing.T) {
		out := RenderHTML([]models.RichTextSpan{{Type: "paragraph", Text: "<script>alert(1)</script>"}})
		assert.NotContains(t, string(out), "<script>")
	})

	t.Run("hyperlink", func(t *testing.T) {
		out := RenderHTML([]models.RichTextSpan{{
			Type:  "paragraph",
			Text:  "see docs",
			Marks: []models.Mark{{Type: "hyperlink", Start: 4, End: 8, URL: "https://example.com/docs"}},
		}})
		assert.Contains(t, string(out), `href="https://example.com/docs"`)
		assert.Contains(t, string(out), ">docs</a>")
	})

	t.Run("out of range marks are ignored", func(t *testing.T) {
		out := RenderHTML([]models.RichTextSpan{{
			Type:  "heading2",
			Text:  "título",
			Marks: []models.Mark{{Type: "strong", Start: 3, End: 99}},
		}})
		assert.Equal(t, "<h2>título</h2>", string(out))
	})
}
