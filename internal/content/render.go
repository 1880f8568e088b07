package content

import (
	"html"
	"html/template"
	"sort"
	"strings"

	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.UGCPolicy()

var blockTags = map[string]string{
	"paragraph":    "p",
	"preformatted": "pre",
	"heading1":     "h1",
	"heading2":     "h2",
	"heading3":     "h3",
	"heading4":     "h4",
	"heading5":     "h5",
	"heading6":     "h6",
	"list-item":    "li",
	"o-list-item":  "li",
}

// RenderHTML renders a rich-text body to sanitized HTML. Consecutive list
// items are grouped into one ul or ol.
func RenderHTML(spans []models.RichTextSpan) template.HTML {
	var b strings.Builder
	openList := ""

	for _, span := range spans {
		list := ""
		switch span.Type {
		case "list-item":
			list = "ul"
		case "o-list-item":
			list = "ol"
		}
		if list != openList {
			if openList != "" {
				b.WriteString("</" + openList + ">")
			}
			if list != "" {
				b.WriteString("<" + list + ">")
			}
			openList = list
		}

		tag, ok := blockTags[span.Type]
		if !ok {
			tag = "p"
		}
		b.WriteString("<" + tag + ">")
		b.WriteString(renderMarks(span.Text, span.Marks))
		b.WriteString("</" + tag + ">")
	}
	if openList != "" {
		b.WriteString("</" + openList + ">")
	}

	return template.HTML(htmlPolicy.Sanitize(b.String()))
}

// renderMarks applies marks by rune offset. Marks are assumed to nest.
func renderMarks(text string, marks []models.Mark) string {
	runes := []rune(text)
	valid := make([]models.Mark, 0, len(marks))
	for _, m := range marks {
		if m.Start < 0 || m.End > len(runes) || m.Start >= m.End {
			continue
		}
		valid = append(valid, m)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	var b strings.Builder
	var stack []models.Mark
	next := 0
	for i := 0; i <= len(runes); i++ {
		for len(stack) > 0 && stack[len(stack)-1].End == i {
			b.WriteString(closeTag(stack[len(stack)-1]))
			stack = stack[:len(stack)-1]
		}
		if i == len(runes) {
			for len(stack) > 0 {
				b.WriteString(closeTag(stack[len(stack)-1]))
				stack = stack[:len(stack)-1]
			}
			break
		}
		for next < len(valid) && valid[next].Start == i {
			b.WriteString(openTag(valid[next]))
			stack = append(stack, valid[next])
			next++
		}
		b.WriteString(html.EscapeString(string(runes[i])))
	}
	return b.String()
}

func openTag(m models.Mark) string {
	switch m.Type {
	case "strong":
		return "<strong>"
	case "em":
		return "<em>"
	case "hyperlink":
		return `<a href="` + html.EscapeString(m.URL) + `">`
	default:
		return "<span>"
	}
}

func closeTag(m models.Mark) string {
	switch m.Type {
	case "strong":
		return "</strong>"
	case "em":
		return "</em>"
	case "hyperlink":
		return "</a>"
	default:
		return "</span>"
	}
}
