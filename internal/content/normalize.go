package content

import (
	"strings"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/models"
)

// The CMS emits offsets without a colon (+0000).
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000-0700",
}

// Normalize maps a raw CMS record to a Post. Only the uid is required;
// every other missing or malformed field becomes its zero value.
func Normalize(raw models.RawRecord) (models.Post, error) {
	uid, _ := raw["uid"].(string)
	if strings.TrimSpace(uid) == "" {
		docID, _ := raw["id"].(string)
		return models.Post{}, &MalformedRecordError{DocumentID: docID, Field: "uid"}
	}

	data, _ := raw["data"].(map[string]any)

	return models.Post{
		ID:          uid,
		PublishedAt: parseTime(raw["first_publication_date"]),
		UpdatedAt:   parseTime(raw["last_publication_date"]),
		Title:       textOf(data["title"]),
		Subtitle:    textOf(data["subtitle"]),
		Author:      textOf(data["author"]),
		BannerURL:   bannerURL(data),
		Content:     parseContent(data["content"]),
	}, nil
}

func parseTime(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func bannerURL(data map[string]any) string {
	for _, key := range []string{"banner", "main"} {
		if img, ok := data[key].(map[string]any); ok {
			if u := stringField(img, "url"); u != "" {
				return u
			}
		}
	}
	return ""
}

func parseContent(v any) []models.ContentBlock {
	items, _ := v.([]any)
	blocks := make([]models.ContentBlock, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		blocks = append(blocks, models.ContentBlock{
			Heading: textOf(obj["heading"]),
			Body:    parseRichText(obj["body"]),
		})
	}
	return blocks
}
