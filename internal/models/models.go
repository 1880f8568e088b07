package models

import "time"

// RawRecord - документ в том виде, в каком его вернул CMS
type RawRecord map[string]any

// RawPage - одна страница выдачи CMS
type RawPage struct {
	Records    []RawRecord
	NextCursor string
}

type Mark struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	URL   string `json:"url,omitempty"`
}

type RichTextSpan struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Marks []Mark `json:"marks,omitempty"`
}

type ContentBlock struct {
	Heading string         `json:"heading"`
	Body    []RichTextSpan `json:"body"`
}

type Post struct {
	ID          string         `json:"id"`
	PublishedAt *time.Time     `json:"publishedAt"`
	UpdatedAt   *time.Time     `json:"updatedAt"`
	Title       string         `json:"title"`
	Subtitle    string         `json:"subtitle"`
	Author      string         `json:"author"`
	BannerURL   string         `json:"bannerUrl,omitempty"`
	Content     []ContentBlock `json:"content"`
}

// Snapshot - сгенерированная страница поста. Post == nil означает, что поста в CMS нет.
type Snapshot struct {
	Slug    string    `json:"slug"`
	Post    *Post     `json:"post"`
	BuiltAt time.Time `json:"builtAt"`
}

type PaginatedPosts struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"hasMore"`
}
