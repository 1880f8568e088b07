package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/ButyrinIA/spacetraveling/internal/content"
	"github.com/ButyrinIA/spacetraveling/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

type homePage struct {
	Lang     string
	Title    string
	Posts    []models.Post
	HasMore  bool
	Token    string
	LoadMore string
}

type postPage struct {
	Lang     string
	Title    string
	Loading  bool
	Message  string
	Post     *models.Post
	ReadTime int
	Edited   string
}

// Renderer turns listing and post views into HTML pages.
type Renderer struct {
	siteTitle string
	locale    *locale
	templates *template.Template
}

func NewRenderer(siteTitle, localeName string) (*Renderer, error) {
	loc := matchLocale(localeName)
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"date":     loc.formatDate,
		"richtext": content.RenderHTML,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{siteTitle: siteTitle, locale: loc, templates: tmpl}, nil
}

// Listing renders the home page. An empty token hides "load more".
func (r *Renderer) Listing(w io.Writer, posts []models.Post, hasMore bool, token string) error {
	return r.execute(w, "home.html", homePage{
		Lang:     r.locale.tag.String(),
		Title:    r.siteTitle,
		Posts:    posts,
		HasMore:  hasMore && token != "",
		Token:    token,
		LoadMore: r.locale.loadMore,
	})
}

func (r *Renderer) Post(w io.Writer, view content.PostView) error {
	page := postPage{
		Lang:  r.locale.tag.String(),
		Title: r.siteTitle,
	}
	switch view.State {
	case content.ViewLoading:
		page.Loading = true
		page.Message = r.locale.loading
	case content.ViewNotFound:
		page.Message = r.locale.notFound
	case content.ViewReady:
		page.Post = view.Post
		page.ReadTime = view.ReadTime
		page.Title = view.Post.Title + " | " + r.siteTitle
		page.Edited = r.locale.formatEdited(*view.Post)
	}
	return r.execute(w, "post.html", page)
}

// execute renders into a buffer first so a template error never leaves a
// half-written response.
func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
