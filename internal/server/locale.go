package server

import (
	"fmt"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/models"
	"golang.org/x/text/language"
)

// locale holds the month names and interface strings of one site language.
type locale struct {
	tag      language.Tag
	months   [12]string
	loadMore string
	loading  string
	notFound string
	editedAt string // день, время
}

var locales = []locale{
	{
		tag:      language.BrazilianPortuguese,
		months:   [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
		loadMore: "Carregar mais posts",
		loading:  "Carregando...",
		notFound: "Post não encontrado",
		editedAt: "* editado em %s, às %s",
	},
	{
		tag:      language.AmericanEnglish,
		months:   [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		loadMore: "Load more posts",
		loading:  "Loading...",
		notFound: "Post not found",
		editedAt: "* edited on %s, at %s",
	},
}

var localeMatcher = language.NewMatcher([]language.Tag{
	language.BrazilianPortuguese,
	language.AmericanEnglish,
})

// matchLocale picks the closest supported locale; unknown names fall back
// to pt-BR.
func matchLocale(name string) *locale {
	tag, err := language.Parse(name)
	if err != nil {
		return &locales[0]
	}
	_, idx, _ := localeMatcher.Match(tag)
	return &locales[idx]
}

// formatDate renders t as "dd MMM yyyy". nil gives "".
func (l *locale) formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), l.months[t.Month()-1], t.Year())
}

// formatEdited returns the "edited" note for a post updated after it was
// published, or "".
func (l *locale) formatEdited(p models.Post) string {
	if p.UpdatedAt == nil || p.PublishedAt == nil || !p.UpdatedAt.After(*p.PublishedAt) {
		return ""
	}
	return fmt.Sprintf(l.editedAt, l.formatDate(p.UpdatedAt), p.UpdatedAt.Format("15:04"))
}
