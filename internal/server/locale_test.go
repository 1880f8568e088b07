package server

import (
	"testing"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMatchLocale(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"pt-BR", "pt-BR"},
		{"pt", "pt-BR"},
		{"en", "en-US"},
		{"en-US", "en-US"},
		{"", "pt-BR"},
		{"not a locale!", "pt-BR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matchLocale(tt.name).tag.String())
		})
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2021, 3, 5, 19, 25, 28, 0, time.UTC)

	assert.Equal(t, "05 mar 2021", matchLocale("pt-BR").formatDate(&d))
	assert.Equal(t, "05 Mar 2021", matchLocale("en").formatDate(&d))
	assert.Equal(t, "", matchLocale("pt-BR").formatDate(nil))
}

func TestFormatEdited(t *testing.T) {
	published := time.Date(2021, 3, 15, 19, 25, 28, 0, time.UTC)
	updated := time.Date(2021, 3, 19, 15, 49, 0, 0, time.UTC)
	loc := matchLocale("pt-BR")

	assert.Equal(t, "* editado em 19 mar 2021, às 15:49",
		loc.formatEdited(models.Post{PublishedAt: &published, UpdatedAt: &updated}))
	assert.Equal(t, "", loc.formatEdited(models.Post{PublishedAt: &published, UpdatedAt: &published}))
	assert.Equal(t, "", loc.formatEdited(models.Post{PublishedAt: &published}))
}
