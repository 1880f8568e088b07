package content

import (
	"strings"

	"github.com/ButyrinIA/spacetraveling/internal/models"
)

const WordsPerMinute = 200

// CountWords counts the words of every block heading and body.
func CountWords(post models.Post) int {
	words := 0
	for _, block := range post.Content {
		words += len(strings.Fields(block.Heading))
		words += len(strings.Fields(FlattenText(block.Body)))
	}
	return words
}

// EstimateReadTime returns the reading time in whole minutes, rounded up.
func EstimateReadTime(post models.Post) int {
	words := CountWords(post)
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
