package content

import (
	"testing"

	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostView(t *testing.T) {
	assert.Equal(t, ViewLoading, Loading().State)
	assert.Nil(t, Loading().Post)
	assert.Equal(t, ViewNotFound, NotFound().State)

	post := models.Post{
		ID:      "p",
		Content: []models.ContentBlock{{Heading: "Hello world", Body: []models.RichTextSpan{{Text: "one two"}}}},
	}
	view := Ready(post)
	assert.Equal(t, ViewReady, view.State)
	require.NotNil(t, view.Post)
	assert.Equal(t, "p", view.Post.ID)
	assert.Equal(t, 1, view.ReadTime)
}

func TestViewState_String(t *testing.T) {
	assert.Equal(t, "loading", ViewLoading.String())
	assert.Equal(t, "ready", ViewReady.String())
	assert.Equal(t, "not_found", ViewNotFound.String())
	assert.Equal(t, "unknown", ViewState(42).String())
}
