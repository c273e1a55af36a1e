package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagepdf/models"
)

func TestRelatedChapters(t *testing.T) {
	html := `<select class="single-chapter-select form-control">
		<option data-redirect="https://x.test/porncomic/story-a/part-1/">Part 1</option>
		<option data-redirect="https://x.test/porncomic/story-a/part-2/"> Part 2 </option>
		<option data-redirect="https://x.test/porncomic/story-b/part-1/">Other story</option>
		<option data-redirect="">Missing target</option>
		<option data-redirect="https://x.test/porncomic/story-a/part-3/"></option>
	</select>`

	got, err := RelatedChapters(html, "https://x.test/porncomic/story-a/part-1/", "/porncomic/")
	require.NoError(t, err)
	assert.Equal(t, []models.RelatedChapter{
		{URL: "https://x.test/porncomic/story-a/part-1/", Name: "Part 1"},
		{URL: "https://x.test/porncomic/story-a/part-2/", Name: "Part 2"},
	}, got)
}

func TestRelatedChapters_NoSelector(t *testing.T) {
	got, err := RelatedChapters(`<p>single</p>`, "https://x.test/a/", "/porncomic/")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoryID(t *testing.T) {
	assert.Equal(t, "story-a", StoryID("https://x.test/porncomic/story-a/part-1/", "/porncomic/"))
	assert.Equal(t, "solo", StoryID("https://x.test/porncomic/solo", "/porncomic/"))
	assert.Equal(t, "", StoryID("https://x.test/comics/story-a/", "/porncomic/"))
	assert.Equal(t, "", StoryID("https://x.test/porncomic/a/", ""))
}
