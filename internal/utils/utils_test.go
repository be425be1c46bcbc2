package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Guia Completo para React Hooks em 2024": "guia-completo-para-react-hooks-em-2024",
		"Guia Rápido: Go & Ação":                 "guia-rapido-go-acao",
		"  --Hello,   World!--  ":                "hello-world",
		"日本語":                                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := RenderMarkdown("# Title\n\n<script>alert(1)</script>\n\n![img](https://example.com/a.png)")

	assert.Contains(t, out, "<h1")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `loading="lazy"`)
}

func TestRenderMarkdownEmbedsYouTube(t *testing.T) {
	out := RenderMarkdown("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	assert.Contains(t, out, "https://www.youtube.com/embed/dQw4w9WgXcQ")
}

func TestPlainTextAndTruncate(t *testing.T) {
	text := PlainText("**Bold** and _italic_\n\n- item")
	assert.Equal(t, "Bold and italic item", text)
	assert.Equal(t, `Tom & "Jerry" here`, StripHTML(`<p>Tom &amp; &#34;Jerry&#34;</p>  <script>x</script><b>here</b>`))

	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ação…", Truncate("açãozinha", 4))
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("articles:a", 1, time.Minute)
	c.Set("articles:b", 2, time.Minute)
	c.Set("other", 3, time.Minute)
	assert.Equal(t, 1, c.Get("articles:a"))

	c.DeletePrefix("articles:")
	assert.Nil(t, c.Get("articles:a"))
	assert.Nil(t, c.Get("articles:b"))
	assert.Equal(t, 3, c.Get("other"))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.Get("other"))
}

func TestWeeklyActivity(t *testing.T) {
	sunday := time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)
	week := NewWeeklyActivity(sunday)
	assert.Equal(t, []int{1, 0, 0, 0, 0, 0, 0}, week)

	week = BumpWeeklyActivity(week, sunday, sunday.AddDate(0, 0, 1))
	assert.Equal(t, []int{1, 1, 0, 0, 0, 0, 0}, week)

	saturday := sunday.AddDate(0, 0, 6)
	week = BumpWeeklyActivity(week, sunday.AddDate(0, 0, 1), saturday)
	assert.Equal(t, []int{1, 1, 0, 0, 0, 0, 1}, week)

	nextMonday := sunday.AddDate(0, 0, 8)
	week = BumpWeeklyActivity(week, saturday, nextMonday)
	assert.Equal(t, []int{0, 1, 0, 0, 0, 0, 0}, week, "a new week starts from zero")

	assert.Len(t, BumpWeeklyActivity([]int{5}, sunday, sunday), 7)
	assert.True(t, SameWeek(sunday, saturday.Add(11*time.Hour)))
	assert.False(t, SameWeek(saturday, saturday.AddDate(0, 0, 1)))
	assert.True(t, SameDay(sunday, sunday.Add(time.Hour)))
	assert.False(t, SameDay(sunday, sunday.AddDate(0, 0, 1)))
}

func TestParseIDAndPassword(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	_, err = ParseID("0")
	assert.Error(t, err)
	_, err = ParseID("abc")
	assert.Error(t, err)
	assert.Equal(t, 7, StringToInt("x", 7))

	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("secret1", hash))
	assert.False(t, CheckPasswordHash("secret2", hash))
}
