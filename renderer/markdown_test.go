package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHeadingsAndPlainText(t *testing.T) {
	r := New()
	result, err := r.Render([]byte("# Première Section\n\nSome *emphasis* here.\n\n## Details\n"))
	require.NoError(t, err)

	require.Len(t, result.Headings, 2)
	assert.Equal(t, "premiere-section", result.Headings[0].ID)
	assert.Equal(t, 1, result.Headings[0].Level)
	assert.Equal(t, "details", result.Headings[1].ID)

	assert.Contains(t, string(result.HTML), "<em>emphasis</em>")
	assert.Contains(t, result.PlainText, "Some")
	assert.Empty(t, result.Warnings)
}

func TestRenderDuplicateHeadingIDs(t *testing.T) {
	r := New()
	result, err := r.Render([]byte("## Setup\n\n## Setup\n"))
	require.NoError(t, err)

	require.Len(t, result.Headings, 2)
	assert.Equal(t, "setup", result.Headings[0].ID)
	assert.Equal(t, "setup-1", result.Headings[1].ID)
}

func TestRenderFencedCodeVerbatim(t *testing.T) {
	r := New()
	src := "```go\nfmt.Println(\"*not emphasis* [not](a-link)\")\n```\n"
	result, err := r.Render([]byte(src))
	require.NoError(t, err)

	html := string(result.HTML)
	assert.Contains(t, html, `data-lang="go"`)
	assert.Contains(t, html, "*not emphasis*")
	assert.Contains(t, html, "[not](a-link)")
	assert.NotContains(t, html, "<em>not emphasis</em>")
	assert.Empty(t, result.Warnings)
}

func TestRenderUnterminatedFenceDegrades(t *testing.T) {
	r := New()
	result, err := r.Render([]byte("before\n\n```yaml\nkey: value\n"))
	require.NoError(t, err, "render must not abort on an open fence")

	assert.Contains(t, string(result.HTML), "value")
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, 3, result.Warnings[0].Line)
	assert.Contains(t, result.Warnings[0].Reason, "unterminated")
}

func TestRenderMalformedLinkDegradesToLiteral(t *testing.T) {
	r := New()
	result, err := r.Render([]byte("a [broken link(no closing bracket\n"))
	require.NoError(t, err)

	assert.Contains(t, string(result.HTML), "[broken link(no closing bracket")
	assert.NotContains(t, string(result.HTML), "<a ")
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"About Me":          "about-me",
		"Café Culture":      "cafe-culture",
		"  Spaced   Out  ":  "spaced-out",
		"already-slugged":   "already-slugged",
		"Symbols!@# Galore": "symbols-galore",
		"":                  "section",
	}
	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), "input %q", input)
	}
}

func TestMinifierHTML(t *testing.T) {
	m := NewMinifier(true)
	out, err := m.HTML([]byte("<html>  <body>\n  <p>hi</p>\n </body>\n</html>"))
	require.NoError(t, err)
	assert.Less(t, len(out), len("<html>  <body>\n  <p>hi</p>\n </body>\n</html>"))
	assert.Contains(t, string(out), "<p>hi</p>")

	passthrough := NewMinifier(false)
	raw := []byte("<p>  untouched  </p>")
	out, err = passthrough.HTML(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestRenderGFMTable(t *testing.T) {
	r := New()
	result, err := r.Render([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(result.HTML), "<table>"))
}
