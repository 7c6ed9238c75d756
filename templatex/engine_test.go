package templatex

import (
	"bytes"
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestLoadAndRenderLayout(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"page.html": `<title>{{.PageTitle}}</title><main>{{.ContentHTML}}</main>`,
	})

	engine, err := Load(dir)
	require.NoError(t, err)
	require.True(t, engine.Has("page"))

	var buf bytes.Buffer
	err = engine.Render(&buf, "page", &PageData{
		PageTitle:   "About Me - My Site",
		ContentHTML: template.HTML("<p>hi</p>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<title>About Me - My Site</title><main><p>hi</p></main>", buf.String())
}

func TestRenderUnknownLayout(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"page.html": `ok`})
	engine, err := Load(dir)
	require.NoError(t, err)

	err = engine.Render(&bytes.Buffer{}, "gallery", &PageData{})
	require.Error(t, err)

	var unknown *UnknownLayoutError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "gallery", unknown.Layout)
}

func TestLoadWithPartials(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"post.html":            `{{template "nav" .}}<article>{{.Title}}</article>`,
		"partials/navbar.html": `{{define "nav"}}<nav>{{.SiteName}}</nav>{{end}}`,
	})

	engine, err := Load(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, engine.Render(&buf, "post", &PageData{SiteName: "Blog", Title: "T"}))
	assert.Equal(t, "<nav>Blog</nav><article>T</article>", buf.String())
}

func TestLayoutsSorted(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"post.html": `a`,
		"page.html": `b`,
		"list.html": `c`,
	})
	engine, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"list", "page", "post"}, engine.Layouts())
}

func TestLoadEmptyDir(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}
