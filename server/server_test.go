package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagebind/pagebind/config"
	"github.com/pagebind/pagebind/site"
	"github.com/pagebind/pagebind/templatex"
)

func newPreview(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	contentDir := filepath.Join(root, "content")
	templateDir := filepath.Join(root, "template")
	require.NoError(t, os.MkdirAll(contentDir, 0o755))
	require.NoError(t, os.MkdirAll(templateDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(contentDir, "about.md"),
		[]byte("---\ntitle: About\nslug: about-me\n---\nhello preview\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(contentDir, "draft.md"),
		[]byte("---\ntitle: WIP\nslug: wip\ndraft: true\n---\nnot done\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "page.html"),
		[]byte(`<main>{{.ContentHTML}}</main>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "404.html"),
		[]byte(`<h1>missing</h1>`), 0o644))

	cfg := &config.Config{
		SiteName:      "Preview",
		ContentDir:    contentDir,
		TemplateDir:   templateDir,
		OutputDir:     filepath.Join(root, "dist"),
		DefaultLayout: "page",
		IncludeDrafts: true,
		Parallelism:   2,
	}

	engine, err := templatex.Load(templateDir)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := site.NewService(cfg, engine, logger)

	_, err = svc.Build(context.Background())
	require.NoError(t, err)

	return New(cfg, svc, logger, "test-server")
}

func get(t *testing.T, srv *Server, path string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestServeExtensionlessRoute(t *testing.T) {
	srv := newPreview(t)
	status, body := get(t, srv, "/about-me")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "hello preview")
}

func TestServeDraftInPreview(t *testing.T) {
	srv := newPreview(t)
	status, body := get(t, srv, "/wip")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "not done")
}

func TestServeRootFallsBackToIndex(t *testing.T) {
	srv := newPreview(t)
	status, _ := get(t, srv, "/")
	// The generated site directory is served for the root route.
	assert.Equal(t, http.StatusOK, status)
}

func TestServeNotFoundUsesThemedPage(t *testing.T) {
	srv := newPreview(t)
	status, body := get(t, srv, "/nope")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "missing")
}

func TestServeRejectsTraversal(t *testing.T) {
	srv := newPreview(t)
	status, _ := get(t, srv, "/../secret")
	assert.NotEqual(t, http.StatusOK, status)
}
