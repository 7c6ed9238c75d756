package site

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pagebind/pagebind/config"
	"github.com/pagebind/pagebind/fsutil"
	"github.com/pagebind/pagebind/renderer"
	"github.com/pagebind/pagebind/templatex"
)

// Service orchestrates content loading, page assembly, and site output.
type Service struct {
	cfg       *config.Config
	templates *templatex.Engine
	minifier  *renderer.Minifier
	logger    *slog.Logger
	loader    *loader
}

// Report summarizes one build cycle. Per-file failures never halt the rest of
// the build; they are collected here so the caller can surface each offending
// path and exit non-zero.
type Report struct {
	PagesWritten  int
	DraftsSkipped int
	Listings      int
	FileErrors    []*FileError
}

// Ok reports whether the build completed without fatal per-file errors.
func (r *Report) Ok() bool { return len(r.FileErrors) == 0 }

// NewService constructs a Service instance.
func NewService(cfg *config.Config, templates *templatex.Engine, logger *slog.Logger) *Service {
	rend := renderer.New()
	return &Service{
		cfg:       cfg,
		templates: templates,
		minifier:  renderer.NewMinifier(cfg.Minify),
		logger:    logger,
		loader: &loader{
			contentDir:  cfg.ContentDir,
			renderer:    rend,
			parallelism: cfg.Parallelism,
		},
	}
}

// Build renders the entire content directory into the output directory. The
// new output is staged in a temp dir and swapped into place only when the
// build reaches the end, so a failed build never clobbers the previous site.
func (s *Service) Build(ctx context.Context) (*Report, error) {
	if !s.templates.Has(s.cfg.DefaultLayout) {
		return nil, fmt.Errorf("default layout: %w", &templatex.UnknownLayoutError{Layout: s.cfg.DefaultLayout})
	}

	report := &Report{}

	pages, fileErrs, err := s.loader.LoadPages(ctx)
	if err != nil {
		return nil, err
	}
	report.FileErrors = append(report.FileErrors, fileErrs...)

	for _, page := range pages {
		for _, warning := range page.Warnings {
			s.logger.Warn("render degraded", "file", page.Source, "defect", warning.String())
		}
	}

	// A page whose layout is missing can never assemble; resolve layouts up
	// front so those pages stay out of menus, categories, and the directory.
	valid := make([]*Page, 0, len(pages))
	for _, page := range pages {
		layout := page.Layout
		if layout == "" {
			layout = s.cfg.DefaultLayout
		}
		if !s.templates.Has(layout) {
			report.FileErrors = append(report.FileErrors, &FileError{
				Path: page.Source,
				Err:  &templatex.UnknownLayoutError{Layout: layout},
			})
			continue
		}
		valid = append(valid, page)
	}

	idx := BuildIndex(valid)
	nav := s.navMenus(idx)

	finalDir := s.cfg.OutputDir
	parent := filepath.Dir(finalDir)
	if parent == "" {
		parent = "."
	}
	tempDir, err := os.MkdirTemp(parent, ".__build-")
	if err != nil {
		return nil, fmt.Errorf("create temp output dir: %w", err)
	}
	cleanTemp := true
	defer func() {
		if cleanTemp && tempDir != "" {
			_ = os.RemoveAll(tempDir)
		}
	}()

	published := make([]*Page, 0, len(valid))
	assembled := make([]*Page, 0, len(valid))
	routesWritten := make(map[string]struct{}, len(valid))
	for _, page := range valid {
		document, err := s.assemble(page, nav)
		if err != nil {
			report.FileErrors = append(report.FileErrors, &FileError{Path: page.Source, Err: err})
			continue
		}
		assembled = append(assembled, page)
		if !page.Draft {
			published = append(published, page)
		}
		if page.Draft && !s.cfg.IncludeDrafts {
			report.DraftsSkipped++
			continue
		}
		if err := writeDocument(tempDir, page.OutputPath, document); err != nil {
			return nil, err
		}
		routesWritten[page.OutputPath] = struct{}{}
		report.PagesWritten++
	}

	// Template execution can still fail per page; listings must only refer
	// to documents that actually exist.
	if len(assembled) != len(valid) {
		idx = BuildIndex(assembled)
	}

	if err := s.writeListings(tempDir, idx, published, nav, routesWritten, report); err != nil {
		return nil, err
	}
	if err := s.writeNotFoundPage(tempDir, nav); err != nil {
		return nil, err
	}

	if err := s.copyAssets(tempDir); err != nil {
		return nil, err
	}
	if s.templates.StaticDir != "" {
		if err := fsutil.CopyTree(s.templates.StaticDir, filepath.Join(tempDir, "theme")); err != nil {
			return nil, fmt.Errorf("copy theme assets: %w", err)
		}
	}

	indexJSON, err := buildSearchIndex(published)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(tempDir, "search-index.json"), indexJSON, 0o644); err != nil {
		return nil, fmt.Errorf("write search index: %w", err)
	}

	if err := swapOutput(tempDir, finalDir, parent); err != nil {
		return nil, err
	}
	cleanTemp = false
	return report, nil
}

// assemble merges a page with its layout. Drafts assemble like any other page
// so previews stay possible; exclusion from the published site happens at
// write and index time.
func (s *Service) assemble(page *Page, nav map[string][]templatex.NavItem) ([]byte, error) {
	layout := page.Layout
	if layout == "" {
		layout = s.cfg.DefaultLayout
	}

	var buf bytes.Buffer
	if err := s.templates.Render(&buf, layout, s.pageData(page, nav)); err != nil {
		return nil, err
	}
	return s.minifier.HTML(buf.Bytes())
}

func (s *Service) pageData(page *Page, nav map[string][]templatex.NavItem) *templatex.PageData {
	var dateISO, dateDisplay string
	if !page.Date.IsZero() {
		dateISO = page.Date.UTC().Format("2006-01-02T15:04:05Z07:00")
		dateDisplay = page.Date.UTC().Format("Jan 2, 2006")
	}

	data := &templatex.PageData{
		Title:           page.Title,
		PageTitle:       s.pageTitle(page.Title),
		SiteName:        s.cfg.SiteName,
		Slug:            page.Slug,
		ContentHTML:     page.HTML,
		Sections:        page.Sections,
		Categories:      page.Categories,
		Date:            page.Date,
		DateISO:         dateISO,
		DateDisplay:     dateDisplay,
		Draft:           page.Draft,
		CommentsEnabled: page.Comments && !page.Draft,
		Menus:           navFor(nav, s.pageURL(page.Slug)),
		ActivePath:      page.Route,
		BaseURL:         s.cfg.BasePath(),
		SearchIndexURL:  s.cfg.BasePath() + "search-index.json",
		Extra:           page.Extra,
	}
	data.Meta = templatex.Meta{
		Description:   metaDescription(page.Summary, page.Title),
		OpenGraphType: "article",
		OpenGraphSite: s.cfg.SiteName,
	}
	return data
}

// navMenus converts the index's menu mapping into template-ready navigation,
// preserving the weight/slug ordering established by BuildIndex.
func (s *Service) navMenus(idx *Index) map[string][]templatex.NavItem {
	nav := make(map[string][]templatex.NavItem, len(idx.Menus))
	for _, name := range idx.MenuNames() {
		entries := idx.Menus[name]
		items := make([]templatex.NavItem, 0, len(entries))
		for _, entry := range entries {
			items = append(items, templatex.NavItem{
				Title:  entry.Page.Title,
				URL:    s.pageURL(entry.Page.Slug),
				Icon:   entry.Icon,
				Weight: entry.Weight,
			})
		}
		nav[name] = items
	}
	return nav
}

// navFor clones the shared navigation and flags the entry matching the active
// page URL. Pages are processed independently, so the shared map stays
// untouched.
func navFor(nav map[string][]templatex.NavItem, activeURL string) map[string][]templatex.NavItem {
	out := make(map[string][]templatex.NavItem, len(nav))
	for name, items := range nav {
		cloned := make([]templatex.NavItem, len(items))
		copy(cloned, items)
		for i := range cloned {
			cloned[i].Active = cloned[i].URL == activeURL
		}
		out[name] = cloned
	}
	return out
}

func (s *Service) pageURL(slug string) string {
	return s.cfg.BasePath() + slug + ".html"
}

func (s *Service) pageTitle(raw string) string {
	title := strings.TrimSpace(raw)
	site := strings.TrimSpace(s.cfg.SiteName)
	if title == "" {
		return site
	}
	if site == "" {
		return title
	}
	return fmt.Sprintf("%s - %s", title, site)
}

func writeDocument(baseDir, outputPath string, document []byte) error {
	target := filepath.Join(baseDir, filepath.FromSlash(outputPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(target, document, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	return nil
}

// copyAssets mirrors non-markdown files from the content dir into the output.
func (s *Service) copyAssets(baseDir string) error {
	files, err := fsutil.ListFiles(s.cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("scan assets: %w", err)
	}
	for _, file := range files {
		if isMarkdown(file) || isIgnorable(file) {
			continue
		}
		src := filepath.Join(s.cfg.ContentDir, filepath.FromSlash(file))
		dst := filepath.Join(baseDir, filepath.FromSlash(file))
		if err := fsutil.CopyFile(src, dst); err != nil {
			return fmt.Errorf("copy asset %s: %w", file, err)
		}
	}
	return nil
}

// swapOutput atomically replaces the previous build output, keeping it as a
// rollback target until the rename succeeds.
func swapOutput(tempDir, finalDir, parent string) error {
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("ensure output parent: %w", err)
	}

	backupDir := finalDir + ".old"
	if err := os.RemoveAll(backupDir); err != nil {
		return fmt.Errorf("clean backup dir: %w", err)
	}
	if err := os.Rename(finalDir, backupDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate old output: %w", err)
	}
	if err := os.Rename(tempDir, finalDir); err != nil {
		_ = os.Rename(backupDir, finalDir)
		return fmt.Errorf("activate new output: %w", err)
	}
	_ = os.RemoveAll(backupDir)
	return nil
}

// OutputDir returns the directory holding the published site.
func (s *Service) OutputDir() string {
	return s.cfg.OutputDir
}
