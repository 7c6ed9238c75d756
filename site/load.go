package site

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pagebind/pagebind/frontmatter"
	"github.com/pagebind/pagebind/fsutil"
	"github.com/pagebind/pagebind/renderer"
	"github.com/pagebind/pagebind/templatex"
)

// loader turns content files into Pages. Each file is independent, so loading
// fans out across a bounded worker group and joins before indexing.
type loader struct {
	contentDir  string
	renderer    *renderer.Renderer
	parallelism int
}

type loadResult struct {
	page *Page
	err  *FileError
}

// LoadPages parses and renders every markdown file under the content
// directory. Per-file failures are collected, never fatal for the whole set;
// pages come back in deterministic source order.
func (l *loader) LoadPages(ctx context.Context) ([]*Page, []*FileError, error) {
	files, err := fsutil.ListFiles(l.contentDir)
	if err != nil {
		return nil, nil, fmt.Errorf("scan content dir: %w", err)
	}

	sources := make([]string, 0, len(files))
	for _, file := range files {
		if isMarkdown(file) && !isIgnorable(file) {
			sources = append(sources, file)
		}
	}

	limit := l.parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]loadResult, len(sources))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for i, source := range sources {
		i, source := i, source
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, err := l.loadPage(source)
			if err != nil {
				results[i] = loadResult{err: &FileError{Path: source, Err: err}}
				return nil
			}
			results[i] = loadResult{page: page}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	pages := make([]*Page, 0, len(results))
	fileErrs := make([]*FileError, 0)
	for _, result := range results {
		if result.err != nil {
			fileErrs = append(fileErrs, result.err)
			continue
		}
		pages = append(pages, result.page)
	}

	pages, slugErrs := checkSlugs(pages)
	fileErrs = append(fileErrs, slugErrs...)
	return pages, fileErrs, nil
}

func (l *loader) loadPage(source string) (*Page, error) {
	content, err := os.ReadFile(filepath.Join(l.contentDir, filepath.FromSlash(source)))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	meta, block, body, err := frontmatter.Parse(content)
	if err != nil {
		return nil, err
	}

	rendered, err := l.renderer.Render(body)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	sections := make([]templatex.TOCEntry, 0, len(rendered.Headings))
	for _, heading := range rendered.Headings {
		sections = append(sections, templatex.TOCEntry{ID: heading.ID, Text: heading.Text, Level: heading.Level})
	}

	slug := strings.TrimSpace(meta.Slug)
	if slug == "" {
		slug = renderer.Slugify(strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)))
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = deriveTitle(source)
	}

	return &Page{
		Source:      source,
		Slug:        slug,
		Route:       "/" + slug,
		OutputPath:  slug + ".html",
		Title:       title,
		Layout:      strings.TrimSpace(meta.Layout),
		Date:        meta.Date,
		Draft:       meta.Draft,
		Comments:    meta.Comments,
		Categories:  meta.Categories,
		Menu:        meta.Menu,
		Extra:       meta.Extra,
		FrontMatter: block,
		Body:        body,
		HTML:        template.HTML(rendered.HTML),
		Sections:    sections,
		Summary:     summarize(rendered.PlainText),
		PlainText:   rendered.PlainText,
		Warnings:    rendered.Warnings,
	}, nil
}

// checkSlugs enforces site-wide slug uniqueness. The first occurrence wins;
// later files with the same slug are reported and dropped.
func checkSlugs(pages []*Page) ([]*Page, []*FileError) {
	seen := make(map[string]string, len(pages))
	kept := make([]*Page, 0, len(pages))
	var errs []*FileError
	for _, page := range pages {
		if first, ok := seen[page.Slug]; ok {
			errs = append(errs, &FileError{
				Path: page.Source,
				Err:  fmt.Errorf("%w: %q already used by %s", ErrDuplicateSlug, page.Slug, first),
			})
			continue
		}
		seen[page.Slug] = page.Source
		kept = append(kept, page)
	}
	return kept, errs
}
