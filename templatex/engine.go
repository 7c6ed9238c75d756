package templatex

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// UnknownLayoutError reports a page requesting a layout that no template file
// defines.
type UnknownLayoutError struct {
	Layout string
}

func (e *UnknownLayoutError) Error() string {
	return fmt.Sprintf("unknown layout %q", e.Layout)
}

// Engine is a thin wrapper around Go templates. Every file in the template
// directory contributes named templates; a page's layout key selects one.
type Engine struct {
	templates *template.Template
	StaticDir string
}

// PageData represents the data model handed to layout templates.
type PageData struct {
	Title           string
	PageTitle       string
	SiteName        string
	Slug            string
	ContentHTML     template.HTML
	Sections        []TOCEntry
	Categories      []string
	Date            time.Time
	DateISO         string
	DateDisplay     string
	Draft           bool
	CommentsEnabled bool
	Menus           map[string][]NavItem
	ActivePath      string
	BaseURL         string
	SearchIndexURL  string
	Listing         []ListingItem
	Meta            Meta
	Extra           map[string]any
}

// Meta holds SEO-oriented metadata for the rendered page.
type Meta struct {
	Description   string
	OpenGraphType string
	OpenGraphSite string
}

// TOCEntry models a single heading for in-page navigation.
type TOCEntry struct {
	ID    string
	Text  string
	Level int
}

// NavItem is one rendered menu entry.
type NavItem struct {
	Title  string
	URL    string
	Icon   string
	Weight int
	Active bool
}

// ListingItem is one row on a generated index or category page.
type ListingItem struct {
	Title       string
	URL         string
	Summary     string
	DateDisplay string
	Categories  []string
}

// Load instantiates an engine using files from templateDir. Each *.html file
// there (plus partials/) is parsed; templates are addressed by their defined
// name or base filename.
func Load(templateDir string) (*Engine, error) {
	if templateDir == "" {
		return nil, fmt.Errorf("template directory not configured")
	}

	engine := &Engine{}

	funcs := template.FuncMap{
		"safeHTML": func(v any) template.HTML {
			switch value := v.(type) {
			case template.HTML:
				return value
			case string:
				return template.HTML(value)
			default:
				return ""
			}
		},
		"baseHref": func(base string) string {
			base = strings.TrimSpace(base)
			if base == "" || base == "/" {
				return "/"
			}
			return "/" + strings.Trim(base, "/") + "/"
		},
	}

	files := make([]string, 0)
	mainFiles, err := filepath.Glob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}
	files = append(files, mainFiles...)

	partialsDir := filepath.Join(templateDir, "partials")
	if info, err := os.Stat(partialsDir); err == nil && info.IsDir() {
		partialFiles, err := filepath.Glob(filepath.Join(partialsDir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("glob partial templates: %w", err)
		}
		files = append(files, partialFiles...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found in %s", templateDir)
	}

	sort.Strings(files)

	tpl := template.New("root").Funcs(funcs)
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".html")
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", file, err)
		}
		if _, err := tpl.New(name).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", file, err)
		}
	}

	engine.templates = tpl

	assetsPath := filepath.Join(templateDir, "assets")
	if info, err := os.Stat(assetsPath); err == nil && info.IsDir() {
		engine.StaticDir = assetsPath
	}

	return engine, nil
}

// Has reports whether a layout with the given name is registered.
func (e *Engine) Has(layout string) bool {
	if e.templates == nil {
		return false
	}
	return e.templates.Lookup(layout) != nil
}

// Layouts returns the registered layout names sorted for deterministic
// diagnostics.
func (e *Engine) Layouts() []string {
	if e.templates == nil {
		return nil
	}
	names := make([]string, 0)
	for _, tpl := range e.templates.Templates() {
		name := tpl.Name()
		if name == "root" || strings.TrimSpace(name) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render writes the named layout into the provided writer.
func (e *Engine) Render(w io.Writer, layout string, data *PageData) error {
	if e.templates == nil {
		return fmt.Errorf("template engine not initialized")
	}
	if e.templates.Lookup(layout) == nil {
		return &UnknownLayoutError{Layout: layout}
	}
	return e.templates.ExecuteTemplate(w, layout, data)
}
