package site

import (
	"html/template"
	"time"

	"github.com/pagebind/pagebind/frontmatter"
	"github.com/pagebind/pagebind/renderer"
	"github.com/pagebind/pagebind/templatex"
)

// Page is one content file parsed and rendered, immutable once built.
type Page struct {
	Source     string // path relative to the content directory
	Slug       string
	Route      string
	OutputPath string

	Title      string
	Layout     string
	Date       time.Time
	Draft      bool
	Comments   bool
	Categories []string
	Menu       map[string]frontmatter.MenuRef
	Extra      map[string]any

	// FrontMatter keeps the raw metadata block so it can be re-serialized
	// byte-for-byte.
	FrontMatter frontmatter.Block

	Body      []byte
	HTML      template.HTML
	Sections  []templatex.TOCEntry
	Summary   string
	PlainText string
	Warnings  []renderer.Warning
}
