package renderer

import (
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

// Minifier compacts assembled HTML documents before they are written out.
type Minifier struct {
	m       *minify.M
	enabled bool
}

// NewMinifier builds an HTML minifier. When disabled it passes input through
// unchanged so callers need no branching.
func NewMinifier(enabled bool) *Minifier {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	return &Minifier{m: m, enabled: enabled}
}

// HTML optimizes raw HTML markup. Content inside pre/code blocks is preserved
// verbatim by the underlying minifier.
func (m *Minifier) HTML(raw []byte) ([]byte, error) {
	if !m.enabled {
		return raw, nil
	}
	return m.m.Bytes("text/html", raw)
}
