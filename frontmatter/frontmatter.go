package frontmatter

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	openDelimiter  = []byte("---\n")
	closeDelimiter = []byte("\n---")
)

// MalformedError reports a metadata block that could not be interpreted:
// an unterminated delimiter pair or a body that is not well-formed YAML.
type MalformedError struct {
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed front matter: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed front matter: %s", e.Reason)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// MenuRef places a page inside a named menu.
type MenuRef struct {
	Weight int    `yaml:"weight"`
	Icon   string `yaml:"icon"`
}

// Metadata is the typed view of a page's front matter. Keys the builder does
// not recognize are preserved untouched in Extra.
type Metadata struct {
	Title      string
	Layout     string
	Slug       string
	Date       time.Time
	Draft      bool
	Comments   bool
	Categories []string
	Menu       map[string]MenuRef
	Extra      map[string]any
}

// Block is the raw metadata block exactly as it appeared in the source file.
// Keeping the original bytes lets callers re-serialize the block without any
// formatting drift.
type Block struct {
	inner   []byte
	present bool
	// closedAtEOF records a closing delimiter with no trailing newline, so
	// Serialize can reproduce the file ending exactly.
	closedAtEOF bool
}

// Present reports whether the source file carried a metadata block at all.
func (b Block) Present() bool { return b.present }

// Bytes returns the block content without its delimiters.
func (b Block) Bytes() []byte { return b.inner }

// Serialize reconstructs the delimited block byte-for-byte as it was read.
func (b Block) Serialize() []byte {
	if !b.present {
		return nil
	}
	out := make([]byte, 0, len(b.inner)+8)
	out = append(out, openDelimiter...)
	out = append(out, b.inner...)
	out = append(out, "---"...)
	if !b.closedAtEOF {
		out = append(out, '\n')
	}
	return out
}

// Split separates the metadata block from the markdown body. A file that does
// not open with the delimiter has no front matter: the whole content is body.
// An opening delimiter without a closing one is a malformed block.
func Split(content []byte) (Block, []byte, error) {
	if !bytes.HasPrefix(content, openDelimiter) {
		return Block{}, content, nil
	}

	rest := content[len(openDelimiter):]

	// The closing line may follow the opening delimiter immediately; the
	// scan below only finds delimiters preceded by block content.
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return Block{present: true}, rest[4:], nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return Block{present: true, closedAtEOF: true}, nil, nil
	}

	idx := bytes.Index(rest, closeDelimiter)
	for idx >= 0 {
		tail := rest[idx+len(closeDelimiter):]
		if len(tail) == 0 {
			return Block{inner: rest[:idx+1], present: true, closedAtEOF: true}, nil, nil
		}
		if tail[0] == '\n' {
			return Block{inner: rest[:idx+1], present: true}, tail[1:], nil
		}
		next := bytes.Index(rest[idx+1:], closeDelimiter)
		if next < 0 {
			break
		}
		idx += 1 + next
	}

	return Block{}, nil, &MalformedError{Reason: "missing closing delimiter"}
}

// Parse splits content and decodes the metadata block. The returned Metadata
// carries defaults for absent keys (comments default to enabled); the Block
// retains the raw bytes for round-trip serialization.
func Parse(content []byte) (*Metadata, Block, []byte, error) {
	block, body, err := Split(content)
	if err != nil {
		return nil, Block{}, nil, err
	}

	meta, err := decode(block)
	if err != nil {
		return nil, Block{}, nil, err
	}
	return meta, block, body, nil
}

// knownKeys are the metadata keys the builder interprets; everything else is
// carried opaquely.
var knownKeys = map[string]struct{}{
	"title":      {},
	"layout":     {},
	"slug":       {},
	"date":       {},
	"draft":      {},
	"comments":   {},
	"categories": {},
	"menu":       {},
}

func decode(block Block) (*Metadata, error) {
	meta := &Metadata{Comments: true}
	if !block.present || len(bytes.TrimSpace(block.inner)) == 0 {
		return meta, nil
	}

	var typed struct {
		Title      string             `yaml:"title"`
		Layout     string             `yaml:"layout"`
		Slug       string             `yaml:"slug"`
		Date       time.Time          `yaml:"date"`
		Draft      bool               `yaml:"draft"`
		Comments   *bool              `yaml:"comments"`
		Categories []string           `yaml:"categories"`
		Menu       map[string]MenuRef `yaml:"menu"`
	}
	if err := yaml.Unmarshal(block.inner, &typed); err != nil {
		return nil, &MalformedError{Reason: "invalid YAML", Err: err}
	}

	var raw map[string]any
	if err := yaml.Unmarshal(block.inner, &raw); err != nil {
		return nil, &MalformedError{Reason: "metadata block is not a mapping", Err: err}
	}

	meta.Title = typed.Title
	meta.Layout = typed.Layout
	meta.Slug = typed.Slug
	meta.Date = typed.Date
	meta.Draft = typed.Draft
	if typed.Comments != nil {
		meta.Comments = *typed.Comments
	}
	meta.Categories = typed.Categories
	meta.Menu = typed.Menu

	for key, value := range raw {
		if _, ok := knownKeys[key]; ok {
			continue
		}
		if meta.Extra == nil {
			meta.Extra = make(map[string]any)
		}
		meta.Extra[key] = value
	}
	return meta, nil
}
