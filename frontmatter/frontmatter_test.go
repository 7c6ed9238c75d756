package frontmatter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aboutPage = `---
title: "About Me"
slug: "about-me"
date: 2024-03-01T10:00:00Z
draft: false
comments: false
categories:
  - personal
menu:
  main:
    weight: 2
    icon: user
layout: page
---
# Hello

Some body text.
`

func TestParseFullMetadata(t *testing.T) {
	meta, block, body, err := Parse([]byte(aboutPage))
	require.NoError(t, err)
	require.True(t, block.Present())

	assert.Equal(t, "About Me", meta.Title)
	assert.Equal(t, "about-me", meta.Slug)
	assert.Equal(t, "page", meta.Layout)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), meta.Date)
	assert.False(t, meta.Draft)
	assert.False(t, meta.Comments)
	assert.Equal(t, []string{"personal"}, meta.Categories)
	require.Contains(t, meta.Menu, "main")
	assert.Equal(t, 2, meta.Menu["main"].Weight)
	assert.Equal(t, "user", meta.Menu["main"].Icon)
	assert.Empty(t, meta.Extra)

	assert.Equal(t, "# Hello\n\nSome body text.\n", string(body))
}

func TestParseDefaults(t *testing.T) {
	meta, _, _, err := Parse([]byte("---\ntitle: Post\n---\nbody\n"))
	require.NoError(t, err)

	assert.False(t, meta.Draft, "draft defaults to false")
	assert.True(t, meta.Comments, "comments default to enabled")
	assert.Empty(t, meta.Slug)
	assert.True(t, meta.Date.IsZero())
}

func TestParseUnknownKeysPreserved(t *testing.T) {
	meta, _, _, err := Parse([]byte("---\ntitle: Post\nauthor: jane\nseries: [a, b]\n---\n"))
	require.NoError(t, err)

	assert.Equal(t, "jane", meta.Extra["author"])
	assert.Equal(t, []any{"a", "b"}, meta.Extra["series"])
	assert.NotContains(t, meta.Extra, "title")
}

func TestParseWithoutFrontMatter(t *testing.T) {
	content := []byte("# Just markdown\n\nNo metadata here.\n")
	meta, block, body, err := Parse(content)
	require.NoError(t, err)

	assert.False(t, block.Present())
	assert.Equal(t, content, body)
	assert.True(t, meta.Comments)
	assert.Nil(t, block.Serialize())
}

func TestParseEmptyBlock(t *testing.T) {
	meta, block, body, err := Parse([]byte("---\n---\nbody text\n"))
	require.NoError(t, err)

	assert.True(t, block.Present())
	assert.Empty(t, block.Bytes())
	assert.Equal(t, "body text\n", string(body))
	assert.True(t, meta.Comments, "empty block carries all defaults")
	assert.False(t, meta.Draft)
}

func TestParseEmptyBlockAtEOF(t *testing.T) {
	meta, block, body, err := Parse([]byte("---\n---"))
	require.NoError(t, err)

	assert.True(t, block.Present())
	assert.Empty(t, body)
	assert.True(t, meta.Comments)
}

func TestParseUnterminatedBlock(t *testing.T) {
	_, _, _, err := Parse([]byte("---\ntitle: Broken\ndate: 2024-01-01\n"))
	require.Error(t, err)

	var malformed *MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Contains(t, malformed.Error(), "closing delimiter")
}

func TestParseInvalidYAML(t *testing.T) {
	_, _, _, err := Parse([]byte("---\ntitle: [unclosed\n---\nbody\n"))
	require.Error(t, err)

	var malformed *MalformedError
	require.True(t, errors.As(err, &malformed))
}

func TestSerializeRoundTrip(t *testing.T) {
	inputs := []string{
		aboutPage,
		"---\ntitle: Minimal\n---\nbody\n",
		"---\n# comment line\ntitle: 'quoted'\nweird_key:   spaced\n---\nrest\n",
		"---\ntitle: No Trailing Newline\n---",
		"---\n---\nbody\n",
		"---\n---",
	}
	for _, input := range inputs {
		block, body, err := Split([]byte(input))
		require.NoError(t, err)

		reassembled := append(block.Serialize(), body...)
		assert.Equal(t, input, string(reassembled), "metadata block must round-trip byte-for-byte")
	}
}

func TestSplitBodyStartsAfterDelimiter(t *testing.T) {
	block, body, err := Split([]byte("---\na: 1\n---\n---\nnot metadata\n"))
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(block.Bytes()))
	assert.Equal(t, "---\nnot metadata\n", string(body))
}
