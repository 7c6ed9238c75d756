package site

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const searchIndexVersion = 1

type searchDoc struct {
	Route   string `json:"r"`
	Title   string `json:"t"`
	Summary string `json:"s"`
}

// buildSearchIndex produces a compact client-side term index over the
// published pages. Tokens are NFKD-folded so accented queries match their
// ASCII forms.
func buildSearchIndex(pages []*Page) (json.RawMessage, error) {
	docs := make([]searchDoc, 0, len(pages))
	terms := make(map[string][]int)

	for docID, page := range pages {
		docs = append(docs, searchDoc{Route: page.Route, Title: page.Title, Summary: page.Summary})

		seen := make(map[string]struct{}, 64)
		for _, field := range []string{page.Title, page.Summary, page.PlainText} {
			for _, token := range tokenize(field) {
				if _, ok := seen[token]; ok {
					continue
				}
				seen[token] = struct{}{}
				terms[token] = append(terms[token], docID)
			}
		}
	}

	for token := range terms {
		sort.Ints(terms[token])
	}

	payload := struct {
		Version int              `json:"v"`
		Docs    []searchDoc      `json:"d"`
		Terms   map[string][]int `json:"t"`
	}{
		Version: searchIndexVersion,
		Docs:    docs,
		Terms:   terms,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	normalized := norm.NFKD.String(text)
	tokens := make([]string, 0, 32)
	var builder strings.Builder
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		token := builder.String()
		builder.Reset()
		if len(token) > 1 || (token[0] >= '0' && token[0] <= '9') {
			tokens = append(tokens, token)
		}
	}
	for _, r := range normalized {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}
