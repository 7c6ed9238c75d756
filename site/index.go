package site

import "sort"

// MenuEntry is derived from a page's menu placement. It references its owning
// page; the page does not own the entry.
type MenuEntry struct {
	Menu   string
	Weight int
	Icon   string
	Page   *Page
}

// Index aggregates metadata from all published (non-draft) pages. Draft pages
// never appear in any mapping.
type Index struct {
	Menus      map[string][]MenuEntry
	Categories map[string][]*Page
}

// BuildIndex constructs menu and category mappings from the given pages.
// Menu entries are ordered by ascending weight, ties broken by slug, so
// repeated builds produce identical navigation. Drafts are skipped.
func BuildIndex(pages []*Page) *Index {
	idx := &Index{
		Menus:      make(map[string][]MenuEntry),
		Categories: make(map[string][]*Page),
	}

	for _, page := range pages {
		if page.Draft {
			continue
		}
		for name, ref := range page.Menu {
			idx.Menus[name] = append(idx.Menus[name], MenuEntry{
				Menu:   name,
				Weight: ref.Weight,
				Icon:   ref.Icon,
				Page:   page,
			})
		}
		for _, category := range page.Categories {
			idx.Categories[category] = append(idx.Categories[category], page)
		}
	}

	for name := range idx.Menus {
		entries := idx.Menus[name]
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Weight != entries[j].Weight {
				return entries[i].Weight < entries[j].Weight
			}
			return entries[i].Page.Slug < entries[j].Page.Slug
		})
	}

	// Newest first on category listings; slug breaks date ties.
	for category := range idx.Categories {
		members := idx.Categories[category]
		sort.Slice(members, func(i, j int) bool {
			if !members[i].Date.Equal(members[j].Date) {
				return members[i].Date.After(members[j].Date)
			}
			return members[i].Slug < members[j].Slug
		})
	}

	return idx
}

// MenuNames returns the menu identifiers sorted for deterministic traversal.
func (idx *Index) MenuNames() []string {
	names := make([]string, 0, len(idx.Menus))
	for name := range idx.Menus {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CategoryNames returns the category labels sorted for deterministic
// traversal.
func (idx *Index) CategoryNames() []string {
	names := make([]string, 0, len(idx.Categories))
	for name := range idx.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
