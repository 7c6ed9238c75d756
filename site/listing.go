package site

import (
	"bytes"
	"fmt"

	"github.com/pagebind/pagebind/renderer"
	"github.com/pagebind/pagebind/templatex"
)

const (
	listLayout     = "list"
	homeLayout     = "home"
	notFoundLayout = "404"

	directoryOutput = "index.html"
)

// writeListings emits the documents driven by the Site Index mappings: one
// page per category plus the site directory. A page with slug "index" takes
// precedence over the generated directory.
func (s *Service) writeListings(baseDir string, idx *Index, published []*Page, nav map[string][]templatex.NavItem, routesWritten map[string]struct{}, report *Report) error {
	// Distinct labels can slugify to the same name ("Go Tools" vs
	// "go-tools"); later ones get a numeric suffix instead of silently
	// overwriting the earlier listing.
	written := make(map[string]string, len(idx.Categories))
	for _, category := range idx.CategoryNames() {
		members := idx.Categories[category]
		slug := renderer.Slugify(category)
		outputPath := "categories/" + slug + ".html"
		if prior, taken := written[outputPath]; taken {
			s.logger.Warn("category slug collision", "category", category, "collides_with", prior, "slug", slug)
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("categories/%s-%d.html", slug, n)
				if _, taken := written[candidate]; !taken {
					outputPath = candidate
					break
				}
			}
		}
		written[outputPath] = category
		document, err := s.assembleListing(s.listingLayout(), category, members, nav)
		if err != nil {
			return fmt.Errorf("category %q: %w", category, err)
		}
		if err := writeDocument(baseDir, outputPath, document); err != nil {
			return err
		}
		report.Listings++
	}

	if _, taken := routesWritten[directoryOutput]; taken {
		return nil
	}
	layout := s.listingLayout()
	if s.templates.Has(homeLayout) {
		layout = homeLayout
	}
	document, err := s.assembleListing(layout, s.cfg.SiteName, published, nav)
	if err != nil {
		return fmt.Errorf("site directory: %w", err)
	}
	if err := writeDocument(baseDir, directoryOutput, document); err != nil {
		return err
	}
	report.Listings++
	return nil
}

func (s *Service) listingLayout() string {
	if s.templates.Has(listLayout) {
		return listLayout
	}
	return s.cfg.DefaultLayout
}

func (s *Service) assembleListing(layout, title string, members []*Page, nav map[string][]templatex.NavItem) ([]byte, error) {
	listing := make([]templatex.ListingItem, 0, len(members))
	for _, page := range members {
		var dateDisplay string
		if !page.Date.IsZero() {
			dateDisplay = page.Date.UTC().Format("Jan 2, 2006")
		}
		listing = append(listing, templatex.ListingItem{
			Title:       page.Title,
			URL:         s.pageURL(page.Slug),
			Summary:     page.Summary,
			DateDisplay: dateDisplay,
			Categories:  page.Categories,
		})
	}

	data := &templatex.PageData{
		Title:          title,
		PageTitle:      s.pageTitle(title),
		SiteName:       s.cfg.SiteName,
		Menus:          navFor(nav, ""),
		BaseURL:        s.cfg.BasePath(),
		SearchIndexURL: s.cfg.BasePath() + "search-index.json",
		Listing:        listing,
	}
	data.Meta = templatex.Meta{
		Description:   metaDescription("", title),
		OpenGraphType: "website",
		OpenGraphSite: s.cfg.SiteName,
	}

	var buf bytes.Buffer
	if err := s.templates.Render(&buf, layout, data); err != nil {
		return nil, err
	}
	return s.minifier.HTML(buf.Bytes())
}

// writeNotFoundPage pre-renders a themed 404 document when the layout dir
// defines one, so static hosting setups can serve it directly.
func (s *Service) writeNotFoundPage(baseDir string, nav map[string][]templatex.NavItem) error {
	if !s.templates.Has(notFoundLayout) {
		return nil
	}

	data := &templatex.PageData{
		Title:     "404 - Not found",
		PageTitle: s.pageTitle("404 - Not found"),
		SiteName:  s.cfg.SiteName,
		Menus:     navFor(nav, ""),
		BaseURL:   s.cfg.BasePath(),
	}
	data.Meta = templatex.Meta{
		Description:   "The page you are looking for could not be found.",
		OpenGraphType: "website",
		OpenGraphSite: s.cfg.SiteName,
	}

	var buf bytes.Buffer
	if err := s.templates.Render(&buf, notFoundLayout, data); err != nil {
		return err
	}
	document, err := s.minifier.HTML(buf.Bytes())
	if err != nil {
		return fmt.Errorf("minify 404 page: %w", err)
	}
	return writeDocument(baseDir, "404.html", document)
}
