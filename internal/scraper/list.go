package scraper

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/kinotools/kinoscraper/internal/film"
)

// Catalog boilerplate substrings that the site injects into link text on
// chart pages. They are stripped before the title length check.
var titleBoilerplate = []string{"топ-500", "топ-250"}

// ParseFilmList extracts film summaries from rendered search-results markup.
// It is a pure function of the markup: candidates are anchors whose path
// starts with "/" and whose first segment is entirely digits (the catalog's
// film-id convention), everything else (category links, actor links) is
// rejected. The same film often appears in several markup blocks, so later
// duplicates of an id are dropped while first-seen order is preserved.
func ParseFilmList(markup, baseURL string) ([]film.Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	var films []film.Summary
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		id, ok := filmIDFromHref(href)
		if !ok {
			return
		}
		title := cleanTitle(sel.Text())
		if utf8.RuneCountInString(title) <= 2 {
			// Icon-only or decorative links, not real titles.
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		films = append(films, film.Summary{
			ID:    id,
			Title: title,
			URL:   fmt.Sprintf("%s/%s/", baseURL, id),
		})
	})

	return films, nil
}

// firstFilmLink returns the absolute URL of the first film-detail anchor in
// the markup, in document order. The second return is false when no anchor
// matches the film-id convention.
func firstFilmLink(markup, baseURL string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !isDetailHref(href) {
			return true
		}
		if utf8.RuneCountInString(strings.TrimSpace(sel.Text())) <= 2 {
			return true
		}
		found = baseURL + href
		return false
	})
	return found, found != ""
}

// isDetailHref accepts any site-relative path whose first segment is a
// numeric film id. Unlike list candidates it does not require a second
// segment, so bare /<id> links qualify.
func isDetailHref(href string) bool {
	if !strings.HasPrefix(href, "/") {
		return false
	}
	segments := strings.Split(strings.Trim(href, "/"), "/")
	return len(segments) > 0 && isAllDigits(segments[0])
}

// filmIDFromHref extracts the numeric catalog identifier from a site-relative
// href of the shape /<id>/<slug>/.
func filmIDFromHref(href string) (string, bool) {
	if !strings.HasPrefix(href, "/") || strings.Count(href, "/") < 2 {
		return "", false
	}
	segments := strings.Split(strings.Trim(href, "/"), "/")
	if len(segments) == 0 || !isAllDigits(segments[0]) {
		return "", false
	}
	return segments[0], true
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	for _, boilerplate := range titleBoilerplate {
		title = strings.ReplaceAll(title, boilerplate, "")
	}
	return strings.TrimSpace(title)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
