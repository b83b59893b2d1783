package scraper

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/kinotools/kinoscraper/internal/film"
)

// Detail-page selector chains. The markup is versioned and unstable, so
// every field carries an ordered list of candidates: the first selector
// yielding non-empty trimmed text wins. Adding a new markup variant is a
// data change here, not a code change.
var detailTextRules = map[string][]string{
	"title":  {"h1", ".film_title"},
	"year":   {"time", `[itemprop="datePublished"]`},
	"rating": {`[itemprop="ratingValue"]`, ".rating_value"},
	// The site has no dedicated director-only region; the itemprop-scoped
	// selector is tried first, the generic person link is the fallback.
	"director":    {`[itemprop="director"] [itemprop="name"]`, `a[href*="/name/"]`},
	"duration":    {`[itemprop="duration"]`, ".duration"},
	"description": {`[itemprop="description"]`, ".film_description", ".description"},
}

const (
	genreLinkSelector   = `a[href*="/genre/"]`
	personLinkSelector  = `a[href*="/name/"]`
	countryLinkSelector = `a[href*="/country/"]`
	posterSelector      = `[itemprop="image"]`

	maxGenres          = 5
	maxActorsCollected = 10
	maxActorsJoined    = 5
	maxCountries       = 3
)

var (
	yearPattern    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	decimalPattern = regexp.MustCompile(`\d+\.?\d*`)
)

// DetailExtractor turns a live, already-navigated film-detail page into a
// typed record. Some of the page's content exists only in the DOM after
// script execution, so probes run against the browser tab rather than a
// static markup snapshot.
type DetailExtractor struct {
	baseURL string
}

// NewDetailExtractor returns an extractor that resolves relative poster
// URLs against baseURL.
func NewDetailExtractor(baseURL string) *DetailExtractor {
	return &DetailExtractor{baseURL: baseURL}
}

// Extract reads every field of the detail record from the tab. It never
// fails: a probe error or a missed selector resolves the field to absence,
// not to an extraction error.
func (e *DetailExtractor) Extract(tab context.Context) film.Detail {
	var d film.Detail

	if title, ok := probeText(tab, detailTextRules["title"]); ok {
		d.Title = title
	}
	if raw, ok := probeText(tab, detailTextRules["year"]); ok {
		d.Year = parseYear(raw)
	}
	if raw, ok := probeText(tab, detailTextRules["rating"]); ok {
		d.Rating = parseRating(raw)
	}
	if director, ok := probeText(tab, detailTextRules["director"]); ok {
		d.Director = &director
	}
	if duration, ok := probeText(tab, detailTextRules["duration"]); ok {
		d.Duration = &duration
	}
	if description, ok := probeText(tab, detailTextRules["description"]); ok {
		d.Description = &description
	}

	d.Genres = joinTexts(collectLinkTexts(tab, genreLinkSelector, maxGenres), maxGenres)
	d.Actors = joinTexts(collectLinkTexts(tab, personLinkSelector, maxActorsCollected), maxActorsJoined)
	d.Country = joinTexts(collectLinkTexts(tab, countryLinkSelector, maxCountries), maxCountries)
	d.PosterURL = e.probePoster(tab)

	return d
}

// probeText evaluates a fallback chain against the live page. Errors while
// probing a candidate are swallowed; a missing optional field is not a
// pipeline failure.
func probeText(tab context.Context, selectors []string) (string, bool) {
	for _, selector := range selectors {
		var text string
		err := chromedp.Run(tab,
			chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.AtLeast(0)),
		)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// collectLinkTexts visits every element matching selector in document order
// and keeps non-empty trimmed texts, up to max.
func collectLinkTexts(tab context.Context, selector string, max int) []string {
	var nodes []*cdp.Node
	err := chromedp.Run(tab,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil
	}

	var texts []string
	for _, node := range nodes {
		if len(texts) >= max {
			break
		}
		var text string
		if err := chromedp.Run(tab, chromedp.Text([]cdp.NodeID{node.NodeID}, &text, chromedp.ByNodeID)); err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

func (e *DetailExtractor) probePoster(tab context.Context) *string {
	var src string
	var ok bool
	err := chromedp.Run(tab,
		chromedp.AttributeValue(posterSelector, "src", &src, &ok, chromedp.ByQuery, chromedp.AtLeast(0)),
	)
	if err != nil || !ok || src == "" {
		return nil
	}
	normalized := normalizePosterURL(src, e.baseURL)
	return &normalized
}

// parseYear pulls the first plausible 4-digit year out of raw text such as
// "Прем'єра: 2014 рік".
func parseYear(raw string) *int {
	match := yearPattern.FindString(raw)
	if match == "" {
		return nil
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &year
}

// parseRating normalizes a decimal comma and extracts the first decimal
// number, so "7,8 з 10" parses as 7.8.
func parseRating(raw string) *float64 {
	match := decimalPattern.FindString(strings.ReplaceAll(raw, ",", "."))
	if match == "" {
		return nil
	}
	rating, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &rating
}

// joinTexts caps the list at max entries and joins with ", "; nil when the
// list is empty so the field stays absent.
func joinTexts(texts []string, max int) *string {
	if len(texts) == 0 {
		return nil
	}
	if len(texts) > max {
		texts = texts[:max]
	}
	joined := strings.Join(texts, ", ")
	return &joined
}

// normalizePosterURL resolves protocol-relative and site-relative image
// sources; anything else is kept verbatim.
func normalizePosterURL(src, baseURL string) string {
	switch {
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "/"):
		return baseURL + src
	default:
		return src
	}
}
