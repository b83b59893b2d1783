// Package film holds the domain records produced by the scraping pipeline.
package film

import "errors"

// ErrNotFound reports that a search produced no film link to follow.
var ErrNotFound = errors.New("film not found")

// Summary is one entry of a search-results listing.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Detail is the full record extracted from a film detail page. Optional
// fields are nil when the page did not expose them; absence is never an
// extraction error.
type Detail struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Year        *int     `json:"year"`
	Rating      *float64 `json:"rating"`
	Genres      *string  `json:"genres"`
	Director    *string  `json:"director"`
	Actors      *string  `json:"actors"`
	Duration    *string  `json:"duration"`
	Country     *string  `json:"country"`
	Description *string  `json:"description"`
	PosterURL   *string  `json:"poster_url"`
}
