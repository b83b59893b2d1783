// Package catalog maps the site's Ukrainian genre names onto its numeric
// category identifiers.
package catalog

import "strings"

// genreIDs mirrors the site's category numbering. Lookups are
// case-insensitive; unknown names simply fall through to free-text search.
var genreIDs = map[string]int{
	"комедія":        1,
	"драма":          2,
	"трилер":         3,
	"бойовик":        4,
	"жахи":           5,
	"фантастика":     6,
	"мелодрама":      7,
	"детектив":       8,
	"пригоди":        9,
	"фентезі":        10,
	"мультфільм":     11,
	"документальний": 12,
	"біографія":      13,
	"історичний":     14,
	"військовий":     15,
	"вестерн":        16,
	"кримінал":       17,
	"мюзикл":         18,
	"сімейний":       19,
	"спорт":          20,
}

// Resolve returns the catalog id for a genre name. The boolean is false for
// names outside the catalog.
func Resolve(name string) (int, bool) {
	id, ok := genreIDs[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// Name returns the genre name for a catalog id, in lowercase.
func Name(id int) (string, bool) {
	for name, candidate := range genreIDs {
		if candidate == id {
			return name, true
		}
	}
	return "", false
}

// All returns a copy of the genre table.
func All() map[string]int {
	out := make(map[string]int, len(genreIDs))
	for name, id := range genreIDs {
		out[name] = id
	}
	return out
}
