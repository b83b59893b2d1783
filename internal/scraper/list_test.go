package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kinotools/kinoscraper/internal/film"
)

const testBaseURL = "https://catalog.test"

func TestParseFilmListBasicCandidate(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<a href="/12345/some-slug/">Inception</a>
	</body></html>`

	films, err := ParseFilmList(markup, testBaseURL)
	require.NoError(t, err)
	require.Equal(t, []film.Summary{{
		ID:    "12345",
		Title: "Inception",
		URL:   "https://catalog.test/12345/",
	}}, films)
}

func TestParseFilmListRejectsNonFilmLinks(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<a href="/genre/6/">Фантастика жанр</a>
		<a href="/name/777/">Крістофер Нолан</a>
		<a href="relative/12/path/">Без слеша</a>
		<a href="/98765">Короткий шлях</a>
		<a href="/54321/film/">Дюна</a>
	</body></html>`

	films, err := ParseFilmList(markup, testBaseURL)
	require.NoError(t, err)
	require.Len(t, films, 1)
	require.Equal(t, "54321", films[0].ID)
}

func TestParseFilmListDeduplicatesPreservingOrder(t *testing.T) {
	t.Parallel()

	// The same film appears in the poster grid and the list view.
	markup := `<html><body>
		<a href="/111/film-a/">Фільм Альфа</a>
		<a href="/222/film-b/">Фільм Бета</a>
		<a href="/111/film-a/poster/">Фільм Альфа</a>
		<a href="/333/film-c/">Фільм Гамма</a>
		<a href="/222/film-b/list/">Фільм Бета</a>
	</body></html>`

	films, err := ParseFilmList(markup, testBaseURL)
	require.NoError(t, err)

	ids := make([]string, 0, len(films))
	seen := make(map[string]int)
	for _, f := range films {
		ids = append(ids, f.ID)
		seen[f.ID]++
	}
	require.Equal(t, []string{"111", "222", "333"}, ids)
	for id, count := range seen {
		require.Equal(t, 1, count, "id %s duplicated", id)
	}
}

func TestParseFilmListStripsBoilerplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		wantTitle string
		dropped   bool
	}{
		{name: "boilerplate prefix kept title", text: "топ-500 Фантастика", wantTitle: "Фантастика"},
		{name: "boilerplate only", text: "топ-250", dropped: true},
		{name: "short residual title", text: "топ-500 Ге", dropped: true},
		{name: "whitespace trimmed", text: "  Дюна: Частина друга  ", wantTitle: "Дюна: Частина друга"},
	}

	for i, tt := range tests {
		tt := tt
		markup := fmt.Sprintf(`<a href="/%d00/slug/">%s</a>`, i+1, tt.text)
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			films, err := ParseFilmList(markup, testBaseURL)
			require.NoError(t, err)
			if tt.dropped {
				require.Empty(t, films)
				return
			}
			require.Len(t, films, 1)
			require.Equal(t, tt.wantTitle, films[0].Title)
		})
	}
}

func TestParseFilmListDeterministic(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<a href="/%d/slug/">Фільм номер %d</a>`, 1000+i%7, i)
	}
	markup := b.String()

	first, err := ParseFilmList(markup, testBaseURL)
	require.NoError(t, err)
	second, err := ParseFilmList(markup, testBaseURL)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, first, 7)
}

func TestFirstFilmLink(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<a href="/genre/2/">Драма</a>
		<a href="/4242/interstellar/">Інтерстеллар</a>
		<a href="/5555/other/">Інший фільм</a>
	</body></html>`

	url, ok := firstFilmLink(markup, testBaseURL)
	require.True(t, ok)
	require.Equal(t, "https://catalog.test/4242/interstellar/", url)
}

func TestFirstFilmLinkSkipsShortText(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<a href="/4242/icon/">ок</a>
		<a href="/5555/film/">Справжня назва</a>
	</body></html>`

	url, ok := firstFilmLink(markup, testBaseURL)
	require.True(t, ok)
	require.Equal(t, "https://catalog.test/5555/film/", url)
}

func TestFirstFilmLinkAcceptsBareIDHref(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<a href="/12345">Інтерстеллар</a>
	</body></html>`

	url, ok := firstFilmLink(markup, testBaseURL)
	require.True(t, ok)
	require.Equal(t, "https://catalog.test/12345", url)
}

func TestFirstFilmLinkNotFound(t *testing.T) {
	t.Parallel()

	markup := `<html><body><a href="/genre/2/">Драма</a></body></html>`

	_, ok := firstFilmLink(markup, testBaseURL)
	require.False(t, ok)
}
