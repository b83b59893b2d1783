package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kinotools/kinoscraper/internal/film"
	"github.com/kinotools/kinoscraper/internal/metrics"
	"github.com/kinotools/kinoscraper/internal/storage"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

type fakeScraper struct {
	films     []film.Summary
	method    string
	listErr   error
	lastLimit int

	detail    film.Detail
	detailErr error

	openURL string
	openErr error
}

func (f *fakeScraper) ListByGenre(_ context.Context, _ string, limit int) ([]film.Summary, string, error) {
	f.lastLimit = limit
	return f.films, f.method, f.listErr
}

func (f *fakeScraper) DetailsByName(_ context.Context, _ string) (film.Detail, error) {
	return f.detail, f.detailErr
}

func (f *fakeScraper) OpenInteractive(_ context.Context, _ string) (string, string, error) {
	if f.openErr != nil {
		return "", "", f.openErr
	}
	return f.openURL, "browser window opened", nil
}

type fakeStore struct {
	records  []storage.Record
	results  []storage.StoredResult
	storeErr error
	listErr  error
	nextID   int64
}

func (f *fakeStore) StoreResult(_ context.Context, rec storage.Record) (int64, error) {
	if f.storeErr != nil {
		return 0, f.storeErr
	}
	f.records = append(f.records, rec)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) ListResults(_ context.Context, _, _ int) ([]storage.StoredResult, error) {
	return f.results, f.listErr
}

func (f *fakeStore) Close() {}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, recordID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, recordID)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func doRequest(t *testing.T, server *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeScraper{}, &fakeStore{}, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	rec = doRequest(t, server, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestScrapeGenre(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{
		films: []film.Summary{
			{ID: "4242", Title: "Інтерстеллар", URL: "https://catalog.test/4242/"},
			{ID: "7777", Title: "Дюна", URL: "https://catalog.test/7777/"},
		},
		method: "headless",
	}
	store := &fakeStore{}
	server := NewServer(scraper, store, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/scrape/genre?genre=%D1%84%D0%B0%D0%BD%D1%82%D0%B0%D1%81%D1%82%D0%B8%D0%BA%D0%B0&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp genreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "фантастика", resp.Genre)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Films, 2)
	assert.Equal(t, "Інтерстеллар", resp.Films[0].Title)
	assert.Equal(t, 5, scraper.lastLimit)

	require.Len(t, store.records, 2)
	assert.Equal(t, "фантастика", store.records[0].Genre)
	assert.Equal(t, "headless", store.records[0].Method)
}

func TestScrapeGenreValidation(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeScraper{}, &fakeStore{}, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/scrape/genre")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, "/api/v1/scrape/genre?genre=драма&limit=500")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, "/api/v1/scrape/genre?genre=драма&limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScrapeGenreStoreFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{
		films:  []film.Summary{{ID: "1000", Title: "Дюна", URL: "https://catalog.test/1000/"}},
		method: "http",
	}
	store := &fakeStore{storeErr: errors.New("db down")}
	server := NewServer(scraper, store, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/scrape/genre?genre=драма")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScrapeFilmDetails(t *testing.T) {
	t.Parallel()

	year := 2014
	rating := 8.6
	scraper := &fakeScraper{
		detail: film.Detail{
			Title:  "Інтерстеллар",
			URL:    "https://catalog.test/4242/",
			Year:   &year,
			Rating: &rating,
		},
	}
	store := &fakeStore{}
	publisher := &fakePublisher{}
	server := NewServer(scraper, store, publisher, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/scrape/film/details?film_name=Interstellar")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp detailsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Інтерстеллар", resp.Film.Title)
	assert.Equal(t, "headless", resp.Method)
	assert.WithinDuration(t, time.Now().UTC(), resp.ScrapedAt, time.Minute)

	require.Len(t, store.records, 1)
	assert.Equal(t, &year, store.records[0].Year)
	assert.Equal(t, []string{"1"}, publisher.published)
}

func TestScrapeFilmDetailsNotFound(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{detailErr: fmt.Errorf("no result for %q: %w", "невідомий", film.ErrNotFound)}
	server := NewServer(scraper, &fakeStore{}, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/scrape/film/details?film_name=невідомий")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScrapeFilmDetailsTimeout(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{detailErr: fmt.Errorf("navigate search: %w", context.DeadlineExceeded)}
	server := NewServer(scraper, &fakeStore{}, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/scrape/film/details?film_name=Дюна")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScrapeFilmDetailsMissingName(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeScraper{}, &fakeStore{}, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/scrape/film/details")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenBrowserDisabledWhenHeadlessOnly(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeScraper{}, &fakeStore{}, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/scrape/film/open-browser?film_name=Дюна")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestOpenBrowser(t *testing.T) {
	t.Parallel()

	scraper := &fakeScraper{openURL: "https://catalog.test/4242/"}
	server := NewServer(scraper, &fakeStore{}, &fakePublisher{}, false, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/scrape/film/open-browser?film_name=Дюна")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp openBrowserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "https://catalog.test/4242/", resp.URL)
	assert.Equal(t, "Дюна", resp.Title)
	assert.NotEmpty(t, resp.Message)
}

func TestListResults(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		results: []storage.StoredResult{
			{ID: 2, Title: "Дюна", Method: "headless", ScrapedAt: time.Now().UTC()},
		},
	}
	server := NewServer(&fakeScraper{}, store, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/results?skip=0&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp resultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Дюна", resp.Results[0].Title)
}

func TestListResultsEmptyIsArray(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeScraper{}, &fakeStore{}, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/results")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestListResultsStoreError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{listErr: errors.New("db down")}
	server := NewServer(&fakeScraper{}, store, &fakePublisher{}, true, zap.NewNop())

	rec := doRequest(t, server, "/api/v1/results")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
