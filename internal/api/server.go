// Package api exposes the HTTP interface for the scraper service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kinotools/kinoscraper/internal/film"
	"github.com/kinotools/kinoscraper/internal/metrics"
	"github.com/kinotools/kinoscraper/internal/publish"
	"github.com/kinotools/kinoscraper/internal/storage"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	requestTimeout = 3 * time.Minute
)

// scrapeService is the pipeline surface the HTTP layer depends on.
type scrapeService interface {
	ListByGenre(ctx context.Context, genre string, limit int) ([]film.Summary, string, error)
	DetailsByName(ctx context.Context, name string) (film.Detail, error)
	OpenInteractive(ctx context.Context, name string) (url, message string, err error)
}

// Server wires HTTP handlers to the scraping service and the results store.
type Server struct {
	router       chi.Router
	scraper      scrapeService
	store        storage.Store
	publisher    publish.Publisher
	logger       *zap.Logger
	headlessOnly bool
}

// NewServer constructs a Server with middleware and routes. headlessOnly
// disables the interactive open-browser endpoint, which needs a display.
func NewServer(scraper scrapeService, store storage.Store, publisher publish.Publisher, headlessOnly bool, logger *zap.Logger) *Server {
	s := &Server{
		scraper:      scraper,
		store:        store,
		publisher:    publisher,
		logger:       logger,
		headlessOnly: headlessOnly,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/scrape", func(r chi.Router) {
			r.Get("/genre", s.scrapeGenre)
			r.Route("/film", func(r chi.Router) {
				r.Get("/details", s.scrapeFilmDetails)
				r.Get("/open-browser", s.openBrowser)
			})
		})
		r.Get("/results", s.listResults)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// Browser sessions are created per request; there is no warm pool to
	// probe, so readiness matches liveness.
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type genreResponse struct {
	Genre string         `json:"genre"`
	Films []film.Summary `json:"films"`
	Count int            `json:"count"`
}

func (s *Server) scrapeGenre(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("genre")
	if genre == "" {
		s.writeError(w, http.StatusBadRequest, "genre query parameter is required")
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit, 1, maxListLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	films, method, err := s.scraper.ListByGenre(r.Context(), genre, limit)
	if err != nil {
		s.writeScrapeError(w, err)
		return
	}

	for _, f := range films {
		s.storeRecord(r.Context(), storage.Record{
			Title:  f.Title,
			URL:    f.URL,
			Genre:  genre,
			Method: method,
		})
	}

	s.writeJSON(w, http.StatusOK, genreResponse{
		Genre: genre,
		Films: films,
		Count: len(films),
	})
}

type detailsResponse struct {
	Film      film.Detail `json:"film"`
	ScrapedAt time.Time   `json:"scraped_at"`
	Method    string      `json:"scraping_method"`
}

func (s *Server) scrapeFilmDetails(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("film_name")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "film_name query parameter is required")
		return
	}

	detail, err := s.scraper.DetailsByName(r.Context(), name)
	if err != nil {
		s.writeScrapeError(w, err)
		return
	}

	recordID := s.storeRecord(r.Context(), storage.Record{
		Title:       detail.Title,
		URL:         detail.URL,
		Year:        detail.Year,
		Rating:      detail.Rating,
		Director:    detail.Director,
		Actors:      detail.Actors,
		Duration:    detail.Duration,
		Country:     detail.Country,
		Description: detail.Description,
		PosterURL:   detail.PosterURL,
		Genres:      detail.Genres,
		Method:      "headless",
	})
	if recordID > 0 {
		if err := s.publisher.Publish(r.Context(), strconv.FormatInt(recordID, 10)); err != nil {
			s.logger.Warn("publish scrape event failed", zap.Int64("record_id", recordID), zap.Error(err))
		}
	}

	s.writeJSON(w, http.StatusOK, detailsResponse{
		Film:      detail,
		ScrapedAt: time.Now().UTC(),
		Method:    "headless",
	})
}

type openBrowserResponse struct {
	Status  string `json:"status"`
	URL     string `json:"url"`
	Title   string `json:"film_title"`
	Message string `json:"message"`
}

func (s *Server) openBrowser(w http.ResponseWriter, r *http.Request) {
	if s.headlessOnly {
		s.writeError(w, http.StatusNotImplemented, "interactive browser sessions are disabled in this deployment")
		return
	}
	name := r.URL.Query().Get("film_name")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "film_name query parameter is required")
		return
	}

	openedURL, message, err := s.scraper.OpenInteractive(r.Context(), name)
	if err != nil {
		s.writeScrapeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, openBrowserResponse{
		Status:  "success",
		URL:     openedURL,
		Title:   name,
		Message: message,
	})
}

type resultsResponse struct {
	Count   int                    `json:"count"`
	Results []storage.StoredResult `json:"results"`
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0, 0, 1<<30)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.store.ListResults(r.Context(), skip, limit)
	if err != nil {
		s.logger.Error("list scrape results failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to fetch results")
		return
	}
	if results == nil {
		results = []storage.StoredResult{}
	}

	s.writeJSON(w, http.StatusOK, resultsResponse{Count: len(results), Results: results})
}

// storeRecord persists one record, swallowing failures: a scrape that
// reached the client must not fail because history could not be written.
func (s *Server) storeRecord(ctx context.Context, rec storage.Record) int64 {
	if rec.Title == "" {
		return 0
	}
	id, err := s.store.StoreResult(ctx, rec)
	if err != nil {
		s.logger.Warn("store scrape result failed",
			zap.String("title", rec.Title),
			zap.Error(err),
		)
		return 0
	}
	return id
}

// writeScrapeError maps pipeline errors onto HTTP statuses: a missing film
// is the caller's problem, a navigation timeout means the upstream site is
// unavailable, everything else is ours.
func (s *Server) writeScrapeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, film.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusServiceUnavailable, "upstream site timed out")
	default:
		s.logger.Error("scrape failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func queryInt(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	return value, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
