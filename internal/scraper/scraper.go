// Package scraper implements the scraping pipeline for the film catalog:
// navigation, list extraction, detail extraction and the orchestrating
// service the HTTP layer calls into.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kinotools/kinoscraper/internal/catalog"
	"github.com/kinotools/kinoscraper/internal/film"
	"github.com/kinotools/kinoscraper/internal/metrics"
)

// Method tags recorded alongside every scraped film.
const (
	MethodHeadless = "headless"
	MethodHTTP     = "http"
)

// Operation labels for metrics and snapshot archiving.
const (
	opGenre       = "genre"
	opDetails     = "details"
	opInteractive = "open_browser"

	statusSuccess = "success"
	statusError   = "error"
)

const interactiveMessage = "browser window opened for manual inspection; it closes automatically when the hold expires"

// pageNavigator is the browser flow the service depends on.
type pageNavigator interface {
	SearchResultsHTML(ctx context.Context, query string) (string, error)
	WithDetailPage(ctx context.Context, name string, fn func(tab context.Context, filmURL string) error) error
	OpenVisible(ctx context.Context, name string) (string, error)
}

// staticFetcher fetches server-rendered markup over plain HTTP.
type staticFetcher interface {
	HTML(ctx context.Context, rawURL string) (string, error)
}

// detailExtractor reads a typed record off a live detail-page tab.
type detailExtractor interface {
	Extract(tab context.Context) film.Detail
}

// snapshotArchiver stores raw markup snapshots best-effort.
type snapshotArchiver interface {
	Archive(ctx context.Context, operation string, markup []byte)
}

// ServiceConfig controls orchestration behavior.
type ServiceConfig struct {
	BaseURL string

	// StaticList routes genre listing through the plain-HTTP fetcher
	// instead of a browser session. Useful when the search page degrades
	// gracefully without JavaScript.
	StaticList bool
}

// Service orchestrates the scraping operations. It is stateless across
// calls; every operation acquires and releases its own browser session
// through the navigator.
type Service struct {
	cfg       ServiceConfig
	nav       pageNavigator
	static    staticFetcher
	extractor detailExtractor
	archiver  snapshotArchiver
	logger    *zap.Logger
}

// NewService wires the pipeline stages into a Service. static and archiver
// may be nil; the service then always uses the browser and skips archiving.
func NewService(cfg ServiceConfig, nav pageNavigator, static staticFetcher, extractor detailExtractor, archiver snapshotArchiver, logger *zap.Logger) *Service {
	return &Service{
		cfg:       cfg,
		nav:       nav,
		static:    static,
		extractor: extractor,
		archiver:  archiver,
		logger:    logger,
	}
}

// ListByGenre scrapes the search results for genre and returns up to limit
// film summaries plus the method tag of the path taken. The genre text is
// searched verbatim; the catalog id, when the genre is known, is logged for
// traceability only.
func (s *Service) ListByGenre(ctx context.Context, genre string, limit int) ([]film.Summary, string, error) {
	start := time.Now()

	if id, ok := catalog.Resolve(genre); ok {
		s.logger.Debug("genre resolved in catalog",
			zap.String("genre", genre),
			zap.Int("genre_id", id),
		)
	} else {
		s.logger.Debug("genre not in catalog, searching as free text",
			zap.String("genre", genre),
		)
	}

	method := MethodHeadless
	var (
		markup string
		err    error
	)
	if s.cfg.StaticList && s.static != nil {
		method = MethodHTTP
		markup, err = s.static.HTML(ctx, searchPageURL(s.cfg.BaseURL, genre))
	} else {
		markup, err = s.nav.SearchResultsHTML(ctx, genre)
	}
	if err != nil {
		metrics.ObserveScrape(opGenre, statusError, time.Since(start))
		return nil, method, fmt.Errorf("fetch search results for genre %q: %w", genre, err)
	}

	if s.archiver != nil {
		s.archiver.Archive(ctx, opGenre, []byte(markup))
	}

	films, err := ParseFilmList(markup, s.cfg.BaseURL)
	if err != nil {
		metrics.ObserveScrape(opGenre, statusError, time.Since(start))
		return nil, method, err
	}
	if limit > 0 && len(films) > limit {
		films = films[:limit]
	}

	metrics.ObserveScrape(opGenre, statusSuccess, time.Since(start))
	metrics.AddFilmsExtracted(method, len(films))
	s.logger.Info("genre scrape finished",
		zap.String("genre", genre),
		zap.String("method", method),
		zap.Int("films", len(films)),
		zap.Duration("took", time.Since(start)),
	)
	return films, method, nil
}

// DetailsByName finds the first search hit for name, extracts its detail
// record and returns it. The record's URL is the page the extractor ran
// against; a missing on-page title falls back to the requested name.
func (s *Service) DetailsByName(ctx context.Context, name string) (film.Detail, error) {
	start := time.Now()

	var detail film.Detail
	err := s.nav.WithDetailPage(ctx, name, func(tab context.Context, filmURL string) error {
		detail = s.extractor.Extract(tab)
		detail.URL = filmURL
		return nil
	})
	if err != nil {
		metrics.ObserveScrape(opDetails, statusError, time.Since(start))
		return film.Detail{}, err
	}

	if detail.Title == "" {
		detail.Title = name
	}

	metrics.ObserveScrape(opDetails, statusSuccess, time.Since(start))
	metrics.AddFilmsExtracted(MethodHeadless, 1)
	s.logger.Info("detail scrape finished",
		zap.String("film", name),
		zap.String("url", detail.URL),
		zap.Duration("took", time.Since(start)),
	)
	return detail, nil
}

// OpenInteractive opens the first search hit for name in a visible browser
// window and returns the opened URL together with a human-readable note.
func (s *Service) OpenInteractive(ctx context.Context, name string) (string, string, error) {
	start := time.Now()

	filmURL, err := s.nav.OpenVisible(ctx, name)
	if err != nil {
		metrics.ObserveScrape(opInteractive, statusError, time.Since(start))
		return "", "", err
	}

	metrics.ObserveScrape(opInteractive, statusSuccess, time.Since(start))
	s.logger.Info("interactive session finished",
		zap.String("film", name),
		zap.String("url", filmURL),
	)
	return filmURL, interactiveMessage, nil
}

// searchPageURL builds the query-encoded search path shared by the browser
// flow and the static fast path.
func searchPageURL(baseURL, query string) string {
	return fmt.Sprintf("%s/search/?q=%s", baseURL, url.QueryEscape(query))
}
