package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kinotools/kinoscraper/internal/film"
	"github.com/kinotools/kinoscraper/internal/metrics"
)

// Default settle delays. The site renders its catalog client-side, so a
// fixed wait after each navigation is the accepted tradeoff for reliability
// over speed.
const (
	defaultHomeSettle      = 2 * time.Second
	defaultSearchSettle    = 3 * time.Second
	defaultDetailSettle    = 5 * time.Second
	defaultInteractiveHold = 30 * time.Second
	defaultNavTimeout      = 60 * time.Second
)

// NavigatorConfig controls browser sessions and the navigation flow.
// Settle fields default to the site values when zero, which lets tests
// inject near-zero waits.
type NavigatorConfig struct {
	BaseURL         string
	UserAgent       string
	Headless        bool
	NavTimeout      time.Duration
	MaxSessions     int
	LaunchPerSecond float64

	HomeSettle      time.Duration
	SearchSettle    time.Duration
	DetailSettle    time.Duration
	InteractiveHold time.Duration
}

// Navigator drives isolated browser sessions through the fixed
// home → search → result flow. Each call owns exactly one session; there is
// no reuse across calls, so a stateless service cannot bleed state between
// requests.
type Navigator struct {
	cfg    NavigatorConfig
	logger *zap.Logger
	sem    chan struct{}
	launch *rate.Limiter
}

// NewNavigator builds a Navigator, applying defaults for unset knobs.
func NewNavigator(cfg NavigatorConfig, logger *zap.Logger) *Navigator {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = defaultNavTimeout
	}
	if cfg.HomeSettle <= 0 {
		cfg.HomeSettle = defaultHomeSettle
	}
	if cfg.SearchSettle <= 0 {
		cfg.SearchSettle = defaultSearchSettle
	}
	if cfg.DetailSettle <= 0 {
		cfg.DetailSettle = defaultDetailSettle
	}
	if cfg.InteractiveHold <= 0 {
		cfg.InteractiveHold = defaultInteractiveHold
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1
	}

	var launch *rate.Limiter
	if cfg.LaunchPerSecond > 0 {
		launch = rate.NewLimiter(rate.Limit(cfg.LaunchPerSecond), 1)
	}

	return &Navigator{
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxSessions),
		launch: launch,
	}
}

// SearchResultsHTML navigates the search flow for query and returns the
// rendered search-results markup.
func (n *Navigator) SearchResultsHTML(ctx context.Context, query string) (string, error) {
	var html string
	err := n.withSession(ctx, n.cfg.Headless, func(tab context.Context) error {
		if err := n.navigateSearch(tab, query); err != nil {
			return err
		}
		var err error
		html, err = n.pageHTML(tab)
		return err
	})
	if err != nil {
		return "", err
	}
	return html, nil
}

// WithDetailPage navigates the search flow for name, follows the first film
// link and invokes fn with the live detail-page tab and the film URL. The
// session is torn down when fn returns, on timeout, and on every error
// path. It fails with film.ErrNotFound when the search page exposes no film
// link.
func (n *Navigator) WithDetailPage(ctx context.Context, name string, fn func(tab context.Context, filmURL string) error) error {
	return n.withSession(ctx, n.cfg.Headless, func(tab context.Context) error {
		filmURL, err := n.openFirstResult(tab, name, n.cfg.DetailSettle)
		if err != nil {
			return err
		}
		return fn(tab, filmURL)
	})
}

// OpenVisible runs the detail flow in a visibly-rendered session and holds
// the page open for the configured observation window before teardown.
// Intended for local manual inspection, not an automatable path.
func (n *Navigator) OpenVisible(ctx context.Context, name string) (string, error) {
	var filmURL string
	err := n.withSession(ctx, false, func(tab context.Context) error {
		var err error
		filmURL, err = n.openFirstResult(tab, name, n.cfg.DetailSettle)
		if err != nil {
			return err
		}
		n.logger.Info("holding visible session open",
			zap.String("url", filmURL),
			zap.Duration("hold", n.cfg.InteractiveHold),
		)
		// The hold is not a navigation step, so it runs outside the
		// per-step timeout; it still honors caller cancellation.
		if err := chromedp.Run(tab, chromedp.Sleep(n.cfg.InteractiveHold)); err != nil {
			return fmt.Errorf("hold visible session: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return filmURL, nil
}

// withSession opens an isolated browser session, runs fn against the tab
// and guarantees teardown on every exit path via the deferred cancels.
func (n *Navigator) withSession(ctx context.Context, headless bool, fn func(tab context.Context) error) error {
	select {
	case n.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("session slot wait canceled: %w", ctx.Err())
	}
	defer func() { <-n.sem }()

	if n.launch != nil {
		if err := n.launch.Wait(ctx); err != nil {
			return fmt.Errorf("session launch limiter: %w", err)
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.UserAgent(n.cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	tab, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	metrics.IncActiveSessions()
	defer metrics.DecActiveSessions()

	return fn(tab)
}

// navigateSearch performs the fixed two-step flow: site root for the
// client-side bootstrap, then the query-encoded search path for result
// hydration.
func (n *Navigator) navigateSearch(tab context.Context, query string) error {
	if err := n.step(tab, n.cfg.HomeSettle,
		chromedp.Navigate(n.cfg.BaseURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate home: %w", err)
	}
	if err := n.step(tab, n.cfg.SearchSettle,
		chromedp.Navigate(n.searchURL(query)),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate search: %w", err)
	}
	return nil
}

// openFirstResult runs the search flow, picks the first film link from the
// rendered markup and navigates to it.
func (n *Navigator) openFirstResult(tab context.Context, name string, settle time.Duration) (string, error) {
	if err := n.navigateSearch(tab, name); err != nil {
		return "", err
	}
	html, err := n.pageHTML(tab)
	if err != nil {
		return "", err
	}
	filmURL, ok := firstFilmLink(html, n.cfg.BaseURL)
	if !ok {
		return "", fmt.Errorf("no result for %q: %w", name, film.ErrNotFound)
	}
	if err := n.step(tab, settle,
		chromedp.Navigate(filmURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("navigate detail page: %w", err)
	}
	return filmURL, nil
}

func (n *Navigator) pageHTML(tab context.Context) (string, error) {
	var html string
	if err := n.step(tab, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot page html: %w", err)
	}
	return html, nil
}

// step runs one navigation step plus its settle delay under the per-step
// timeout. Timeouts apply per step, not to the whole operation.
func (n *Navigator) step(tab context.Context, settle time.Duration, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(tab, n.cfg.NavTimeout)
	defer cancel()

	if settle > 0 {
		actions = append(actions, chromedp.Sleep(settle))
	}
	if err := chromedp.Run(stepCtx, actions...); err != nil {
		return fmt.Errorf("chromedp run: %w", err)
	}
	return nil
}

func (n *Navigator) searchURL(query string) string {
	return searchPageURL(n.cfg.BaseURL, query)
}
