// Package fetch provides a plain-HTTP page fetcher built on Colly.
//
// The list extractor is a pure function of markup, so when the target
// site's search page degrades gracefully without JavaScript the service can
// skip the browser session entirely and feed the extractor from a single
// HTTP GET. Records scraped this way carry the "http" method tag.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

const defaultTimeout = 30 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Static fetches rendered-on-the-server HTML over plain HTTP.
type Static struct {
	cfg  Config
	base *colly.Collector
}

// NewStatic builds a Static fetcher.
func NewStatic(cfg Config) *Static {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = false
	return &Static{cfg: cfg, base: c}
}

// HTML executes a single GET and returns the response body as a string.
func (f *Static) HTML(ctx context.Context, rawURL string) (string, error) {
	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	var (
		body     string
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("static fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("static fetch visit: %w", err)
		}
		if fetchErr != nil {
			return "", fmt.Errorf("static fetch response: %w", fetchErr)
		}
		return body, nil
	}
}
