package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	if scrapeOperationsTotal == nil || activeBrowserSessions == nil {
		t.Fatal("expected collectors to be initialized")
	}
}

func TestObserveScrape(t *testing.T) {
	Init()

	before := testutil.ToFloat64(scrapeOperationsTotal.WithLabelValues("list_by_genre", "success"))
	ObserveScrape("list_by_genre", "success", 3*time.Second)
	after := testutil.ToFloat64(scrapeOperationsTotal.WithLabelValues("list_by_genre", "success"))
	if after != before+1 {
		t.Fatalf("expected counter to increment, before=%v after=%v", before, after)
	}
}

func TestSessionGauge(t *testing.T) {
	Init()

	base := testutil.ToFloat64(activeBrowserSessions)
	IncActiveSessions()
	if got := testutil.ToFloat64(activeBrowserSessions); got != base+1 {
		t.Fatalf("expected gauge %v, got %v", base+1, got)
	}
	DecActiveSessions()
	if got := testutil.ToFloat64(activeBrowserSessions); got != base {
		t.Fatalf("expected gauge %v, got %v", base, got)
	}
}

func TestAddFilmsExtractedIgnoresZero(t *testing.T) {
	Init()

	before := testutil.ToFloat64(filmsExtractedTotal.WithLabelValues("headless"))
	AddFilmsExtracted("headless", 0)
	if got := testutil.ToFloat64(filmsExtractedTotal.WithLabelValues("headless")); got != before {
		t.Fatalf("expected no increment for zero count")
	}
	AddFilmsExtracted("headless", 3)
	if got := testutil.ToFloat64(filmsExtractedTotal.WithLabelValues("headless")); got != before+3 {
		t.Fatalf("expected +3, got %v", got-before)
	}
}
