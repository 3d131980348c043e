package crawler

import (
	"context"
	"time"

	"sjsage522/stockwatcher/logger"
)

// SleepFunc pauses for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Walker drives pagination over the catalog, one page at a time
type Walker struct {
	fetcher   PageFetcher
	extractor *Extractor
	delay     time.Duration
	maxPages  int
	sleep     SleepFunc
	log       *logger.Logger
}

// WalkerOption configures a Walker
type WalkerOption func(*Walker)

// WithMaxPages bounds the number of fetched pages, 0 means unlimited
func WithMaxPages(n int) WalkerOption {
	return func(w *Walker) { w.maxPages = n }
}

// WithSleep replaces the politeness delay implementation
func WithSleep(sleep SleepFunc) WalkerOption {
	return func(w *Walker) { w.sleep = sleep }
}

// WithLogger sets the walker's logger
func WithLogger(l *logger.Logger) WalkerOption {
	return func(w *Walker) { w.log = l }
}

// NewWalker creates a walker pausing delay between page fetches
func NewWalker(fetcher PageFetcher, extractor *Extractor, delay time.Duration, opts ...WalkerOption) *Walker {
	w := &Walker{
		fetcher:   fetcher,
		extractor: extractor,
		delay:     delay,
		sleep:     sleepContext,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WalkAll fetches pages starting at 1 until a stop condition and returns every
// record in page order then document order. Failures end the walk early but the
// records gathered so far are always returned.
func (w *Walker) WalkAll(ctx context.Context) ([]ProductRecord, WalkStats) {
	var (
		records []ProductRecord
		stats   WalkStats
	)

	for page := 1; ; page++ {
		w.log.Info().Int("page", page).Msg("Scraping page")

		catalog, err := w.fetcher.Fetch(ctx, page)
		if err != nil {
			w.log.Error().Err(err).Int("page", page).Msg("Failed to fetch page, stopping crawl")
			stats.StopReason = StopFetchFailed
			stats.LastError = err
			return records, stats
		}
		stats.Pages++

		if !catalog.Found {
			w.log.Info().Int("page", page).Msg("No product grid found, end of catalog")
			stats.StopReason = StopNoCatalog
			return records, stats
		}
		if len(catalog.Entries) == 0 {
			w.log.Info().Int("page", page).Msg("No product cards found, end of catalog")
			stats.StopReason = StopNoEntries
			return records, stats
		}

		for _, entry := range catalog.Entries {
			stats.Entries++
			rec, err := w.extractor.Extract(entry)
			if err != nil {
				stats.Dropped++
				w.log.Warn().Err(err).Int("page", page).Msg("Error extracting product info")
				continue
			}
			records = append(records, *rec)
		}

		if catalog.Next == nil {
			stats.StopReason = StopLastPage
			return records, stats
		}
		if catalog.IsDisabled(w.extractor.Selectors.DisabledClass) {
			stats.StopReason = StopNextDisabled
			return records, stats
		}
		if w.maxPages > 0 && page >= w.maxPages {
			w.log.Warn().Int("max_pages", w.maxPages).Msg("Page limit reached, stopping crawl")
			stats.StopReason = StopMaxPages
			return records, stats
		}

		if err := w.sleep(ctx, w.delay); err != nil {
			w.log.Warn().Err(err).Msg("Crawl canceled")
			stats.StopReason = StopCanceled
			stats.LastError = err
			return records, stats
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
