package watch

import (
	"context"
	"fmt"

	"sjsage522/stockwatcher/internal/crawler"
	"sjsage522/stockwatcher/logger"
)

// Notifier delivers one formatted message
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// WatchList is an immutable set of exact product titles
type WatchList struct {
	titles map[string]struct{}
}

// NewWatchList copies titles into a set; matching is exact and case-sensitive
func NewWatchList(titles ...string) WatchList {
	set := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		set[title] = struct{}{}
	}
	return WatchList{titles: set}
}

// Contains reports whether title is watched
func (w WatchList) Contains(title string) bool {
	_, ok := w.titles[title]
	return ok
}

// Len returns the number of watched titles
func (w WatchList) Len() int {
	return len(w.titles)
}

// Filter keeps the watched records in input order
func (w WatchList) Filter(records []crawler.ProductRecord) []crawler.ProductRecord {
	var matched []crawler.ProductRecord
	for _, rec := range records {
		if w.Contains(rec.Title) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// Report summarises one dispatch
type Report struct {
	Matched    int
	OutOfStock int
	// Attempted counts notifier calls, Delivered and Failed split them
	Attempted int
	Delivered int
	Failed    int
}

// Dispatcher notifies about watched products that are in stock
type Dispatcher struct {
	notifier Notifier
	watch    WatchList
	log      *logger.Logger
}

// NewDispatcher creates a dispatcher for the given watch list
func NewDispatcher(notifier Notifier, watch WatchList, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		notifier: notifier,
		watch:    watch,
		log:      log,
	}
}

// Dispatch filters records by the watch list and sends one notification per
// in-stock match. Delivery failures are logged and counted, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, records []crawler.ProductRecord) Report {
	matched := d.watch.Filter(records)
	report := Report{Matched: len(matched)}

	if len(matched) == 0 {
		d.log.Info().Msg("No interested products found")
		return report
	}
	d.log.Info().Int("matched", len(matched)).Msg("Found interested products")

	for _, rec := range matched {
		if !rec.InStock {
			report.OutOfStock++
			d.log.Info().Str("title", rec.Title).Msg("Product is out of stock")
			continue
		}

		d.log.Info().Str("title", rec.Title).Msg("Product is in stock, sending notification")
		report.Attempted++
		if err := d.notifier.Notify(ctx, FormatMessage(rec)); err != nil {
			report.Failed++
			d.log.Error().Err(err).Str("title", rec.Title).Msg("Failed to send notification")
			continue
		}
		report.Delivered++
		d.log.Info().Str("title", rec.Title).Msg("Notification sent")
	}
	return report
}

// FormatMessage renders the WhatsApp message for a record
func FormatMessage(rec crawler.ProductRecord) string {
	status := "Out of Stock"
	if rec.InStock {
		status = "In Stock"
	}
	return fmt.Sprintf("🚀 *Product In Stock!* 🚀\n\n*%s*\n💰 Price: %s\n🛒 Status: %s\n🔗 %s",
		rec.Title, rec.Price, status, rec.ProductURL)
}
