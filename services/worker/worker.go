package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sjsage522/stockwatcher/internal/crawler"
	"sjsage522/stockwatcher/internal/watch"
	"sjsage522/stockwatcher/logger"
	apperrors "sjsage522/stockwatcher/pkg/errors"
	"sjsage522/stockwatcher/services/exporter"
	"sjsage522/stockwatcher/services/publisher"

	"github.com/google/uuid"
)

// StreamKey is the field name records are published under
const StreamKey = "b64_product"

// Catalog produces the full ordered record list of one crawl
type Catalog interface {
	WalkAll(ctx context.Context) ([]crawler.ProductRecord, crawler.WalkStats)
}

// Exporter persists the records of one run
type Exporter interface {
	Export(records []crawler.ProductRecord) (string, error)
}

// Dispatcher notifies about watched records
type Dispatcher interface {
	Dispatch(ctx context.Context, records []crawler.ProductRecord) watch.Report
}

// RunSummary describes one completed run
type RunSummary struct {
	RunID      string
	Pages      int
	Records    int
	StopReason crawler.StopReason
	ExportPath string
	Published  int
	Report     watch.Report
	Duration   time.Duration
}

// streamRecord is the JSON payload published per record
type streamRecord struct {
	RunID string `json:"run_id"`
	crawler.ProductRecord
}

// Worker handles the crawl, export and notify process
type Worker struct {
	ctx           context.Context
	catalog       Catalog
	exporter      Exporter
	publisher     publisher.Publisher
	dispatcher    Dispatcher
	crawlInterval time.Duration
}

// NewWorker creates a new worker. A zero crawlInterval runs a single pass.
func NewWorker(
	ctx context.Context,
	catalog Catalog,
	exp Exporter,
	pub publisher.Publisher,
	dispatcher Dispatcher,
	crawlInterval time.Duration,
) *Worker {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	return &Worker{
		ctx:           ctx,
		catalog:       catalog,
		exporter:      exp,
		publisher:     pub,
		dispatcher:    dispatcher,
		crawlInterval: crawlInterval,
	}
}

// Start runs until the context is canceled, or once when no interval is set
func (w *Worker) Start() error {
	log := logger.ForWorker()
	for {
		w.RunOnce()

		if w.crawlInterval <= 0 {
			return nil
		}

		log.Info().Dur("next_run_in", w.crawlInterval).Msg("Waiting for next run")
		select {
		case <-w.ctx.Done():
			return nil
		case <-time.After(w.crawlInterval):
		}
	}
}

// RunOnce crawls the catalog and hands the records to export, the stream and
// the dispatcher. Failures of any consumer are logged and never abort the run.
func (w *Worker) RunOnce() RunSummary {
	start := time.Now()
	summary := RunSummary{RunID: uuid.NewString()}
	log := logger.ForWorker().WithField("run_id", summary.RunID)

	log.Info().Msg("Starting scraper run")

	records, stats := w.catalog.WalkAll(w.ctx)
	summary.Pages = stats.Pages
	summary.Records = len(records)
	summary.StopReason = stats.StopReason

	log.Info().
		Int("pages", stats.Pages).
		Int("records", len(records)).
		Int("dropped", stats.Dropped).
		Str("stop_reason", string(stats.StopReason)).
		Msg("Crawl finished")

	path, err := w.exporter.Export(records)
	switch {
	case errors.Is(err, exporter.ErrNothingToExport):
		log.Warn().Msg("No data to save")
	case err != nil:
		log.Error().Err(err).Msg("Error saving export")
	default:
		summary.ExportPath = path
		log.Info().Str("path", path).Msg("Data saved")
	}

	summary.Published = w.publish(records, summary.RunID, log)
	summary.Report = w.dispatcher.Dispatch(w.ctx, records)
	summary.Duration = time.Since(start)

	log.Info().
		Int("matched", summary.Report.Matched).
		Int("notified", summary.Report.Delivered).
		Int("notify_failed", summary.Report.Failed).
		Dur("duration", summary.Duration).
		Msg("Run completed")

	return summary
}

// publish sends every record to the stream, returns how many were accepted
func (w *Worker) publish(records []crawler.ProductRecord, runID string, log *logger.Logger) int {
	if _, ok := w.publisher.(publisher.NopPublisher); ok {
		return 0
	}

	published := 0
	for _, rec := range records {
		data, err := json.Marshal(streamRecord{RunID: runID, ProductRecord: rec})
		if err != nil {
			log.Error().Err(err).Str("title", rec.Title).Msg("Failed to marshal record")
			continue
		}
		if err := w.publisher.Publish(w.ctx, StreamKey, data); err != nil {
			log.Error().
				Err(apperrors.NewPublisher("redis", "failed to publish record", err)).
				Str("title", rec.Title).
				Msg("Failed to publish record")
			continue
		}
		published++
	}
	return published
}
