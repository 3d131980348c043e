package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"sjsage522/stockwatcher/internal/crawler"
	"sjsage522/stockwatcher/internal/watch"
	"sjsage522/stockwatcher/services/exporter"
	"sjsage522/stockwatcher/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCatalog implements Catalog for testing
type MockCatalog struct {
	records []crawler.ProductRecord
	stats   crawler.WalkStats
	calls   int
}

func (m *MockCatalog) WalkAll(ctx context.Context) ([]crawler.ProductRecord, crawler.WalkStats) {
	m.calls++
	return m.records, m.stats
}

// MockExporter implements Exporter for testing
type MockExporter struct {
	got [][]crawler.ProductRecord
	err error
}

func (m *MockExporter) Export(records []crawler.ProductRecord) (string, error) {
	m.got = append(m.got, records)
	if m.err != nil {
		return "", m.err
	}
	if len(records) == 0 {
		return "", exporter.ErrNothingToExport
	}
	return "scraped_data/letsallter_products_20240501_093015.csv", nil
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages [][]byte
	err      error
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, append([]byte(nil), message...))
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockNotifier implements watch.Notifier for testing
type MockNotifier struct {
	messages []string
	err      error
}

func (m *MockNotifier) Notify(ctx context.Context, message string) error {
	m.messages = append(m.messages, message)
	return m.err
}

const watched = "Organic Bamboo Diapers- Large Size (8-12 kgs)"

func sampleRecords() []crawler.ProductRecord {
	return []crawler.ProductRecord{
		{Title: watched, Price: "₹ 1,299.00", InStock: true, ProductURL: "https://letsallter.com/products/large"},
		{Title: "Unrelated Item", Price: "₹ 10.00", InStock: true, ProductURL: "https://letsallter.com/products/other"},
	}
}

func TestWorkerRunOnce(t *testing.T) {
	catalog := &MockCatalog{
		records: sampleRecords(),
		stats:   crawler.WalkStats{Pages: 2, StopReason: crawler.StopLastPage},
	}
	exp := &MockExporter{}
	pub := &MockPublisher{}
	notifier := &MockNotifier{}
	dispatcher := watch.NewDispatcher(notifier, watch.NewWatchList(watched), nil)

	w := NewWorker(context.Background(), catalog, exp, pub, dispatcher, 0)
	summary := w.RunOnce()

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Pages)
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, crawler.StopLastPage, summary.StopReason)
	assert.Equal(t, "scraped_data/letsallter_products_20240501_093015.csv", summary.ExportPath)
	assert.Equal(t, 2, summary.Published)
	assert.Equal(t, 1, summary.Report.Delivered)

	require.Len(t, exp.got, 1)
	assert.Equal(t, sampleRecords(), exp.got[0])
	assert.Len(t, notifier.messages, 1)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.messages[0], &payload))
	assert.Equal(t, summary.RunID, payload["run_id"])
	assert.Equal(t, watched, payload["title"])
}

func TestWorkerConsumerFailuresAreNotFatal(t *testing.T) {
	catalog := &MockCatalog{
		records: sampleRecords(),
		stats:   crawler.WalkStats{Pages: 1, StopReason: crawler.StopFetchFailed, LastError: errors.New("timeout")},
	}
	exp := &MockExporter{err: errors.New("disk full")}
	pub := &MockPublisher{err: errors.New("redis down")}
	notifier := &MockNotifier{err: errors.New("unauthorized")}
	dispatcher := watch.NewDispatcher(notifier, watch.NewWatchList(watched), nil)

	summary := NewWorker(context.Background(), catalog, exp, pub, dispatcher, 0).RunOnce()

	assert.Empty(t, summary.ExportPath)
	assert.Equal(t, 0, summary.Published)
	assert.Equal(t, 1, summary.Report.Attempted)
	assert.Equal(t, 1, summary.Report.Failed)
	assert.Len(t, notifier.messages, 1)
}

func TestWorkerEmptyCrawl(t *testing.T) {
	catalog := &MockCatalog{stats: crawler.WalkStats{StopReason: crawler.StopFetchFailed}}
	exp := &MockExporter{}
	notifier := &MockNotifier{}
	dispatcher := watch.NewDispatcher(notifier, watch.NewWatchList(watched), nil)

	summary := NewWorker(context.Background(), catalog, exp, nil, dispatcher, 0).RunOnce()

	assert.Empty(t, summary.ExportPath)
	assert.Equal(t, 0, summary.Report.Matched)
	assert.Empty(t, notifier.messages)
}

func TestWorkerStartOnce(t *testing.T) {
	catalog := &MockCatalog{records: sampleRecords()}
	dispatcher := watch.NewDispatcher(&MockNotifier{}, watch.NewWatchList(watched), nil)

	w := NewWorker(context.Background(), catalog, &MockExporter{}, nil, dispatcher, 0)
	assert.NoError(t, w.Start())
	assert.Equal(t, 1, catalog.calls)
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	catalog := &MockCatalog{records: sampleRecords()}
	dispatcher := watch.NewDispatcher(&MockNotifier{}, watch.NewWatchList(watched), nil)

	w := NewWorker(ctx, catalog, &MockExporter{}, nil, dispatcher, time.Hour)

	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.Equal(t, 1, catalog.calls)
}
