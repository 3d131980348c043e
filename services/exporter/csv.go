package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sjsage522/stockwatcher/internal/crawler"
	apperrors "sjsage522/stockwatcher/pkg/errors"

	"github.com/google/uuid"
)

// ErrNothingToExport is returned for an empty record list; no file is written
var ErrNothingToExport = errors.New("no data to save")

// ScrapedAtLayout is the timestamp format of the scraped_at column
const ScrapedAtLayout = "2006-01-02 15:04:05"

var header = []string{"title", "price", "in_stock", "product_url", "scraped_at"}

// CSVExporter writes one timestamped CSV file per run
type CSVExporter struct {
	Dir    string
	Prefix string
	Now    func() time.Time
}

// NewCSVExporter creates an exporter writing {dir}/{prefix}_{YYYYMMDD_HHMMSS}.csv
func NewCSVExporter(dir, prefix string) *CSVExporter {
	return &CSVExporter{
		Dir:    dir,
		Prefix: prefix,
		Now:    time.Now,
	}
}

// Export writes records in order and returns the created file path
func (e *CSVExporter) Export(records []crawler.ProductRecord) (string, error) {
	if len(records) == 0 {
		return "", ErrNothingToExport
	}

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", apperrors.NewExport("csv", "failed to create data directory", err)
	}

	f, path, err := e.create()
	if err != nil {
		return "", apperrors.NewExport("csv", "failed to create export file", err)
	}

	if err := writeRecords(f, records); err != nil {
		f.Close()
		return path, apperrors.NewExport("csv", "failed to write "+path, err)
	}
	if err := f.Close(); err != nil {
		return path, apperrors.NewExport("csv", "failed to close "+path, err)
	}
	return path, nil
}

// create opens a new file exclusively so successive runs never overwrite each other
func (e *CSVExporter) create() (*os.File, string, error) {
	stamp := e.Now().Format("20060102_150405")
	path := filepath.Join(e.Dir, fmt.Sprintf("%s_%s.csv", e.Prefix, stamp))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		path = filepath.Join(e.Dir, fmt.Sprintf("%s_%s_%s.csv", e.Prefix, stamp, uuid.NewString()[:8]))
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

func writeRecords(f *os.File, records []crawler.ProductRecord) error {
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(row(rec)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func row(rec crawler.ProductRecord) []string {
	inStock := "No"
	if rec.InStock {
		inStock = "Yes"
	}
	return []string{rec.Title, rec.Price, inStock, rec.ProductURL, rec.ScrapedAt.Format(ScrapedAtLayout)}
}
