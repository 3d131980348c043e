package crawler

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// NotAvailable replaces any field that could not be located
const NotAvailable = "N/A"

// ProductRecord represents one scraped catalog entry
type ProductRecord struct {
	Title      string    `json:"title"`
	Price      string    `json:"price"`
	InStock    bool      `json:"in_stock"`
	ProductURL string    `json:"product_url"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// Locator finds a candidate element inside a fragment. An empty selection is a miss.
type Locator func(*goquery.Selection) *goquery.Selection

// Selectors describes where things live in the listing markup. Each field chain is
// tried in order and the first candidate that matches wins.
type Selectors struct {
	Container string
	Entry     string

	Title   []Locator
	Price   []Locator
	Link    []Locator
	SoldOut []Locator

	NextPage      Locator
	DisabledClass string
}

// CatalogPage is one parsed listing page
type CatalogPage struct {
	Number   int
	Document *goquery.Document
	// Found is false when the listing container is absent, which ends the catalog
	Found   bool
	Entries []*goquery.Selection
	Next    *goquery.Selection
}

// PageFetcher retrieves a single listing page
type PageFetcher interface {
	Fetch(ctx context.Context, page int) (*CatalogPage, error)
}

// StopReason explains why a walk ended
type StopReason string

const (
	StopFetchFailed  StopReason = "fetch_failed"
	StopNoCatalog    StopReason = "no_catalog"
	StopNoEntries    StopReason = "no_entries"
	StopLastPage     StopReason = "last_page"
	StopNextDisabled StopReason = "next_disabled"
	StopCanceled     StopReason = "canceled"
	StopMaxPages     StopReason = "max_pages"
)

// WalkStats summarises a catalog walk
type WalkStats struct {
	Pages      int
	Entries    int
	Dropped    int
	StopReason StopReason
	LastError  error
}
