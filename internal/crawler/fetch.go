package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sjsage522/stockwatcher/helpers"
	"sjsage522/stockwatcher/logger"
	apperrors "sjsage522/stockwatcher/pkg/errors"
	"sjsage522/stockwatcher/services/cache"

	"github.com/PuerkitoBio/goquery"
)

// HTTPFetcher fetches listing pages from the store
type HTTPFetcher struct {
	BaseURL        string
	CollectionPath string
	Selectors      Selectors
	Client         *http.Client
	Cache          *cache.PageCache
	log            *logger.Logger
}

// NewHTTPFetcher creates a fetcher for {baseURL}{collectionPath}?page=N.
// pageCache may be nil.
func NewHTTPFetcher(baseURL, collectionPath string, selectors Selectors, client *http.Client, pageCache *cache.PageCache) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		CollectionPath: collectionPath,
		Selectors:      selectors,
		Client:         client,
		Cache:          pageCache,
		log:            logger.ForCrawler(hostOf(baseURL)),
	}
}

// PageURL builds the listing URL for a page number
func (f *HTTPFetcher) PageURL(page int) string {
	path := f.CollectionPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(f.BaseURL + path)
	if err != nil {
		return fmt.Sprintf("%s%s?page=%d", f.BaseURL, path, page)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch retrieves and parses one page. Network and status errors come back as
// fetch errors; a missing listing container is a page with Found=false.
func (f *HTTPFetcher) Fetch(ctx context.Context, page int) (*CatalogPage, error) {
	body, err := f.body(ctx, page)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewFetch("fetcher", fmt.Sprintf("failed to parse page %d", page), err)
	}

	return ParsePage(page, doc, f.Selectors), nil
}

func (f *HTTPFetcher) body(ctx context.Context, page int) ([]byte, error) {
	if cached, ok, err := f.Cache.Get(page); err != nil {
		f.log.Warn().Err(err).Int("page", page).Msg("Page cache lookup failed")
	} else if ok {
		f.log.Debug().Int("page", page).Msg("Using cached page")
		return cached, nil
	}

	pageURL := f.PageURL(page)
	body, err := helpers.FetchWithBrowserHeaders(ctx, f.Client, pageURL)
	if err != nil {
		return nil, apperrors.NewFetch("fetcher", fmt.Sprintf("failed to fetch page %d", page), err)
	}

	if err := f.Cache.Put(page, body); err != nil {
		f.log.Warn().Err(err).Int("page", page).Msg("Failed to cache page")
	}
	return body, nil
}

// ParsePage locates the listing container, its entries and the next-page anchor
func ParsePage(number int, doc *goquery.Document, selectors Selectors) *CatalogPage {
	page := &CatalogPage{Number: number, Document: doc}

	container := doc.Find(selectors.Container).First()
	if container.Length() == 0 {
		return page
	}
	page.Found = true

	container.Find(selectors.Entry).Each(func(_ int, s *goquery.Selection) {
		page.Entries = append(page.Entries, s)
	})

	if selectors.NextPage != nil {
		if next := selectors.NextPage(doc.Selection); next != nil && next.Length() > 0 {
			page.Next = next
		}
	}
	return page
}

// IsDisabled reports whether the next-page anchor carries the disabled marker
func (p *CatalogPage) IsDisabled(class string) bool {
	return p.Next != nil && class != "" && p.Next.HasClass(class)
}

func hostOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	return u.Host
}
