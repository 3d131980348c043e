package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"sjsage522/stockwatcher/helpers"
	apperrors "sjsage522/stockwatcher/pkg/errors"
	"sjsage522/stockwatcher/services/cache"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCacheService is an in-memory cache.CacheService for testing
type mockCacheService struct {
	data map[string][]byte
}

func newMockCacheService() *mockCacheService {
	return &mockCacheService{data: make(map[string][]byte)}
}

func (m *mockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *mockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockCacheService) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func card(title, price, href string, soldOut bool) string {
	badge := ""
	if soldOut {
		badge = `<span class="badge">Sold out</span>`
	}
	return fmt.Sprintf(`
		<div class="card-wrapper">
			<a class="full-unstyled-link" href="%s"><h3 class="card__heading">%s</h3></a>
			<span class="price-item price-item--regular">%s</span>
			%s
		</div>`, href, title, price, badge)
}

func listingPage(next string, cards ...string) string {
	return `<!DOCTYPE html><html><body>
		<div class="collection"><ul class="grid">` + strings.Join(cards, "") + `</ul></div>
		<nav class="pagination">` + next + `</nav>
	</body></html>`
}

func TestPageURL(t *testing.T) {
	f := NewHTTPFetcher("https://letsallter.com/", "/collections/all", DefaultSelectors(), helpers.NewClient(time.Second), nil)
	assert.Equal(t, "https://letsallter.com/collections/all?page=3", f.PageURL(3))

	f = NewHTTPFetcher("https://letsallter.com", "collections/diapers", DefaultSelectors(), helpers.NewClient(time.Second), nil)
	assert.Equal(t, "https://letsallter.com/collections/diapers?page=1", f.PageURL(1))
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/all", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, helpers.BrowserUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(listingPage(`<a class="pagination__item" href="?page=3">→</a>`,
			card("Bamboo Wipes", "₹ 199.00", "/products/wipes", false),
			card("Diaper Bag", "₹ 899.00", "/products/bag", true),
		)))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, "/collections/all", DefaultSelectors(), server.Client(), nil)
	page, err := f.Fetch(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Number)
	assert.True(t, page.Found)
	assert.Len(t, page.Entries, 2)
	require.NotNil(t, page.Next)
	assert.False(t, page.IsDisabled("disabled"))
}

func TestHTTPFetcher_NoContainer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="collection--empty">No products found</div></body></html>`))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, "/collections/all", DefaultSelectors(), server.Client(), nil)
	page, err := f.Fetch(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, page.Found)
	assert.Empty(t, page.Entries)
}

func TestHTTPFetcher_StatusFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL, "/collections/all", DefaultSelectors(), server.Client(), nil)
	page, err := f.Fetch(context.Background(), 1)
	assert.Nil(t, page)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeFetch))
	assert.Contains(t, err.Error(), "unexpected status code: 503")
}

func TestHTTPFetcher_PageCache(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(listingPage("", card("Bamboo Wipes", "₹ 199.00", "/products/wipes", false))))
	}))
	defer server.Close()

	pageCache := cache.NewPageCache(newMockCacheService(), "catalog", time.Minute)
	f := NewHTTPFetcher(server.URL, "/collections/all", DefaultSelectors(), server.Client(), pageCache)

	for i := 0; i < 3; i++ {
		page, err := f.Fetch(context.Background(), 1)
		require.NoError(t, err)
		assert.Len(t, page.Entries, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestParsePage_NextPage(t *testing.T) {
	testCases := []struct {
		name     string
		nav      string
		hasNext  bool
		disabled bool
	}{
		{name: "arrow link", nav: `<a href="?page=2">→</a>`, hasNext: true},
		{name: "disabled arrow", nav: `<a class="pagination__item disabled">→</a>`, hasNext: true, disabled: true},
		{name: "previous arrow only", nav: `<a href="?page=1">←</a>`},
		{name: "text label", nav: `<a href="?page=2">Next</a>`},
		{name: "no pagination", nav: ``},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingPage(tc.nav, card("A", "1", "/a", false))))
			require.NoError(t, err)

			page := ParsePage(1, doc, DefaultSelectors())
			assert.Equal(t, tc.hasNext, page.Next != nil)
			assert.Equal(t, tc.disabled, page.IsDisabled("disabled"))
		})
	}
}
