package crawler

import (
	"fmt"
	"strings"
	"time"

	apperrors "sjsage522/stockwatcher/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns one listing entry into a ProductRecord
type Extractor struct {
	BaseURL   string
	Selectors Selectors
	Now       func() time.Time
}

// NewExtractor creates an extractor resolving links against baseURL
func NewExtractor(baseURL string, selectors Selectors) *Extractor {
	return &Extractor{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Selectors: selectors,
		Now:       time.Now,
	}
}

// Fields holds every field lookup of one entry
type Fields struct {
	Title   Field
	Price   Field
	URL     Field
	InStock bool
}

// ExtractFields runs every locator chain against the fragment
func (e *Extractor) ExtractFields(s *goquery.Selection) Fields {
	return Fields{
		Title:   e.textField(s, e.Selectors.Title),
		Price:   e.textField(s, e.Selectors.Price),
		URL:     e.linkField(s),
		InStock: e.inStock(s),
	}
}

// Extract builds a record from the fragment. A nil record means the entry is
// dropped; missing fields alone never drop an entry.
func (e *Extractor) Extract(s *goquery.Selection) (rec *ProductRecord, err error) {
	if s == nil || s.Length() == 0 {
		return nil, apperrors.NewExtraction("extractor", "empty entry fragment", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = apperrors.NewExtraction("extractor", "malformed entry fragment", fmt.Errorf("%v", r))
		}
	}()

	fields := e.ExtractFields(s)
	return &ProductRecord{
		Title:      fields.Title.OrNA(),
		Price:      fields.Price.OrNA(),
		InStock:    fields.InStock,
		ProductURL: fields.URL.OrNA(),
		ScrapedAt:  e.now(),
	}, nil
}

func (e *Extractor) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Extractor) textField(s *goquery.Selection, chain []Locator) Field {
	match, idx := FirstMatch(s, chain)
	if match == nil {
		return Missing()
	}
	return Found(strings.TrimSpace(match.Text()), idx)
}

// linkField uses the first located link; a link without href is N/A even when a
// later candidate would have one.
func (e *Extractor) linkField(s *goquery.Selection) Field {
	match, idx := FirstMatch(s, e.Selectors.Link)
	if match == nil {
		return Missing()
	}
	href, exists := match.Attr("href")
	if !exists {
		return Missing()
	}
	return Found(e.ResolveURL(strings.TrimSpace(href)), idx)
}

// inStock is the default; only an explicit sold out marker flips it
func (e *Extractor) inStock(s *goquery.Selection) bool {
	match, _ := FirstMatch(s, e.Selectors.SoldOut)
	return match == nil
}

// ResolveURL prefixes relative hrefs with the store origin
func (e *Extractor) ResolveURL(href string) string {
	switch {
	case href == "":
		return e.BaseURL
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		scheme := "https:"
		if strings.HasPrefix(e.BaseURL, "http://") {
			scheme = "http:"
		}
		return scheme + href
	case strings.HasPrefix(href, "/"):
		return e.BaseURL + href
	default:
		return e.BaseURL + "/" + href
	}
}
