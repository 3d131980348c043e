package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Find matches the first element for a CSS selector
func Find(selector string) Locator {
	return func(s *goquery.Selection) *goquery.Selection {
		return s.Find(selector).First()
	}
}

// WithText matches the first element for a CSS selector whose trimmed text equals text
func WithText(selector, text string) Locator {
	return func(s *goquery.Selection) *goquery.Selection {
		return s.Find(selector).FilterFunction(func(_ int, el *goquery.Selection) bool {
			return strings.TrimSpace(el.Text()) == text
		}).First()
	}
}

// FirstMatch evaluates the chain in order and returns the first non-empty match
// with its position, or (nil, -1).
func FirstMatch(s *goquery.Selection, chain []Locator) (*goquery.Selection, int) {
	for i, locate := range chain {
		if locate == nil {
			continue
		}
		if match := locate(s); match != nil && match.Length() > 0 {
			return match, i
		}
	}
	return nil, -1
}

// Field is the result of one field lookup
type Field struct {
	Value string
	Found bool
	// Candidate is the index of the matching locator, -1 when missing
	Candidate int
}

// Found builds a located field
func Found(value string, candidate int) Field {
	return Field{Value: value, Found: true, Candidate: candidate}
}

// Missing builds a field no candidate could locate
func Missing() Field {
	return Field{Candidate: -1}
}

// OrNA returns the value, or the N/A sentinel when the field is missing
func (f Field) OrNA() string {
	if !f.Found {
		return NotAvailable
	}
	return f.Value
}

// DefaultSelectors matches the Shopify "Dawn" collection grid used by letsallter.com
func DefaultSelectors() Selectors {
	return Selectors{
		Container: "div.collection",
		Entry:     "div.card-wrapper",
		Title: []Locator{
			Find("h3.card__heading"),
			Find("a.card-information__text"),
		},
		Price: []Locator{
			Find("span.price-item--regular"),
			Find("span.price-item.price-item--sale"),
		},
		Link: []Locator{
			Find("a.full-unstyled-link"),
			Find("a.card-wrapper__link"),
		},
		SoldOut: []Locator{
			WithText("span", "Sold out"),
		},
		NextPage:      WithText("a", "→"),
		DisabledClass: "disabled",
	}
}
