// Package filter derives the visible product subset from the catalog and the
// shopper's current criteria.
package filter

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"Storefront/internal/catalog"
)

// Criteria is the single canonical filter state. Zero value matches everything.
type Criteria struct {
	Search   string              `json:"search"`
	Category string              `json:"category"`
	MinPrice decimal.NullDecimal `json:"min_price"`
	MaxPrice decimal.NullDecimal `json:"max_price"`
}

func (c Criteria) IsZero() bool {
	return c.Search == "" && c.Category == "" && !c.MinPrice.Valid && !c.MaxPrice.Valid
}

// Matches reports whether p satisfies every criterion.
func (c Criteria) Matches(p catalog.Product) bool {
	if c.Search != "" {
		term := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	if c.Category != "" && p.Category != c.Category {
		return false
	}
	if c.MinPrice.Valid && p.Price.LessThan(c.MinPrice.Decimal) {
		return false
	}
	if c.MaxPrice.Valid && p.Price.GreaterThan(c.MaxPrice.Decimal) {
		return false
	}
	return true
}

// Apply returns the matching products in catalog order.
func Apply(products []catalog.Product, c Criteria) []catalog.Product {
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if c.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?`)

// ParsePrice turns a price input into a bound. Only the leading numeric prefix is
// read, so "10abc" is 10. Blank, non-numeric and zero inputs mean "no bound".
func ParsePrice(s string) decimal.NullDecimal {
	num := leadingNumber.FindString(strings.TrimSpace(s))
	if num == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(num)
	if err != nil || d.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// FormatPrice is the inverse of ParsePrice for display in an input field.
func FormatPrice(b decimal.NullDecimal) string {
	if !b.Valid {
		return ""
	}
	return b.Decimal.String()
}

type Engine struct {
	criteria Criteria
}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Criteria() Criteria { return e.criteria }

func (e *Engine) Set(c Criteria) { e.criteria = c }

func (e *Engine) SetSearch(s string) { e.criteria.Search = s }

func (e *Engine) SetCategory(c string) { e.criteria.Category = c }

func (e *Engine) SetPriceRange(lo, hi decimal.NullDecimal) {
	e.criteria.MinPrice = lo
	e.criteria.MaxPrice = hi
}

// ClearBasic resets the fields owned by the basic filter bar. Price bounds live on
// the advanced panel and are kept.
func (e *Engine) ClearBasic() {
	e.criteria.Search = ""
	e.criteria.Category = ""
}

func (e *Engine) ClearAll() { e.criteria = Criteria{} }

func (e *Engine) Apply(products []catalog.Product) []catalog.Product {
	return Apply(products, e.criteria)
}
