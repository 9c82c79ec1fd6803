package catalog

import "github.com/shopspring/decimal"

type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

// Categories returns the distinct categories in first-seen order.
func Categories(products []Product) []string {
	seen := make(map[string]struct{}, 8)
	out := make([]string, 0, 8)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
