package storefront

import (
	"context"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/filter"
	"Storefront/internal/notify"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

type CategoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// BasicSurface is what the always-visible filter bar displays.
type BasicSurface struct {
	Search   string `json:"search"`
	Category string `json:"category"`
}

// AdvancedSurface is what the advanced filter panel displays.
type AdvancedSurface struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	MinPrice string `json:"min_price"`
	MaxPrice string `json:"max_price"`
}

type CartLine struct {
	cart.LineItem
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	Items []CartLine      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	Empty bool            `json:"empty"`
}

type Overlays struct {
	Cart     bool `json:"cart"`
	Advanced bool `json:"advanced"`
	Settings bool `json:"settings"`
}

type SettingsView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

type View struct {
	Status        Status                `json:"status"`
	Error         string                `json:"error,omitempty"`
	Categories    []CategoryOption      `json:"categories"`
	Basic         BasicSurface          `json:"basic"`
	Advanced      AdvancedSurface       `json:"advanced"`
	Products      []catalog.Product     `json:"products"`
	Results       string                `json:"results"`
	Cart          CartView              `json:"cart"`
	Overlays      Overlays              `json:"overlays"`
	Settings      *SettingsView         `json:"settings,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

// project renders every region from canonical state. Surfaces are written, never read.
func (c *Controller) project(ctx context.Context) {
	criteria := c.filters.Criteria()

	v := View{
		Status:   c.status,
		Error:    c.loadErr,
		Overlays: c.overlays,
		Basic: BasicSurface{
			Search:   criteria.Search,
			Category: criteria.Category,
		},
		Advanced: AdvancedSurface{
			Search:   criteria.Search,
			Category: criteria.Category,
			MinPrice: filter.FormatPrice(criteria.MinPrice),
			MaxPrice: filter.FormatPrice(criteria.MaxPrice),
		},
		Categories: []CategoryOption{},
		Products:   []catalog.Product{},
	}

	if c.status == StatusReady {
		all := c.catalog.Products()
		v.Products = c.filters.Apply(all)
		v.Results = resultsLine(len(v.Products), len(all))
		for _, cat := range c.catalog.Categories() {
			v.Categories = append(v.Categories, CategoryOption{Value: cat, Label: capitalize(cat)})
		}
	}

	v.Cart = c.cartView()

	if c.overlays.Settings {
		sv := c.settingsView(ctx)
		v.Settings = &sv
	}

	c.view = v
}

func (c *Controller) settingsView(ctx context.Context) SettingsView {
	p := c.profile.Load(ctx)
	return SettingsView{
		Username: c.profile.Username(ctx),
		Email:    p.Email,
		Address:  p.Address,
	}
}

func (c *Controller) cartView() CartView {
	items := c.cart.Items()
	cv := CartView{
		Items: make([]CartLine, 0, len(items)),
		Count: c.cart.ItemCount(),
		Total: c.cart.Total(),
		Empty: len(items) == 0,
	}
	for _, it := range items {
		cv.Items = append(cv.Items, CartLine{LineItem: it, Subtotal: it.Subtotal()})
	}
	return cv
}

func resultsLine(shown, total int) string {
	if shown == total {
		return fmt.Sprintf("Showing %d products", total)
	}
	return fmt.Sprintf("Showing %d of %d products", shown, total)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
