// Package storefront owns the shopper's session state and keeps every view region
// consistent with it. Each event is one synchronous transition followed by one
// projection pass.
package storefront

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/filter"
	"Storefront/internal/notify"
	"Storefront/internal/profile"
)

type Overlay string

const (
	OverlayCart     Overlay = "cart"
	OverlayAdvanced Overlay = "advanced"
	OverlaySettings Overlay = "settings"
)

var ErrUnknownOverlay = errors.New("unknown overlay")

const loadFailedMessage = "Could not load products"

type Deps struct {
	Catalog *catalog.Repository
	Filters *filter.Engine
	Cart    *cart.Manager
	Profile *profile.Store
	Notices *notify.Center
	Log     *zap.Logger
}

type BasicInput struct {
	Search   *string `json:"search"`
	Category *string `json:"category"`
}

type AdvancedInput struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	MinPrice string `json:"min_price"`
	MaxPrice string `json:"max_price"`
}

type Controller struct {
	catalog *catalog.Repository
	filters *filter.Engine
	cart    *cart.Manager
	profile *profile.Store
	notices *notify.Center
	log     *zap.Logger

	mu       sync.Mutex
	status   Status
	loadErr  string
	overlays Overlays
	view     View
}

func NewController(d Deps) *Controller {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	if d.Notices == nil {
		d.Notices = notify.NewCenter()
	}
	c := &Controller{
		catalog: d.Catalog,
		filters: d.Filters,
		cart:    d.Cart,
		profile: d.Profile,
		notices: d.Notices,
		log:     log,
		status:  StatusLoading,
	}
	c.project(context.Background())
	return c
}

func (c *Controller) dispatch(ctx context.Context, event string, fn func() error) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := fn()
	c.project(ctx)
	c.log.Debug("event handled", zap.String("event", event), zap.Bool("failed", err != nil))
	return c.snapshot(), err
}

func (c *Controller) snapshot() View {
	v := c.view
	v.Notifications = c.notices.Active()
	return v
}

// Restore brings back the cart saved by a previous session.
func (c *Controller) Restore(ctx context.Context) View {
	v, _ := c.dispatch(ctx, "restore", func() error {
		c.cart.Restore(ctx)
		return nil
	})
	return v
}

// Load fetches the catalog. The fetch runs outside the event lock; while it is pending
// the view reports StatusLoading and the previous catalog stays installed. The outcome
// and the new status are applied in one locked step. A failure is terminal until the
// next Load.
func (c *Controller) Load(ctx context.Context) error {
	_, _ = c.dispatch(ctx, "load_started", func() error {
		c.status = StatusLoading
		c.loadErr = ""
		return nil
	})

	products, err := c.catalog.Fetch(ctx)

	_, _ = c.dispatch(ctx, "load_finished", func() error {
		if err != nil {
			c.catalog.Reset()
			c.status = StatusFailed
			c.loadErr = loadFailedMessage
			return err
		}
		c.catalog.Install(products)
		c.status = StatusReady
		return nil
	})
	return err
}

func (c *Controller) UpdateBasic(ctx context.Context, in BasicInput) View {
	v, _ := c.dispatch(ctx, "basic_filter", func() error {
		if in.Search != nil {
			c.filters.SetSearch(*in.Search)
		}
		if in.Category != nil {
			c.filters.SetCategory(*in.Category)
		}
		return nil
	})
	return v
}

// ApplyAdvanced replaces the whole criteria from the advanced panel and closes it.
func (c *Controller) ApplyAdvanced(ctx context.Context, in AdvancedInput) View {
	v, _ := c.dispatch(ctx, "advanced_filter", func() error {
		c.filters.Set(filter.Criteria{
			Search:   in.Search,
			Category: in.Category,
			MinPrice: filter.ParsePrice(in.MinPrice),
			MaxPrice: filter.ParsePrice(in.MaxPrice),
		})
		c.overlays.Advanced = false
		return nil
	})
	return v
}

func (c *Controller) ClearBasic(ctx context.Context) View {
	v, _ := c.dispatch(ctx, "clear_basic", func() error {
		c.filters.ClearBasic()
		return nil
	})
	return v
}

func (c *Controller) ClearAll(ctx context.Context) View {
	v, _ := c.dispatch(ctx, "clear_all", func() error {
		c.filters.ClearAll()
		return nil
	})
	return v
}

// ShowStore returns to the unfiltered product grid.
func (c *Controller) ShowStore(ctx context.Context) View {
	v, _ := c.dispatch(ctx, "show_store", func() error {
		c.filters.ClearAll()
		c.overlays = Overlays{}
		return nil
	})
	return v
}

func (c *Controller) Open(ctx context.Context, o Overlay) (View, error) {
	return c.dispatch(ctx, "open_"+string(o), func() error {
		return c.setOverlay(o, true)
	})
}

func (c *Controller) Close(ctx context.Context, o Overlay) (View, error) {
	return c.dispatch(ctx, "close_"+string(o), func() error {
		return c.setOverlay(o, false)
	})
}

// Escape closes every overlay and touches nothing else.
func (c *Controller) Escape(ctx context.Context) View {
	v, _ := c.dispatch(ctx, "escape", func() error {
		c.overlays = Overlays{}
		return nil
	})
	return v
}

func (c *Controller) setOverlay(o Overlay, open bool) error {
	switch o {
	case OverlayCart:
		c.overlays.Cart = open
	case OverlayAdvanced:
		c.overlays.Advanced = open
	case OverlaySettings:
		c.overlays.Settings = open
	default:
		return ErrUnknownOverlay
	}
	return nil
}

// AddToCart only resolves products while the catalog is ready.
func (c *Controller) AddToCart(ctx context.Context, productID int) View {
	v, _ := c.dispatch(ctx, "add_to_cart", func() error {
		if c.status != StatusReady {
			c.log.Debug("add to cart ignored: catalog not ready", zap.Int("product_id", productID))
			return nil
		}
		c.cart.AddItem(ctx, productID)
		return nil
	})
	return v
}

func (c *Controller) ChangeQuantity(ctx context.Context, productID, delta int) View {
	v, _ := c.dispatch(ctx, "change_quantity", func() error {
		c.cart.ChangeQuantity(ctx, productID, delta)
		return nil
	})
	return v
}

func (c *Controller) RemoveFromCart(ctx context.Context, productID int) View {
	v, _ := c.dispatch(ctx, "remove_from_cart", func() error {
		c.cart.RemoveItem(ctx, productID)
		return nil
	})
	return v
}

// Checkout with an empty cart is a silent no-op. A missing delivery profile opens
// the settings panel and returns cart.ErrProfileMissing.
func (c *Controller) Checkout(ctx context.Context) (View, error) {
	return c.dispatch(ctx, "checkout", func() error {
		err := c.cart.Checkout(ctx)
		switch {
		case err == nil:
			c.overlays.Cart = false
			return nil
		case errors.Is(err, cart.ErrEmptyCart):
			return nil
		case errors.Is(err, cart.ErrProfileMissing):
			c.overlays.Settings = true
			return err
		default:
			return err
		}
	})
}

func (c *Controller) SaveProfile(ctx context.Context, email, address string) (View, error) {
	return c.dispatch(ctx, "save_profile", func() error {
		return c.profile.Save(ctx, email, address)
	})
}

// Logout wipes all durable state and starts a fresh session.
func (c *Controller) Logout(ctx context.Context) View {
	v, _ := c.dispatch(ctx, "logout", func() error {
		c.profile.Logout(ctx)
		c.cart.Clear(ctx)
		c.filters.ClearAll()
		c.overlays = Overlays{}
		return nil
	})
	return v
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Settings reads the saved profile without opening the settings overlay.
func (c *Controller) Settings(ctx context.Context) SettingsView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settingsView(ctx)
}

func (c *Controller) VisibleProducts() []catalog.Product {
	return c.View().Products
}

func (c *Controller) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusReady {
		return []string{}
	}
	return c.catalog.Categories()
}

func (c *Controller) Cart() CartView {
	return c.View().Cart
}

func (c *Controller) CartCount() int {
	return c.View().Cart.Count
}

func (c *Controller) CartTotal() decimal.Decimal {
	return c.View().Cart.Total
}
