package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
)

type LineItem struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

func (it LineItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

var (
	ErrPrecondition   = errors.New("checkout precondition failed")
	ErrEmptyCart      = fmt.Errorf("%w: cart is empty", ErrPrecondition)
	ErrProfileMissing = fmt.Errorf("%w: delivery profile not saved", ErrPrecondition)
)

type Catalog interface {
	Product(id int) (catalog.Product, bool)
}

type Profiles interface {
	Complete(ctx context.Context) bool
}

type Notifier interface {
	Notify(msg string, ttl time.Duration)
}

type Deps struct {
	Catalog  Catalog
	Store    *Store
	Profiles Profiles
	Notices  Notifier
	Log      *zap.Logger

	NoticeTTL         time.Duration
	CheckoutNoticeTTL time.Duration
}

// Manager owns the line items. Callers serialize access.
type Manager struct {
	deps  Deps
	log   *zap.Logger
	items []LineItem
}

func NewManager(deps Deps) *Manager {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{deps: deps, log: log, items: []LineItem{}}
}

// Restore replaces the in-memory cart with the persisted one.
func (m *Manager) Restore(ctx context.Context) {
	m.items = m.deps.Store.Load(ctx)
}

func (m *Manager) Items() []LineItem {
	return append([]LineItem{}, m.items...)
}

func (m *Manager) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range m.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (m *Manager) ItemCount() int {
	n := 0
	for _, it := range m.items {
		n += it.Quantity
	}
	return n
}

// AddItem adds one unit of a catalog product. Unknown ids are ignored.
func (m *Manager) AddItem(ctx context.Context, productID int) bool {
	p, ok := m.deps.Catalog.Product(productID)
	if !ok {
		m.log.Debug("add to cart ignored: unknown product", zap.Int("product_id", productID))
		return false
	}

	if i := m.index(productID); i >= 0 {
		m.items[i].Quantity++
	} else {
		m.items = append(m.items, LineItem{
			ID:       p.ID,
			Title:    p.Title,
			Price:    p.Price,
			Image:    p.Image,
			Quantity: 1,
		})
	}

	m.persist(ctx)
	m.notify("Added to cart", m.deps.NoticeTTL)
	return true
}

// ChangeQuantity applies delta; a line that drops to zero or below is removed.
// A delta that would overflow the quantity is ignored.
func (m *Manager) ChangeQuantity(ctx context.Context, productID, delta int) {
	i := m.index(productID)
	if i < 0 {
		return
	}
	if delta > 0 && m.items[i].Quantity > math.MaxInt-delta {
		m.log.Warn("quantity change ignored: overflow",
			zap.Int("product_id", productID),
			zap.Int("quantity", m.items[i].Quantity),
			zap.Int("delta", delta),
		)
		return
	}
	if m.items[i].Quantity+delta <= 0 {
		m.RemoveItem(ctx, productID)
		return
	}
	m.items[i].Quantity += delta
	m.persist(ctx)
}

func (m *Manager) RemoveItem(ctx context.Context, productID int) {
	i := m.index(productID)
	if i < 0 {
		return
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	m.persist(ctx)
}

// Checkout empties the cart when it has items and a delivery profile exists.
// On a precondition failure nothing changes.
func (m *Manager) Checkout(ctx context.Context) error {
	if len(m.items) == 0 {
		return ErrEmptyCart
	}
	if m.deps.Profiles == nil || !m.deps.Profiles.Complete(ctx) {
		return ErrProfileMissing
	}

	total := m.Total()
	count := m.ItemCount()

	m.items = []LineItem{}
	m.deps.Store.Clear(ctx)

	m.log.Info("checkout completed", zap.Int("items", count), zap.String("total", total.StringFixed(2)))
	m.notify(fmt.Sprintf("Purchase completed: %d items, total $%s", count, total.StringFixed(2)), m.deps.CheckoutNoticeTTL)
	return nil
}

// Clear drops the persisted record and empties the in-memory cart.
func (m *Manager) Clear(ctx context.Context) {
	m.deps.Store.Clear(ctx)
	m.items = []LineItem{}
}

func (m *Manager) index(productID int) int {
	for i, it := range m.items {
		if it.ID == productID {
			return i
		}
	}
	return -1
}

func (m *Manager) persist(ctx context.Context) {
	m.deps.Store.Save(ctx, m.items)
}

func (m *Manager) notify(msg string, ttl time.Duration) {
	if m.deps.Notices != nil {
		m.deps.Notices.Notify(msg, ttl)
	}
}
