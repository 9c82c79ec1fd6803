package storefront

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/filter"
	"Storefront/internal/kvstore"
	"Storefront/internal/notify"
	"Storefront/internal/profile"
)

type stubFetcher struct {
	products []catalog.Product
	err      error
}

func (s *stubFetcher) FetchProducts(context.Context) ([]catalog.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]catalog.Product(nil), s.products...), nil
}

func sampleProducts() []catalog.Product {
	return []catalog.Product{
		{ID: 1, Title: "Silver Ring", Price: decimal.RequireFromString("15.00"), Description: "sterling", Category: "jewelery", Image: "ring.jpg"},
		{ID: 2, Title: "Rain Jacket", Price: decimal.RequireFromString("55.99"), Description: "waterproof shell", Category: "clothing", Image: "jacket.jpg"},
		{ID: 3, Title: "Cotton Tee", Price: decimal.RequireFromString("9.50"), Description: "plain shirt", Category: "clothing", Image: "tee.jpg"},
		{ID: 4, Title: "SSD 1TB", Price: decimal.RequireFromString("109.00"), Description: "fast storage", Category: "electronics", Image: "ssd.jpg"},
	}
}

type harness struct {
	c       *Controller
	kv      *kvstore.MemStore
	fetch   *stubFetcher
	notices *notify.Center
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	kv := kvstore.NewMemStore()
	notices := notify.NewCenter()
	fetch := &stubFetcher{products: sampleProducts()}
	log := zap.NewNop()

	repo := catalog.NewRepository(fetch, log, nil)
	profiles := &profile.Store{KV: kv, Log: log, Notices: notices, NoticeTTL: time.Minute}
	mgr := cart.NewManager(cart.Deps{
		Catalog:           repo,
		Store:             &cart.Store{KV: kv, Log: log},
		Profiles:          profiles,
		Notices:           notices,
		Log:               log,
		NoticeTTL:         time.Minute,
		CheckoutNoticeTTL: time.Minute,
	})

	c := NewController(Deps{
		Catalog: repo,
		Filters: filter.NewEngine(),
		Cart:    mgr,
		Profile: profiles,
		Notices: notices,
		Log:     log,
	})
	return &harness{c: c, kv: kv, fetch: fetch, notices: notices}
}

func (h *harness) ready(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.Load(context.Background()))
}

func ids(products []catalog.Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func messages(v View) []string {
	out := make([]string, 0, len(v.Notifications))
	for _, n := range v.Notifications {
		out = append(out, n.Message)
	}
	return out
}

func str(s string) *string { return &s }

func TestLoad_ReadyShowsAllProducts(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, StatusLoading, h.c.Status())
	assert.Empty(t, h.c.VisibleProducts())

	h.ready(t)

	v := h.c.View()
	assert.Equal(t, StatusReady, v.Status)
	assert.Equal(t, []int{1, 2, 3, 4}, ids(v.Products))
	assert.Equal(t, "Showing 4 products", v.Results)
	assert.Equal(t, []CategoryOption{
		{Value: "jewelery", Label: "Jewelery"},
		{Value: "clothing", Label: "Clothing"},
		{Value: "electronics", Label: "Electronics"},
	}, v.Categories)
	assert.Equal(t, []string{"jewelery", "clothing", "electronics"}, h.c.Categories())
}

func TestLoad_FailureIsTerminalUntilReload(t *testing.T) {
	h := newHarness(t)
	h.fetch.err = catalog.ErrFetchFailure

	err := h.c.Load(context.Background())
	require.ErrorIs(t, err, catalog.ErrFetchFailure)

	v := h.c.View()
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, "Could not load products", v.Error)
	assert.Empty(t, v.Products)
	assert.Empty(t, v.Categories)
	assert.Empty(t, h.c.Categories())

	// cart and filters stay usable
	v = h.c.UpdateBasic(context.Background(), BasicInput{Search: str("ring")})
	assert.Equal(t, "ring", v.Basic.Search)
	v = h.c.AddToCart(context.Background(), 1)
	assert.True(t, v.Cart.Empty)

	h.fetch.err = nil
	h.ready(t)
	v = h.c.View()
	assert.Equal(t, StatusReady, v.Status)
	assert.Empty(t, v.Error)
	assert.Equal(t, []int{1}, ids(v.Products))
}

// gatedFetcher blocks each fetch until release receives the outcome.
type gatedFetcher struct {
	started chan struct{}
	release chan error
}

func (g *gatedFetcher) FetchProducts(context.Context) ([]catalog.Product, error) {
	g.started <- struct{}{}
	if err := <-g.release; err != nil {
		return nil, err
	}
	return sampleProducts(), nil
}

func TestLoad_ReloadInstallsOutcomeWithStatus(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemStore()
	gate := &gatedFetcher{started: make(chan struct{}), release: make(chan error)}
	repo := catalog.NewRepository(gate, nil, nil)
	profiles := &profile.Store{KV: kv}
	c := NewController(Deps{
		Catalog: repo,
		Filters: filter.NewEngine(),
		Cart:    cart.NewManager(cart.Deps{Catalog: repo, Store: &cart.Store{KV: kv}, Profiles: profiles}),
		Profile: profiles,
	})

	load := func() <-chan error {
		done := make(chan error, 1)
		go func() { done <- c.Load(ctx) }()
		<-gate.started
		return done
	}

	done := load()
	v := c.AddToCart(ctx, 1)
	assert.Equal(t, StatusLoading, v.Status)
	assert.True(t, v.Cart.Empty)
	gate.release <- nil
	require.NoError(t, <-done)

	done = load()
	v = c.View()
	assert.Equal(t, StatusLoading, v.Status)
	assert.Empty(t, v.Products)
	assert.True(t, repo.Loaded())
	v = c.AddToCart(ctx, 2)
	assert.True(t, v.Cart.Empty)

	gate.release <- catalog.ErrFetchFailure
	require.ErrorIs(t, <-done, catalog.ErrFetchFailure)

	v = c.View()
	assert.Equal(t, StatusFailed, v.Status)
	assert.False(t, repo.Loaded())
	assert.Empty(t, c.Categories())
}

func TestUpdateBasic_MirrorsIntoAdvancedSurface(t *testing.T) {
	h := newHarness(t)
	h.ready(t)
	ctx := context.Background()

	v := h.c.UpdateBasic(ctx, BasicInput{Search: str("SHIRT")})
	assert.Equal(t, []int{3}, ids(v.Products))
	assert.Equal(t, "SHIRT", v.Basic.Search)
	assert.Equal(t, "SHIRT", v.Advanced.Search)
	assert.Equal(t, "Showing 1 of 4 products", v.Results)

	v = h.c.UpdateBasic(ctx, BasicInput{Search: str(""), Category: str("clothing")})
	assert.Equal(t, []int{2, 3}, ids(v.Products))
	assert.Equal(t, "clothing", v.Advanced.Category)
}

func TestApplyAdvanced_SyncsBasicAndClosesPanel(t *testing.T) {
	h := newHarness(t)
	h.ready(t)
	ctx := context.Background()

	_, err := h.c.Open(ctx, OverlayAdvanced)
	require.NoError(t, err)

	v := h.c.ApplyAdvanced(ctx, AdvancedInput{
		Search:   "",
		Category: "clothing",
		MinPrice: "10",
		MaxPrice: "abc",
	})

	assert.False(t, v.Overlays.Advanced)
	assert.Equal(t, []int{2}, ids(v.Products))
	assert.Equal(t, "clothing", v.Basic.Category)
	assert.Equal(t, "10", v.Advanced.MinPrice)
	assert.Empty(t, v.Advanced.MaxPrice)
}

func TestClearBasic_KeepsPriceBounds(t *testing.T) {
	h := newHarness(t)
	h.ready(t)
	ctx := context.Background()

	h.c.ApplyAdvanced(ctx, AdvancedInput{Search: "s", Category: "clothing", MinPrice: "20", MaxPrice: "100"})

	v := h.c.ClearBasic(ctx)
	assert.Empty(t, v.Basic.Search)
	assert.Empty(t, v.Basic.Category)
	assert.Equal(t, "20", v.Advanced.MinPrice)
	assert.Equal(t, "100", v.Advanced.MaxPrice)
	assert.Equal(t, []int{2}, ids(v.Products))

	v = h.c.ClearAll(ctx)
	assert.Empty(t, v.Advanced.MinPrice)
	assert.Empty(t, v.Advanced.MaxPrice)
	assert.Equal(t, []int{1, 2, 3, 4}, ids(v.Products))
}

func TestShowStore_ResetsFiltersAndOverlays(t *testing.T) {
	h := newHarness(t)
	h.ready(t)
	ctx := context.Background()

	h.c.UpdateBasic(ctx, BasicInput{Category: str("electronics")})
	_, err := h.c.Open(ctx, OverlayCart)
	require.NoError(t, err)

	v := h.c.ShowStore(ctx)
	assert.Equal(t, Overlays{}, v.Overlays)
	assert.Len(t, v.Products, 4)
}

func TestOverlays_OpenCloseEscape(t *testing.T) {
	h := newHarness(t)
	h.ready(t)
	ctx := context.Background()

	_, err := h.c.Open(ctx, OverlayCart)
	require.NoError(t, err)
	v, err := h.c.Open(ctx, OverlaySettings)
	require.NoError(t, err)
	assert.True(t, v.Overlays.Cart)
	assert.True(t, v.Overlays.Settings)
	require.NotNil(t, v.Settings)
	assert.Equal(t, profile.GuestName, v.Settings.Username)

	v, err = h.c.Close(ctx, OverlaySettings)
	require.NoError(t, err)
	assert.False(t, v.Overlays.Settings)
	assert.Nil(t, v.Settings)

	_, err = h.c.Open(ctx, Overlay("wishlist"))
	assert.ErrorIs(t, err, ErrUnknownOverlay)

	h.c.UpdateBasic(ctx, BasicInput{Search: str("ring")})
	v = h.c.Escape(ctx)
	assert.Equal(t, Overlays{}, v.Overlays)
	assert.Equal(t, "ring", v.Basic.Search)
}

func TestCart_BadgeAndTotalsFollowEvents(t *testing.T) {
	h := newHarness(t)
	h.ready(t)
	ctx := context.Background()

	h.c.AddToCart(ctx, 3)
	h.c.AddToCart(ctx, 3)
	v := h.c.AddToCart(ctx, 1)

	assert.Equal(t, 3, v.Cart.Count)
	assert.True(t, v.Cart.Total.Equal(decimal.RequireFromString("34.00")))
	require.Len(t, v.Cart.Items, 2)
	assert.True(t, v.Cart.Items[0].Subtotal.Equal(decimal.RequireFromString("19")))
	assert.Contains(t, messages(v), "Added to cart")

	v = h.c.ChangeQuantity(ctx, 3, -2)
	require.Len(t, v.Cart.Items, 1)
	assert.Equal(t, 1, v.Cart.Items[0].ID)

	v = h.c.RemoveFromCart(ctx, 1)
	assert.True(t, v.Cart.Empty)
	assert.Equal(t, 0, h.c.CartCount())
	assert.True(t, h.c.CartTotal().IsZero())
}

func TestAddToCart_UnknownProductIgnored(t *testing.T) {
	h := newHarness(t)
	h.ready(t)

	v := h.c.AddToCart(context.Background(), 99)
	assert.True(t, v.Cart.Empty)
	assert.Empty(t, v.Notifications)
}

func TestCheckout_EmptyCartIsNoOp(t *testing.T) {
	h := newHarness(t)
	h.ready(t)

	v, err := h.c.Checkout(context.Background())
	require.NoError(t, err)
	assert.False(t, v.Overlays.Settings)
	assert.Empty(t, v.Notifications)
}

func TestCheckout_WithoutProfileOpensSettings(t *testing.T) {
	h := newHarness(t)
	h.ready(t)
	ctx := context.Background()

	h.c.AddToCart(ctx, 2)
	_, err := h.c.Open(ctx, OverlayCart)
	require.NoError(t, err)

	v, err := h.c.Checkout(ctx)
	require.ErrorIs(t, err, cart.ErrProfileMissing)
	assert.True(t, v.Overlays.Settings)
	assert.True(t, v.Overlays.Cart)
	assert.Equal(t, 1, v.Cart.Count)
}

func TestCheckout_Succeeds(t *testing.T) {
	h := newHarness(t)
	h.ready(t)
	ctx := context.Background()

	_, err := h.c.SaveProfile(ctx, " ana@example.com ", "1 Main St")
	require.NoError(t, err)

	h.c.AddToCart(ctx, 2)
	h.c.AddToCart(ctx, 2)
	_, err = h.c.Open(ctx, OverlayCart)
	require.NoError(t, err)

	v, err := h.c.Checkout(ctx)
	require.NoError(t, err)
	assert.True(t, v.Cart.Empty)
	assert.False(t, v.Overlays.Cart)
	assert.Contains(t, messages(v), "Purchase completed: 2 items, total $111.98")

	_, err = h.kv.Get(ctx, cart.StorageKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestSaveProfile_ValidationLeavesStorageUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.c.SaveProfile(ctx, "ana@example.com", "   ")
	var ve *profile.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"address"}, ve.Missing)

	_, err = h.kv.Get(ctx, profile.KeyEmail)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestSettingsView_ShowsSavedProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.kv.Set(ctx, profile.KeyUsername, "ana"))

	_, err := h.c.SaveProfile(ctx, "ana@example.com", "1 Main St")
	require.NoError(t, err)

	v, err := h.c.Open(ctx, OverlaySettings)
	require.NoError(t, err)
	require.NotNil(t, v.Settings)
	assert.Equal(t, SettingsView{Username: "ana", Email: "ana@example.com", Address: "1 Main St"}, *v.Settings)
	assert.Contains(t, messages(v), "Details saved")
}

func TestLogout_WipesEverything(t *testing.T) {
	h := newHarness(t)
	h.ready(t)
	ctx := context.Background()

	_, err := h.c.SaveProfile(ctx, "ana@example.com", "1 Main St")
	require.NoError(t, err)
	h.c.AddToCart(ctx, 1)
	h.c.UpdateBasic(ctx, BasicInput{Search: str("ring")})
	_, err = h.c.Open(ctx, OverlaySettings)
	require.NoError(t, err)

	v := h.c.Logout(ctx)
	assert.True(t, v.Cart.Empty)
	assert.Equal(t, Overlays{}, v.Overlays)
	assert.Empty(t, v.Basic.Search)
	assert.Len(t, v.Products, 4)

	for _, key := range []string{profile.KeyEmail, profile.KeyAddress, cart.StorageKey} {
		_, err := h.kv.Get(ctx, key)
		assert.ErrorIs(t, err, kvstore.ErrNotFound, key)
	}

	v, err = h.c.Checkout(ctx)
	require.NoError(t, err)
	assert.True(t, v.Cart.Empty)
}

func TestRestore_BringsBackPersistedCart(t *testing.T) {
	h := newHarness(t)
	h.ready(t)
	ctx := context.Background()

	h.c.AddToCart(ctx, 4)

	mgr := cart.NewManager(cart.Deps{Store: &cart.Store{KV: h.kv}})
	c := NewController(Deps{
		Catalog: catalog.NewRepository(h.fetch, nil, nil),
		Filters: filter.NewEngine(),
		Cart:    mgr,
		Profile: &profile.Store{KV: h.kv},
	})

	v := c.Restore(ctx)
	assert.Equal(t, StatusLoading, v.Status)
	require.Len(t, v.Cart.Items, 1)
	assert.Equal(t, "SSD 1TB", v.Cart.Items[0].Title)
}
