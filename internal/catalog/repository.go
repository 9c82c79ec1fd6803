package catalog

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Fetcher interface {
	FetchProducts(ctx context.Context) ([]Product, error)
}

// Repository holds the last successfully fetched catalog. It is read-only between loads.
type Repository struct {
	src     Fetcher
	log     *zap.Logger
	fetches *prometheus.CounterVec

	mu         sync.RWMutex
	loaded     bool
	products   []Product
	byID       map[int]int
	categories []string
}

func NewRepository(src Fetcher, log *zap.Logger, reg prometheus.Registerer) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Repository{src: src, log: log}
	if reg != nil {
		r.fetches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_fetch_total",
				Help: "Catalog fetch attempts by result",
			},
			[]string{"result"},
		)
		reg.MustRegister(r.fetches)
	}
	return r
}

// Load fetches the catalog once and installs the outcome. A failed load leaves the
// repository without products; there is no retry.
func (r *Repository) Load(ctx context.Context) ([]Product, []string, error) {
	products, err := r.Fetch(ctx)
	if err != nil {
		r.Reset()
		return nil, nil, err
	}
	r.Install(products)
	return r.Products(), r.Categories(), nil
}

// Fetch reads the catalog from the source without touching the held products.
func (r *Repository) Fetch(ctx context.Context) ([]Product, error) {
	products, err := r.src.FetchProducts(ctx)
	if err != nil {
		r.count("error")
		r.log.Error("catalog load failed", zap.Error(err))
		return nil, err
	}
	r.count("ok")
	return products, nil
}

// Install replaces the held catalog with products.
func (r *Repository) Install(products []Product) {
	byID := make(map[int]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}
	categories := Categories(products)

	r.mu.Lock()
	r.loaded = true
	r.products = products
	r.byID = byID
	r.categories = categories
	r.mu.Unlock()

	r.log.Info("catalog loaded",
		zap.Int("products", len(products)),
		zap.Int("categories", len(categories)),
	)
}

// Reset drops the held catalog.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.products = nil
	r.byID = nil
	r.categories = nil
}

func (r *Repository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

func (r *Repository) Products() []Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Product(nil), r.products...)
}

func (r *Repository) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.categories...)
}

func (r *Repository) Product(id int) (Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return Product{}, false
	}
	return r.products[i], true
}

func (r *Repository) count(result string) {
	if r.fetches != nil {
		r.fetches.WithLabelValues(result).Inc()
	}
}
