package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/config"
	"Storefront/internal/filter"
	"Storefront/internal/kvstore"
	"Storefront/internal/notify"
	"Storefront/internal/profile"
	"Storefront/internal/storefront"
	"Storefront/pkg/kit"
)

func main() {
	service := "storefront"
	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel).With(zap.String("env", cfg.Environment))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := kvstore.Open(ctx, cfg.StorageOptions())
	if err != nil {
		log.Fatal("open storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer func() { _ = kv.Close() }()
	log.Info("storage ready", zap.String("backend", cfg.StorageBackend))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	notices := notify.NewCenter()
	repo := catalog.NewRepository(
		catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout),
		log.Named("catalog"),
		reg,
	)
	profiles := &profile.Store{
		KV:        kv,
		Log:       log.Named("profile"),
		Notices:   notices,
		NoticeTTL: cfg.NoticeTTL,
	}
	carts := cart.NewManager(cart.Deps{
		Catalog:           repo,
		Store:             &cart.Store{KV: kv, Log: log.Named("cart")},
		Profiles:          profiles,
		Notices:           notices,
		Log:               log.Named("cart"),
		NoticeTTL:         cfg.NoticeTTL,
		CheckoutNoticeTTL: cfg.CheckoutNoticeTTL,
	})

	c := storefront.NewController(storefront.Deps{
		Catalog: repo,
		Filters: filter.NewEngine(),
		Cart:    carts,
		Profile: profiles,
		Notices: notices,
		Log:     log.Named("controller"),
	})
	c.Restore(ctx)

	go func() {
		if err := c.Load(ctx); err != nil {
			log.Warn("initial catalog load failed", zap.Error(err))
		}
	}()

	h := storefront.NewHandler(&storefront.Server{Controller: c, Storage: kv}, storefront.HTTPDeps{
		Log:               log,
		Service:           service,
		Registry:          reg,
		MetricsEnabled:    cfg.MetricsEnabled,
		MetricsToken:      cfg.MetricsToken,
		ReloadLimitPerMin: cfg.ReloadLimitPerMin,
	})

	if err := kit.RunHTTPServer(ctx, cfg.HTTPAddr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
