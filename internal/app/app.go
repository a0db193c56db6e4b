// Package app wires configuration, storage, domain services and the HTTP
// surface into a running server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/ucp-flower-shop/internal/catalog"
	"github.com/xenking/ucp-flower-shop/internal/domain/discount"
	"github.com/xenking/ucp-flower-shop/internal/domain/order"
	"github.com/xenking/ucp-flower-shop/internal/domain/product"
	"github.com/xenking/ucp-flower-shop/internal/handler"
	"github.com/xenking/ucp-flower-shop/internal/memstore"
	"github.com/xenking/ucp-flower-shop/internal/repository"
	"github.com/xenking/ucp-flower-shop/pkg/health"
	"github.com/xenking/ucp-flower-shop/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	shippingRate, err := cfg.ShippingRateDecimal()
	if err != nil {
		return err
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Product catalog: Postgres when a database is configured, the builtin
	// flower list otherwise. Completed orders are archived to Postgres in
	// the same mode.
	var (
		products product.Repository
		orders   order.Store
	)
	checkouts := memstore.NewCheckoutStore()
	orderStore := memstore.NewOrderStore()
	orders = orderStore

	if cfg.DatabaseURL != "" {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := repository.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})

		products = repository.NewProductRepository(pool)
		orders = repository.NewArchivingStore(orderStore, pool)
		lg.Info("Using PostgreSQL catalog")
	} else {
		products = catalog.NewBuiltin()
		lg.Info("Using builtin catalog")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Discount codes: builtin rules, extended (or overridden) by a rules
	// file when one is configured.
	discounts := discount.DefaultCatalog()
	if cfg.DiscountRulesFile != "" {
		rules, err := discount.LoadRules(cfg.DiscountRulesFile)
		if err != nil {
			return errors.Wrap(err, "load discount rules")
		}
		discounts = discount.NewCatalog(append(discount.DefaultRules(), rules...)...)
		lg.Info("Loaded discount rules",
			zap.String("file", cfg.DiscountRulesFile),
			zap.Int("rules", len(rules)))
	}

	service := order.NewService(products, discounts, checkouts, orders, shippingRate)

	h := handler.New(handler.Config{
		APIKeys:      cfg.APIKeys,
		APIKeyPepper: cfg.APIKeyPepper,
	}, products, service, discounts)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.HandleFunc("/info", h.Info)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "api_key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("flower-shop-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
