package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	cartapp "github.com/storefront/commerce/internal/cart/app"
	cartadapter "github.com/storefront/commerce/internal/cart/infra/adapter"
	cartmemory "github.com/storefront/commerce/internal/cart/infra/memory"
	cartpostgres "github.com/storefront/commerce/internal/cart/infra/postgres"
	cartredis "github.com/storefront/commerce/internal/cart/infra/redis"
	catalogapp "github.com/storefront/commerce/internal/catalog/app"
	catalogmemory "github.com/storefront/commerce/internal/catalog/infra/memory"
	catalogpostgres "github.com/storefront/commerce/internal/catalog/infra/postgres"
	couponapp "github.com/storefront/commerce/internal/coupon/app"
	couponmemory "github.com/storefront/commerce/internal/coupon/infra/memory"
	couponpostgres "github.com/storefront/commerce/internal/coupon/infra/postgres"
	"github.com/storefront/commerce/internal/httpapi"
	inventoryapp "github.com/storefront/commerce/internal/inventory/app"
	inventorypostgres "github.com/storefront/commerce/internal/inventory/infra/postgres"
	orderapp "github.com/storefront/commerce/internal/order/app"
	orderadapter "github.com/storefront/commerce/internal/order/infra/adapter"
	orderkafka "github.com/storefront/commerce/internal/order/infra/kafka"
	ordermemory "github.com/storefront/commerce/internal/order/infra/memory"
	orderpostgres "github.com/storefront/commerce/internal/order/infra/postgres"
	"github.com/storefront/commerce/internal/pricing"
	"github.com/storefront/commerce/pkg/config"
	"github.com/storefront/commerce/pkg/logger"
	"github.com/storefront/commerce/pkg/postgres"
	"github.com/storefront/commerce/pkg/shutdown"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service:   "commerce-api",
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		AddSource: true,
	})

	root := context.Background()
	ctx, cancel := shutdown.WithSignals(root)
	defer cancel()

	pricingCfg, err := pricing.ConfigFromStrings(cfg.FreeShippingOver, cfg.ShippingFee, cfg.TaxRate)
	if err != nil {
		log.Error("invalid pricing config", slog.Any("err", err))
		os.Exit(1)
	}
	pricer := pricing.NewCalculator(pricingCfg)

	var (
		productRepo   catalogapp.ProductRepo
		inventoryRepo inventoryapp.Store
		couponRepo    couponapp.CouponRepo
		cartRepo      cartapp.CartRepo
		orderRepo     orderapp.OrderRepo
	)

	var db *sql.DB
	if cfg.Store == "postgres" || cfg.CartStore == "postgres" {
		var err error
		db, err = postgres.Open(ctx, postgres.Config{
			Host:    cfg.PGHost,
			Port:    cfg.PGPort,
			User:    cfg.PGUser,
			Pass:    cfg.PGPass,
			DB:      cfg.PGDB,
			SSLMode: cfg.PGSSLMode,
		})
		if err != nil {
			log.Error("postgres connect failed", slog.Any("err", err))
			os.Exit(1)
		}
		defer db.Close()
	}

	switch cfg.Store {
	case "postgres":
		productRepo = catalogpostgres.NewProductRepo(db)
		inventoryRepo = inventorypostgres.NewStore(db)
		couponRepo = couponpostgres.NewCouponRepo(db)
		orderRepo = orderpostgres.NewOrderRepo(db)
	case "memory":
		// Memory mode keeps stock and catalog in one store so reserve
		// stays atomic with the product record.
		store := catalogmemory.NewProductStore()
		productRepo = store
		inventoryRepo = store
		couponRepo = couponmemory.NewCouponRepo()
		orderRepo = ordermemory.NewOrderRepo()
	default:
		log.Error("unknown store backend", slog.String("store", cfg.Store))
		os.Exit(1)
	}

	switch cfg.CartStore {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis connect failed", slog.Any("err", err))
			os.Exit(1)
		}
		defer rdb.Close()
		cartRepo = cartredis.NewCartRepo(rdb)
	case "postgres":
		cartRepo = cartpostgres.NewCartRepo(db)
	case "memory":
		cartRepo = cartmemory.NewCartRepo()
	default:
		log.Error("unknown cart store backend", slog.String("cart_store", cfg.CartStore))
		os.Exit(1)
	}

	var events orderapp.Events = orderapp.NopEvents{}
	if len(cfg.KafkaBrokers) > 0 {
		pub := orderkafka.NewPublisher(cfg.KafkaBrokers)
		defer pub.Close()
		events = pub
	}

	catalogSvc := catalogapp.NewService(productRepo)
	inventorySvc := inventoryapp.NewService(inventoryRepo)
	couponSvc := couponapp.NewService(couponRepo)
	cartSvc := cartapp.NewService(cartRepo, cartadapter.NewCatalogServiceReader(catalogSvc), couponSvc, pricer)
	orderSvc := orderapp.NewService(
		orderRepo,
		orderadapter.NewCartServiceReader(cartSvc),
		orderadapter.NewCatalogServiceReader(catalogSvc),
		inventorySvc,
		couponSvc,
		events,
		pricer,
		log,
	)

	api := httpapi.NewServer(
		httpapi.NewCatalogHandlers(catalogSvc),
		httpapi.NewCouponHandlers(couponSvc),
		httpapi.NewCartHandlers(cartSvc),
		httpapi.NewOrderHandlers(orderSvc),
		log,
	)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting",
			slog.String("addr", addr),
			slog.String("store", cfg.Store),
			slog.String("cart_store", cfg.CartStore))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", slog.Any("err", err))
	}

	wg.Wait()
	log.Info("bye")
}
