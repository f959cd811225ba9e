package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/agrilink/offer-engine/internal/api"
	"github.com/agrilink/offer-engine/internal/config"
	"github.com/agrilink/offer-engine/internal/conversion"
	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/events"
	"github.com/agrilink/offer-engine/internal/interaction"
	"github.com/agrilink/offer-engine/internal/kvstore"
	"github.com/agrilink/offer-engine/internal/lead"
	"github.com/agrilink/offer-engine/internal/pkg/distlock"
	"github.com/agrilink/offer-engine/internal/pkg/logger"
	"github.com/agrilink/offer-engine/internal/ratelimit"
	"github.com/agrilink/offer-engine/internal/repository/postgres"
	"github.com/agrilink/offer-engine/internal/revenue"
	"github.com/agrilink/offer-engine/internal/targeting"
	"github.com/agrilink/offer-engine/internal/worker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to in-process stores", "error", err)
			redisClient = nil
		}
	}

	// Dedupe store and lead limiter prefer Redis so state is shared
	// across instances; without it they degrade to per-instance memory.
	var dedupe kvstore.Store
	var leadLimiter ratelimit.Limiter
	if redisClient != nil {
		dedupe = kvstore.NewRedisStore(redisClient, "offers")
		leadLimiter = ratelimit.NewRedisLimiter(redisClient, "leads", cfg.RateLimit.LeadLimit, cfg.RateLimit.Window())
	} else {
		dedupe = kvstore.NewMemoryStore()
		leadLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.LeadLimit, cfg.RateLimit.Window())
	}

	bus := events.NewBus(1024)
	defer bus.Close()
	subscribeAuditLog(bus)

	offerRepo := postgres.NewOfferRepo(db)
	farmRepo := postgres.NewFarmRepo(db)
	interactionRepo := postgres.NewInteractionRepo(db)
	conversionRepo := postgres.NewConversionRepo(db)
	paymentRepo := postgres.NewPaymentRepo(db)
	leadRepo := postgres.NewLeadRepo(db)

	engine := targeting.NewEngine(offerRepo)
	interactionSvc := interaction.NewService(interactionRepo, dedupe, bus, cfg.Interactions.DedupeWindow())
	conversionSvc := conversion.NewService(conversionRepo, interactionSvc, targeting.NewResolver(offerRepo), bus)
	revenueSvc := revenue.NewService(paymentRepo, pricingTable(cfg), bus)
	leadSvc := lead.NewService(leadRepo, bus)

	handlers := api.NewHandlers(engine, farmRepo, interactionSvc, conversionSvc, revenueSvc, leadSvc, leadLimiter, api.Config{
		WebhookTimeout: cfg.Webhooks.Timeout(),
		WebhookRPS:     cfg.Webhooks.MaxRPS,
		WebhookBurst:   cfg.Webhooks.Burst,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lockFactory := func(key string) distlock.DistLock {
		return distlock.NewLock(redisClient, db, key, 5*time.Minute)
	}
	go worker.NewRevenueJob(paymentRepo, revenueSvc, lockFactory, cfg.Workers.RevenueInterval()).Start(ctx)
	go worker.NewExpirySweep(offerRepo, cfg.Workers.SweepInterval()).Start(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func pricingTable(cfg *config.Config) revenue.PricingTable {
	table := revenue.PricingTable{
		CPC:      cfg.Pricing.CPC,
		CPA:      cfg.Pricing.CPA,
		PerOffer: make(map[string]revenue.OfferPricing, len(cfg.Pricing.PerOffer)),
	}
	for offerID, p := range cfg.Pricing.PerOffer {
		override := revenue.OfferPricing{}
		if p.CPC != 0 {
			cpc := p.CPC
			override.CPC = &cpc
		}
		if p.CPA != 0 {
			cpa := p.CPA
			override.CPA = &cpa
		}
		table.PerOffer[offerID] = override
	}
	return table
}

// subscribeAuditLog wires the operational log onto domain events. Parked
// conversions in particular need a trail someone can reconcile from.
func subscribeAuditLog(bus *events.Bus) {
	bus.Subscribe(domain.ConversionParked{}.Name(), func(e events.Event) {
		evt := e.(domain.ConversionParked)
		logger.Warn("conversion parked for reconciliation",
			"event_id", evt.Event.ID,
			"partner_id", evt.Event.PartnerID,
			"offer_id", evt.Event.OfferID,
			"reason", evt.Event.ParkReason)
	})
	bus.Subscribe(domain.PaymentComputed{}.Name(), func(e events.Event) {
		evt := e.(domain.PaymentComputed)
		logger.Info("payment row updated",
			"partner_id", evt.Payment.PartnerID,
			"period", evt.Payment.Period().Label(),
			"amount", evt.Payment.Amount)
	})
	bus.Subscribe(domain.LeadSubmitted{}.Name(), func(e events.Event) {
		evt := e.(domain.LeadSubmitted)
		logger.Info("lead queued for partner pipeline",
			"lead_id", evt.Lead.ID, "email", evt.Lead.Email)
	})
}
