// Package api exposes the offer engine over HTTP: the farm-facing feed and
// interaction endpoints, the partner conversion webhook, revenue reports
// and the public lead form.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/agrilink/offer-engine/internal/conversion"
	"github.com/agrilink/offer-engine/internal/domain"
	"github.com/agrilink/offer-engine/internal/interaction"
	"github.com/agrilink/offer-engine/internal/lead"
	"github.com/agrilink/offer-engine/internal/ratelimit"
	"github.com/agrilink/offer-engine/internal/revenue"
	"github.com/agrilink/offer-engine/internal/targeting"
)

// FarmSource resolves farm profiles for feed requests.
type FarmSource interface {
	Profile(ctx context.Context, farmID string) (*domain.FarmProfile, error)
}

// Handlers carries the wired services behind the HTTP surface.
type Handlers struct {
	engine       *targeting.Engine
	farms        FarmSource
	interactions *interaction.Service
	conversions  *conversion.Service
	revenue      *revenue.Service
	leads        *lead.Service
	leadLimiter  ratelimit.Limiter

	// webhookGate caps overall webhook throughput; past it, partners get a
	// retryable 503 and redeliver.
	webhookGate *rate.Limiter

	webhookTimeout time.Duration
	allowedOrigins []string
}

// Config holds handler tunables.
type Config struct {
	WebhookTimeout time.Duration
	WebhookRPS     float64
	WebhookBurst   int
	AllowedOrigins []string
}

// NewHandlers wires the HTTP layer.
func NewHandlers(
	engine *targeting.Engine,
	farms FarmSource,
	interactions *interaction.Service,
	conversions *conversion.Service,
	rev *revenue.Service,
	leads *lead.Service,
	leadLimiter ratelimit.Limiter,
	cfg Config,
) *Handlers {
	if cfg.WebhookTimeout <= 0 {
		cfg.WebhookTimeout = 10 * time.Second
	}
	if cfg.WebhookRPS <= 0 {
		cfg.WebhookRPS = 100
	}
	if cfg.WebhookBurst <= 0 {
		cfg.WebhookBurst = int(cfg.WebhookRPS)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"https://app.agrilink.io"}
	}
	return &Handlers{
		engine:         engine,
		farms:          farms,
		interactions:   interactions,
		conversions:    conversions,
		revenue:        rev,
		leads:          leads,
		leadLimiter:    leadLimiter,
		webhookGate:    rate.NewLimiter(rate.Limit(cfg.WebhookRPS), cfg.WebhookBurst),
		webhookTimeout: cfg.WebhookTimeout,
		allowedOrigins: cfg.AllowedOrigins,
	}
}

// Routes builds the full router.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/farms/{farmID}/offers", h.GetOfferFeed)
		r.Post("/farms/{farmID}/interactions", h.PostInteraction)
		r.Get("/partners/{partnerID}/revenue", h.GetRevenueReport)
		r.Post("/leads", h.PostLead)
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/partners/{partnerID}/conversions", h.PostConversion)
	})

	return r
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// realIP extracts the originating client address for rate limiting and
// audit fields. Proxy headers win over the socket address.
func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
