package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

const DefaultWebhookRate = "120-M"

type RouterConfig struct {
	CORSOrigins []string
	// WebhookRate uses limiter's formatted rate, e.g. "120-M".
	WebhookRate string
}

func NewRouter(handler *Handler, cfg RouterConfig, logger *zap.Logger) (http.Handler, error) {
	webhookLimit, err := newRateLimit(cfg.WebhookRate)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Use(RequestLogger(logger))
	handler.RegisterRoutes(r, webhookLimit)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return newCORS(cfg.CORSOrigins).Handler(r), nil
}

func newRateLimit(formatted string) (func(http.Handler) http.Handler, error) {
	if formatted == "" {
		formatted = DefaultWebhookRate
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("webhook rate %q: %w", formatted, err)
	}
	middleware := stdlib.NewMiddleware(limiter.New(memory.NewStore(), rate),
		stdlib.WithLimitReachedHandler(webhookLimitReached),
		stdlib.WithErrorHandler(webhookLimiterFailed))
	return middleware.Handler, nil
}

// The provider only understands 200, 401 and 500, and retries on 500, so a
// throttled delivery is answered with 500 instead of 429.
func webhookLimitReached(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusInternalServerError, errorBody("rate limit exceeded"))
}

func webhookLimiterFailed(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, http.StatusInternalServerError, errorBody("rate limiter: "+err.Error()))
}

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id", "X-Signature"},
	})
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
