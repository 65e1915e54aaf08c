package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omarkhaled/stayhub-backend/api/controllers"
	webhookcontrollers "github.com/omarkhaled/stayhub-backend/api/controllers/webhooks"
	"github.com/omarkhaled/stayhub-backend/api/middleware"
	"github.com/omarkhaled/stayhub-backend/internal/payments"
	"github.com/omarkhaled/stayhub-backend/internal/payouts"
	"github.com/omarkhaled/stayhub-backend/internal/webhookguard"
	"github.com/omarkhaled/stayhub-backend/pkg/config"
	"github.com/omarkhaled/stayhub-backend/pkg/db"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
	"github.com/omarkhaled/stayhub-backend/pkg/paymob"
	"github.com/omarkhaled/stayhub-backend/pkg/redis"
)

// NewRouter wires every HTTP surface: health probes, metrics, the two
// provider webhooks and the authenticated host/guest API.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	paymobClient *paymob.Client,
	paymentService payments.Service,
	payoutService payouts.Service,
	guard *webhookguard.Guard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var cachePinger redis.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cachePinger, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Webhooks authenticate by signature, not bearer token.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/paymob/transactions", webhookcontrollers.PaymentWebhook(paymentService, paymobClient, guard, logg))
		r.Post("/paymob/disbursements", webhookcontrollers.DisbursementWebhook(payoutService, paymobClient, guard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/checkout", controllers.CreateCheckout(paymentService, logg))

		r.Get("/wallet", controllers.WalletSummary(payoutService, logg))

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", controllers.CreatePayout(payoutService, logg))
			r.Get("/", controllers.ListPayouts(payoutService, logg))
			r.Get("/{payoutID}", controllers.GetPayout(payoutService, logg))
		})
	})

	return r
}
