package utils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	XPAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finquest_xp_awarded_total",
		Help: "Total XP granted for lesson completions",
	})

	BadgesGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finquest_badges_granted_total",
		Help: "Badges granted, by badge code",
	}, []string{"code"})

	WalletTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finquest_wallet_transactions_total",
		Help: "Wallet transactions recorded, by type and category",
	}, []string{"type", "category"})

	WalletRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finquest_wallet_rejections_total",
		Help: "Debits rejected for insufficient balance",
	})

	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finquest_ai_requests_total",
		Help: "Calls to the AI provider, by kind and outcome",
	}, []string{"kind", "outcome"})
)

// MetricsHandler exposes the default prometheus registry on a fiber route.
func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
