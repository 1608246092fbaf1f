package platform

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_platform_requests_total",
			Help: "Backend API requests, labelled by method and status class or transport error kind.",
		},
		[]string{"method", "result"},
	)

	refreshAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_platform_token_refreshes_total",
			Help: "Access token refresh attempts.",
		},
	)

	refreshFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_platform_token_refresh_failures_total",
			Help: "Access token refresh attempts that failed and ended the session.",
		},
	)
)
