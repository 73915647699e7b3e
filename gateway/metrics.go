package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discograf",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Outbound API requests by method and response status.",
	}, []string{"method", "status"})

	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discograf",
		Subsystem: "gateway",
		Name:      "token_refresh_total",
		Help:      "Token refresh attempts by result.",
	}, []string{"result"})
)
