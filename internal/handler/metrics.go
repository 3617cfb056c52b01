package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wms_order",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of orders created, by resulting status",
		},
		[]string{"status"},
	)

	ordersDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wms_order",
			Subsystem: "orders",
			Name:      "deleted_total",
			Help:      "Total number of orders deleted",
		},
	)

	errorResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wms_order",
			Subsystem: "http",
			Name:      "error_responses_total",
			Help:      "Total number of error envelopes written, by status code",
		},
		[]string{"status"},
	)
)
