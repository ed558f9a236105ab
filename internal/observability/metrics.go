// Package observability holds the Prometheus metrics of the formulatree servers.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace prefixes every metric (formulatree_...).
const namespace = "formulatree"

var (
	// HTTPRequestDuration measures HTTP handling latency per route pattern.
	// Metric: formulatree_http_handling_seconds
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "handling_seconds",
		Help:      "Time taken to handle HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// HTTPRequestsTotal counts HTTP requests by route pattern and status.
	// Metric: formulatree_http_requests_total
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests",
	}, []string{"method", "route", "code"})

	// GRPCRequestDuration measures unary call latency.
	// Metric: formulatree_grpc_handling_seconds
	GRPCRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "grpc",
		Name:      "handling_seconds",
		Help:      "Time taken to handle gRPC requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "code"})

	// GRPCRequestsTotal counts unary calls by method and status code.
	// Metric: formulatree_grpc_requests_total
	GRPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "grpc",
		Name:      "requests_total",
		Help:      "Total gRPC requests",
	}, []string{"method", "code"})
)
