// Package metrics holds the Prometheus collectors exposed when the explorer is started with monitoring enabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "solview"

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by route and status code.",
	}, []string{"route", "code"})

	rpcDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "Duration of RPC calls to the network.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "method", "result"})

	connSwitches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connection_switches_total",
		Help:      "Times the active connection was replaced, by the network it was bound to.",
	}, []string{"network"})
)

func init() {
	prometheus.MustRegister(httpRequests, rpcDuration, connSwitches)
}

// Handler returns the http handler serving the metrics API.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRPC records the duration of an RPC call started at start.
func ObserveRPC(network, method string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	rpcDuration.WithLabelValues(network, method, result).Observe(time.Since(start).Seconds())
}

// ConnectionSwitched counts a new active connection bound to network.
func ConnectionSwitched(network string) {
	connSwitches.WithLabelValues(network).Inc()
}

// Request counts a served request.
func Request(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
