package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_requests_total", Help: "Signal exchanges attempted, by entry variant"},
		[]string{"variant"},
	)
	TransportFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_transport_failures_total", Help: "Failed exchanges, by transport stage"},
		[]string{"stage"},
	)
	ResponseBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bridge_response_bytes_total", Help: "Bytes of response bodies handed back to callers"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, TransportFailuresTotal, ResponseBytesTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
