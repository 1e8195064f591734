package commands

import (
	"context"
	"net/http"

	"github.com/oakmere/magickcache/internal/logger"
	"github.com/oakmere/magickcache/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// enableMetrics turns on pkg/metrics and serves the registry over
// /metrics on a background listener (spec §6 ambient stack; the
// engine's metrics are otherwise collected but never exposed). The
// listen address follows config's metrics.listen when set.
func enableMetrics() {
	reg := metrics.Enable()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	listen := "127.0.0.1:9090"
	if cfg != nil && cfg.Metrics.Listen != "" {
		listen = cfg.Metrics.Listen
	}

	go func() {
		if err := http.ListenAndServe(listen, mux); err != nil {
			logger.From(context.Background()).Warn("metrics server stopped", "error", err)
		}
	}()
}
