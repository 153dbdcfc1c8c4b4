package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/config"
)

// namespace prefixes every metric registered through this package.
const namespace = "wanctl"

// Setup starts the prometheus endpoint when it is enabled.
func Setup(conf config.Config) error {
	if !conf.Metrics.Prometheus.EndpointEnabled {
		return nil
	}

	log.WithFields(log.Fields{
		"bind": conf.Metrics.Prometheus.Bind,
	}).Info("metrics: starting prometheus metrics server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := http.Server{
		Handler:           mux,
		Addr:              conf.Metrics.Prometheus.Bind,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		log.WithError(err).WithField("bind", conf.Metrics.Prometheus.Bind).Error("metrics: prometheus metrics server error")
	}()

	return nil
}
