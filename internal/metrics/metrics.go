package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/bnema/groupchat-cli/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace       = "gchat"
	shutdownTimeout = 2 * time.Second
)

var _ ports.SessionMetrics = (*Collector)(nil)

// Collector records session metrics on its own registry.
type Collector struct {
	registry   *prometheus.Registry
	merged     *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	stale      *prometheus.CounterVec
	lookups    *prometheus.CounterVec
	roster     prometheus.Gauge
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		merged: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_merged_total",
				Help:      "Messages inserted into the timeline",
			},
			[]string{"origin"},
		),
		duplicates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_duplicate_total",
				Help:      "Messages dropped because the timeline already held them",
			},
			[]string{"origin"},
		),
		stale: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_updates_total",
				Help:      "Service results dropped because their subscription epoch ended",
			},
			[]string{"op"},
		),
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "identity_lookups_total",
				Help:      "Identity metadata lookups by outcome",
			},
			[]string{"outcome"},
		),
		roster: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "roster_size",
			Help:      "Members currently shown as present",
		}),
	}
}

func (c *Collector) MessageMerged(origin domain.Origin) {
	c.merged.WithLabelValues(origin.String()).Inc()
}

func (c *Collector) DuplicateSuppressed(origin domain.Origin) {
	c.duplicates.WithLabelValues(origin.String()).Inc()
}

func (c *Collector) StaleDropped(op string) {
	c.stale.WithLabelValues(op).Inc()
}

func (c *Collector) LookupFinished(outcome string) {
	c.lookups.WithLabelValues(outcome).Inc()
}

func (c *Collector) RosterSize(n int) {
	c.roster.Set(float64(n))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	}
}
