// Package metrics exposes client-side Prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SyncOps     *prometheus.CounterVec
	SyncPasses  prometheus.Counter
	QueueDepth  prometheus.Gauge
	Online      prometheus.Gauge
	AudioLookup *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SyncOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocab",
			Name:      "sync_operations_total",
			Help:      "Replayed pending operations by kind, op and result.",
		}, []string{"kind", "op", "result"}),
		SyncPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vocab",
			Name:      "sync_passes_total",
			Help:      "Completed sync passes.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vocab",
			Name:      "pending_operations",
			Help:      "Outstanding operations in the pending queue.",
		}),
		Online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vocab",
			Name:      "online",
			Help:      "1 while the remote store is reachable.",
		}),
		AudioLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocab",
			Name:      "audio_cache_lookups_total",
			Help:      "Audio cache lookups by tier and outcome.",
		}, []string{"tier", "outcome"}),
	}
	reg.MustRegister(m.SyncOps, m.SyncPasses, m.QueueDepth, m.Online, m.AudioLookup)
	return m
}

func (m *Metrics) ObserveSyncOp(kind, op, result string) {
	if m == nil {
		return
	}
	m.SyncOps.WithLabelValues(kind, op, result).Inc()
}

func (m *Metrics) ObserveSyncPass(depth int) {
	if m == nil {
		return
	}
	m.SyncPasses.Inc()
	m.QueueDepth.Set(float64(depth))
}

func (m *Metrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
}

func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.Online.Set(1)
		return
	}
	m.Online.Set(0)
}

func (m *Metrics) ObserveAudio(tier string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.AudioLookup.WithLabelValues(tier, outcome).Inc()
}

// Serve exposes g on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
