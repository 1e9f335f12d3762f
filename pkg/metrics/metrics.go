package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	Cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_cycles_total",
		Help: "Operator cycles by outcome",
	}, []string{"outcome"})
	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "triage_cycle_duration_seconds",
		Help:    "Duration of one operator cycle",
		Buckets: prometheus.DefBuckets,
	})
	AccountPolls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_account_polls_total",
		Help: "Per-account polls by outcome",
	}, []string{"outcome"})
	ItemsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_items_ingested_total",
		Help: "Fetched items by how they entered the pipeline",
	}, []string{"kind"})
	ThreadsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_threads_completed_total",
		Help: "Threads merged into a composite item",
	})
	ThreadsAbandoned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_threads_abandoned_total",
		Help: "Threads dropped after eviction or repeated completion failures",
	})
	ItemsScored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_items_scored_total",
		Help: "Items that received a relevance score",
	})
	ScorerFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_scorer_failures_total",
		Help: "Failed scoring batch calls",
	})
	AutoApprovals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_auto_approvals_total",
		Help: "Auto-approve attempts by result",
	}, []string{"result"})
	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_notifications_total",
		Help: "Notification sends by result",
	}, []string{"result"})
	ItemsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_items_below_threshold_total",
		Help: "Scored items skipped for falling below the account threshold",
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(
		Cycles,
		CycleDuration,
		AccountPolls,
		ItemsIngested,
		ThreadsCompleted,
		ThreadsAbandoned,
		ItemsScored,
		ScorerFailures,
		AutoApprovals,
		Notifications,
		ItemsSkipped,
		APIRetries,
	)
}

// ObserveCycleDuration records how long a cycle took
func ObserveCycleDuration(start time.Time) {
	CycleDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for an API route.
func IncAPIRetry(route string) { APIRetries.WithLabelValues(route).Inc() }

// Route mounts an extra handler next to /metrics.
type Route struct {
	Pattern string
	Handler http.Handler
}

// StartServer serves /metrics, /health and any extra routes on addr until ctx is done.
// An empty addr disables the server.
func StartServer(ctx context.Context, addr string, logger *logrus.Logger, routes ...Route) {
	if addr == "" {
		return
	}

	mux := NewMux(routes...)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.WithField("addr", addr).Info("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server stopped")
		}
	}()
}

// NewMux builds the handler served by StartServer.
func NewMux(routes ...Route) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	for _, r := range routes {
		mux.Handle(r.Pattern, r.Handler)
	}
	return mux
}
