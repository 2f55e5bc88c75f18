package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts routed intents and reported errors
type Metrics struct {
	Registry *prometheus.Registry
	intents  *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressurediary",
			Name:      "intents_total",
			Help:      "Number of handled messages and actions by intent.",
		}, []string{"intent"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressurediary",
			Name:      "errors_total",
			Help:      "Number of user-visible errors by kind.",
		}, []string{"kind"}),
	}

	m.Registry.MustRegister(m.intents, m.errors)
	return m
}

func (m *Metrics) Intent(name string) {
	m.intents.WithLabelValues(name).Inc()
}

func (m *Metrics) Error(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

// Pinger reports whether a dependency is reachable
type Pinger func(ctx context.Context) error

// Handler serves /metrics and /health. The health check pings the database.
func (m *Metrics) Handler(ping Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if ping != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	return r
}

// Serve exposes Handler on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string, ping Pinger) error {
	srv := &http.Server{Addr: addr, Handler: m.Handler(ping), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
