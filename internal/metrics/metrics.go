// Package metrics exposes prometheus counters on a small sidecar HTTP
// server, next to the main fiber app.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UnitsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gearbox_units_created_total",
		Help: "Units created, by gearbox model.",
	}, []string{"model"})

	StockMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gearbox_stock_movements_total",
		Help: "Ledger movements, by type.",
	}, []string{"type"})

	InspectionsFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gearbox_inspections_finalized_total",
		Help: "Finalized inspections, by overall result.",
	}, []string{"result"})

	QuarantineDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gearbox_quarantine_decisions_total",
		Help: "Quarantine dispositions, by decision.",
	}, []string{"decision"})

	GuardViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gearbox_guard_violations_total",
		Help: "Rejected lifecycle transition attempts.",
	})
)

type Server struct {
	srv *http.Server
}

// NewServer builds the sidecar with /metrics and /health.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
