package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roastlive/internal/telemetry"
)

// SnapshotSource yields a read-only view of the device state store.
type SnapshotSource interface {
	Snapshot() telemetry.Snapshot
	TeamID() string
}

// Server exposes the aggregator state read-only over HTTP. Writers do not
// exist: the UI and any other consumer only ever see snapshots.
type Server struct {
	httpServer *http.Server
}

func NewServer(addr string, source SnapshotSource) *Server {
	r := mux.NewRouter()

	r.HandleFunc("/api/v1/telemetry", getTelemetryHandler(source)).Methods("GET")
	r.HandleFunc("/healthz", healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handlers.LoggingHandler(os.Stdout, r),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	log.Printf("Snapshot API listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func getTelemetryHandler(source SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := source.Snapshot()

		response := struct {
			TeamID string             `json:"team_id"`
			State  telemetry.Snapshot `json:"state"`
		}{
			TeamID: source.TeamID(),
			State:  snapshot,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Printf("Error encoding telemetry snapshot: %v", err)
		}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
