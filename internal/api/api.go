// Package api is the HTTP boundary of the agent: a thin mapping from
// the facade's views onto JSON endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/hostdiag/wifiradar/internal/model"
	"github.com/hostdiag/wifiradar/internal/snapshot"
	"github.com/hostdiag/wifiradar/internal/speedtest"
)

// Service is the part of the agent the API needs.
type Service interface {
	// Networks returns the nearby-networks view.
	Networks() snapshot.NetworkList

	// Diagnostics returns the connection-quality view.
	Diagnostics() snapshot.Diagnostics

	// RunSpeedTest runs a speed test and blocks until it finishes.
	RunSpeedTest(ctx context.Context) (model.SpeedTestResult, error)
}

// Handlers maps a [Service] onto HTTP endpoints.
type Handlers struct {
	// logger is the logger to use.
	logger model.Logger

	// svc answers the requests.
	svc Service
}

// NewRouter returns the agent API router. A non-empty staticDir also
// serves the frontend assets from that directory.
func NewRouter(logger model.Logger, svc Service, staticDir string) *mux.Router {
	h := &Handlers{logger: logger, svc: svc}
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/api/networks", h.getNetworks).Methods("GET")
	r.HandleFunc("/api/diagnostics", h.getDiagnostics).Methods("GET")
	r.HandleFunc("/api/speedtest", h.runSpeedTest).Methods("POST")

	if staticDir != "" {
		r.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
		r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
		}).Methods("GET")
	}
	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handlers) getNetworks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Networks())
}

func (h *Handlers) getDiagnostics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Diagnostics())
}

// runSpeedTest blocks for the duration of the run. Failures map onto
// distinguishable statuses: 409 while a run is in flight, 504 for a
// stalled transfer, 502 for an unreachable endpoint.
func (h *Handlers) runSpeedTest(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RunSpeedTest(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, speedtest.ErrBusy):
			status = http.StatusConflict
		case errors.Is(err, speedtest.ErrStalled):
			status = http.StatusGatewayTimeout
		}
		h.logger.Warnf("api: speedtest: %s", err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
