// Package admin serves the operational HTTP endpoints of the asyncnet CLI:
// Prometheus metrics, a health probe and a listing of connected clients.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/andrei-cloud/asyncnet"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Clients is the view of an acceptor needed by the /clients endpoint.
type Clients interface {
	IsRunning() bool
	Clients() []*asyncnet.Connection
}

// ClientInfo describes one connection in the /clients response.
type ClientInfo struct {
	ID          uint64    `json:"id"`
	Remote      string    `json:"remote"`
	Type        string    `json:"type"`
	Serial      string    `json:"serial,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
	PendingSend int       `json:"pending_sends"`
}

// NewRouter returns the admin handler. clients may be nil when no acceptor is
// running in the process; gatherer may be nil for the default registry.
func NewRouter(clients Clients, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if clients != nil && !clients.IsRunning() {
			http.Error(w, "acceptor stopped", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/clients", func(w http.ResponseWriter, _ *http.Request) {
		out := []ClientInfo{}
		if clients != nil {
			for _, c := range clients.Clients() {
				info := ClientInfo{
					ID:          c.ID(),
					Type:        c.ConnectionType().String(),
					Serial:      c.Serial(),
					ConnectedAt: c.ConnectedAt(),
					PendingSend: c.PendingSends(),
				}
				if addr := c.RemoteAddr(); addr != nil {
					info.Remote = addr.String()
				}
				out = append(out, info)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})

	return r
}
