package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/joescharf/scout/internal/metrics"
	"github.com/joescharf/scout/internal/proxy"
)

// Server is the browser-facing gateway. It forwards a fixed set of routes to
// the analysis backend and serves the embedded static assets.
type Server struct {
	fwd     *proxy.Forwarder
	log     *slog.Logger
	metrics *metrics.Gateway
	static  http.Handler
}

// NewServer creates a gateway server.
// The logger, metrics and static handler may be nil.
func NewServer(fwd *proxy.Forwarder, logger *slog.Logger, m *metrics.Gateway, static http.Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewGateway()
	}
	return &Server{
		fwd:     fwd,
		log:     logger,
		metrics: m,
		static:  static,
	}
}

// Router returns an http.Handler for the gateway routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Method checks live in route() so that every disallowed verb gets the
	// same 405 body and is logged like any other request.
	mux.Handle("/api/item", s.route("item", http.MethodGet, s.getItems))
	mux.Handle("/api/item/{model}", s.route("item", http.MethodGet, s.getModelItems))
	mux.Handle("/api/get_items/{id}", s.route("get_items", http.MethodGet, s.getFile))
	mux.Handle("/api/read_items_by_attribute", s.route("read_items_by_attribute", http.MethodPost, s.readItemsByAttribute))
	mux.Handle("/api/related/{id}/{modelA}/{modelB}", s.route("related", http.MethodGet, s.getRelated))
	mux.Handle("/api/rate", s.route("rate", http.MethodPost, s.rate))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", s.metrics.Handler())

	if s.static != nil {
		mux.Handle("/", s.static)
	}

	return requestID(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
