// Package httpapi is the reference HTTP+SSE adapter for the VMM core:
// it shapes JSON requests/responses with encoding/json (never by
// string concatenation, unlike the original implementation's
// JSONBuilder/hand-written substring scans) and routes with
// gorilla/mux, in the manner of the teacher's monitoring.Monitor.
package httpapi

import (
	"net/http"
	// Registers net/http/pprof's handlers on the default mux, exactly as
	// the teacher's monitoring package does, for classroom profiling of
	// the simulator process itself.
	_ "net/http/pprof"

	"github.com/gorilla/mux"

	"github.com/vmmsim/vmmsim/internal/eventlog"
	"github.com/vmmsim/vmmsim/internal/simulator"
)

// Server bundles the router with the collaborators its handlers need.
type Server struct {
	router *mux.Router
	sim    *simulator.Simulator
	events *eventlog.ChannelSink
}

// NewServer builds the router named in the external interfaces section:
// GET /metrics, POST /simulate/start, POST /simulate/stop,
// GET /events/stream, plus the additive debug endpoints recovered from
// the original implementation's monitor-style introspection.
func NewServer(sim *simulator.Simulator, events *eventlog.ChannelSink) *Server {
	s := &Server{
		router: mux.NewRouter(),
		sim:    sim,
		events: events,
	}

	s.router.Use(corsMiddleware)

	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/simulate/start", s.handleSimulateStart).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/simulate/stop", s.handleSimulateStop).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/events/stream", s.handleEventsStream).Methods(http.MethodGet, http.MethodOptions)

	s.router.HandleFunc("/debug/state", s.handleDebugState).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/debug/resource", s.handleDebugResource).Methods(http.MethodGet, http.MethodOptions)

	s.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	return s
}

// Handler returns the root http.Handler for the server, suitable for
// http.Serve or httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.router
}
