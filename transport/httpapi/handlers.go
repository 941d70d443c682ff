package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/vmmsim/vmmsim/internal/simulator"
)

// writeJSON encodes v as the response body via encoding/json — the
// design notes are explicit that a real JSON library belongs on both
// sides of the wire, unlike the original implementation's hand-rolled
// JSONBuilder string concatenation.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleMetrics implements GET /metrics: a counter snapshot plus
// derived rates, the keys named in the external interfaces section
// plus ai_hits and dropped_events.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sim.VMM().Snapshot())
}

// startRequest is the decoded body of POST /simulate/start.
type startRequest struct {
	Mode     string `json:"mode"`
	Workload string `json:"workload"`
}

// startResponse echoes back what was applied, per the external
// interfaces section's documented response shape.
type startResponse struct {
	Status       string `json:"status"`
	WorkloadType string `json:"workload_type"`
	AIMode       string `json:"ai_mode"`
}

// handleSimulateStart implements POST /simulate/start: decode the body
// with encoding/json (never substring scanning), apply the
// configuration, and launch the producer loop.
func (s *Server) handleSimulateStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest

	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			writeError(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
			return
		}
	}

	if req.Mode == "" {
		req.Mode = string(simulator.ModePrefetchOnly)
	}

	if req.Workload == "" {
		req.Workload = string(simulator.WorkloadRandom)
	}

	opts := simulator.StartOptions{
		Mode:     simulator.Mode(req.Mode),
		Workload: simulator.WorkloadName(req.Workload),
	}

	if err := s.sim.Start(opts); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, startResponse{
		Status:       "started",
		WorkloadType: req.Workload,
		AIMode:       req.Mode,
	})
}

// handleSimulateStop implements POST /simulate/stop.
func (s *Server) handleSimulateStop(w http.ResponseWriter, _ *http.Request) {
	s.sim.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
