package httpapi

import (
	"log"
	"net/http"
	"os"

	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// debugState is the classroom introspection payload for GET
// /debug/state: a cheap, read-only view of what the VMM core is
// currently holding, assembled from its exported accessors rather than
// reaching into its internals.
type debugState struct {
	Config     any   `json:"config"`
	ValidPages []int `json:"valid_pages"`
	Metrics    any   `json:"metrics"`
}

// handleDebugState implements the additive GET /debug/state endpoint,
// serializing the simulator's current state with a goseth.Serializer,
// in the manner of the teacher's Monitor.listComponentDetails
// (SetRoot/SetMaxDepth/Serialize against a component) rather than
// hand-built JSON.
func (s *Server) handleDebugState(w http.ResponseWriter, _ *http.Request) {
	core := s.sim.VMM()

	state := debugState{
		Config:     core.Config(),
		ValidPages: core.ValidPages(),
		Metrics:    core.Snapshot(),
	}

	w.Header().Set("Content-Type", "application/json")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&state)
	serializer.SetMaxDepth(2)

	if err := serializer.Serialize(w); err != nil {
		log.Printf("httpapi: serializing debug state: %v", err)
	}
}

type resourceResponse struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

// handleDebugResource implements the additive GET /debug/resource
// endpoint, reporting the simulator process's own CPU/RSS via
// shirou/gopsutil, in the manner of the teacher's
// Monitor.listResources — so an instructor can show that the
// simulator itself is cheap to run alongside whatever it is teaching.
func (s *Server) handleDebugResource(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resourceResponse{
		CPUPercent: cpuPercent,
		MemorySize: memInfo.RSS,
	})
}
