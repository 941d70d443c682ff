// Package simulator owns the producer loop that drives a workload
// generator against a VMM core: the orchestration the original
// implementation's VMMSimulator class performed by hand (a ticking
// simulation thread calling generateNextAccess, mode/workload string
// mapping, start/stop bookkeeping), reworked behind an explicit
// goroutine and stop channel instead of a detached std::thread and an
// atomic<bool> polled from two places.
package simulator

import (
	"fmt"
	"sync"
	"time"

	"github.com/vmmsim/vmmsim/internal/vmm"
	"github.com/vmmsim/vmmsim/internal/vmmerr"
	"github.com/vmmsim/vmmsim/internal/workload"
)

// pace is the delay between generated accesses, matching the 10ms
// cadence of the original implementation's simulation thread. It exists
// so a classroom audience watching the event stream can follow
// individual transitions rather than seeing a wall of text.
const pace = 10 * time.Millisecond

// Mode selects whether the VMM core consults predictions at all.
type Mode string

const (
	ModeAIOff        Mode = "ai_off"
	ModePrefetchOnly Mode = "prefetch_only"
)

// WorkloadName is the control-surface vocabulary for workload.Type:
// "db_like" is a spec-mandated alias for the Zipf distribution.
type WorkloadName string

const (
	WorkloadSequential WorkloadName = "sequential"
	WorkloadRandom     WorkloadName = "random"
	WorkloadStrided    WorkloadName = "strided"
	WorkloadDBLike     WorkloadName = "db_like"
	WorkloadWebserver  WorkloadName = "webserver"
)

// resolveWorkloadType maps the control-surface vocabulary onto the
// generator's distribution enum. Anything unrecognized falls back to
// Random, mirroring the original implementation's handleStartSimulation
// (an unrecognized workload string silently became RANDOM there); this
// implementation keeps that default but everything reachable through
// the documented control surface is named explicitly above.
func resolveWorkloadType(name WorkloadName) workload.Type {
	switch name {
	case WorkloadSequential:
		return workload.Sequential
	case WorkloadStrided:
		return workload.Strided
	case WorkloadDBLike:
		return workload.Zipf
	case WorkloadWebserver:
		return workload.Webserver
	default:
		return workload.Random
	}
}

// Defaults mirrors the original implementation's hard-coded VMM and
// workload defaults, used to fill in whatever StartOptions doesn't
// specify.
type Defaults struct {
	VMM      vmm.Config
	Workload workload.Config
}

// DefaultDefaults returns the original implementation's constants:
// 256 frames, 1024 pages, CLOCK replacement, page_range 1000, stride 1,
// zipf_alpha 1.0, locality_factor 0.8, working_set_size 100.
func DefaultDefaults() Defaults {
	return Defaults{
		VMM: vmm.Config{
			TotalFrames:         256,
			PageSize:            4096,
			TotalPages:          1024,
			ReplacementPolicy:   vmm.CLOCK,
			EnableAIPredictions: true,
		},
		Workload: workload.Config{
			Type:           workload.Random,
			TotalRequests:  1000,
			PageRange:      1000,
			Stride:         1,
			ZipfAlpha:      1.0,
			LocalityFactor: 0.8,
			WorkingSetSize: 100,
		},
	}
}

// StartOptions is the decoded body of POST /simulate/start.
type StartOptions struct {
	Mode     Mode
	Workload WorkloadName
}

// Simulator owns one VMM core and the producer loop that feeds it
// generated accesses. It is the sole writer of the VMM's configuration
// and running flag from the control surface's perspective; the HTTP
// adapter only reads from the VMM directly (through VMM()).
type Simulator struct {
	vmm      *vmm.VMM
	defaults Defaults

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	genCfg  workload.Config
}

// New constructs a Simulator around an already-built VMM core.
func New(core *vmm.VMM, defaults Defaults) *Simulator {
	return &Simulator{vmm: core, defaults: defaults}
}

// VMM returns the underlying core, for handlers that need direct
// read-only access (metrics snapshots, valid-page listings).
func (s *Simulator) VMM() *vmm.VMM {
	return s.vmm
}

// Start applies opts atop the configured defaults, reconfigures the
// VMM core, and launches the producer goroutine. Calling Start while
// already running stops the previous run first, so repeated
// POST /simulate/start calls are idempotent rather than additive.
func (s *Simulator) Start(opts StartOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.stopLocked()
	}

	vmmCfg := s.defaults.VMM
	vmmCfg.EnableAIPredictions = opts.Mode != ModeAIOff

	genCfg := s.defaults.Workload
	genCfg.Type = resolveWorkloadType(opts.Workload)

	if err := s.vmm.Configure(vmmCfg); err != nil {
		return fmt.Errorf("simulator: applying vmm config: %w", err)
	}

	gen, err := workload.New(genCfg)
	if err != nil {
		return fmt.Errorf("%w: %v", vmmerr.ErrConfigInvalid, err)
	}

	s.genCfg = genCfg
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	s.vmm.StartSimulation()

	go s.run(gen, s.stopCh, s.doneCh)

	return nil
}

// Stop halts the producer loop and the VMM core, and blocks until the
// producer goroutine has observed the stop signal.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

func (s *Simulator) stopLocked() {
	if !s.running {
		return
	}

	close(s.stopCh)
	<-s.doneCh

	s.vmm.StopSimulation()
	s.running = false
}

// Running reports whether the producer loop is currently active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// run is the producer loop: generate one access, service it, wait one
// pace interval, repeat. On workload completion it resets the generator
// in place and keeps going, per the design's "the orchestrator may
// reset and restart" completion handling — a classroom demo should run
// indefinitely without the instructor re-issuing /simulate/start.
func (s *Simulator) run(gen *workload.Generator, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(pace)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		access, ok := gen.Next()
		if !ok {
			s.vmm.Notify(vmm.EventSimulation, "workload completed, restarting")

			restarted, err := workload.New(s.genCfg)
			if err != nil {
				return
			}

			gen = restarted

			continue
		}

		s.vmm.Access(access.Page, access.IsWrite)
	}
}
