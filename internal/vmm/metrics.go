package vmm

import (
	"math"
	"sync/atomic"
)

// Metrics holds monotonic counters readable under a consistent
// per-counter snapshot. Snapshots taken mid-access are coherent for
// each individual counter (atomic load) but are not guaranteed to be
// mutually consistent across counters: VMM.Snapshot holds the VMM's
// lock only while it reads the frame counts and loads the counters
// after releasing it.
type Metrics struct {
	totalAccesses  atomic.Uint64
	pageFaults     atomic.Uint64
	swapIns        atomic.Uint64
	swapOuts       atomic.Uint64
	aiPredictions  atomic.Uint64
	aiHits         atomic.Uint64
	droppedEvents  atomic.Uint64
	lastConfidence atomic.Uint64 // bits of a float64, via math.Float64bits
}

// Snapshot is a point-in-time, read-only copy of the counters plus
// their derived rates.
type Snapshot struct {
	TotalAccesses           uint64  `json:"total_accesses"`
	PageFaults              uint64  `json:"page_faults"`
	PageFaultRate           float64 `json:"page_fault_rate"`
	SwapIns                 uint64  `json:"swap_ins"`
	SwapOuts                uint64  `json:"swap_outs"`
	AIPredictions           uint64  `json:"ai_predictions"`
	AIHits                  uint64  `json:"ai_hits"`
	AIHitRate               float64 `json:"ai_hit_rate"`
	AIPredictionConfidence  float64 `json:"ai_prediction_confidence"`
	FreeFrames              int     `json:"free_frames"`
	UsedFrames              int     `json:"used_frames"`
	DroppedEvents           uint64  `json:"dropped_events"`
}

func (m *Metrics) incTotalAccesses() { m.totalAccesses.Add(1) }
func (m *Metrics) incPageFaults()    { m.pageFaults.Add(1) }
func (m *Metrics) incSwapIns()       { m.swapIns.Add(1) }
func (m *Metrics) incSwapOuts()      { m.swapOuts.Add(1) }
func (m *Metrics) incAIPredictions() { m.aiPredictions.Add(1) }
func (m *Metrics) incAIHits()        { m.aiHits.Add(1) }
func (m *Metrics) incDroppedEvents() { m.droppedEvents.Add(1) }

func (m *Metrics) setConfidence(c float64) {
	m.lastConfidence.Store(math.Float64bits(c))
}

// Reset zeroes every counter. Unlike configuration changes, which leave
// metrics untouched, this is the only operation that clears them.
func (m *Metrics) Reset() {
	m.totalAccesses.Store(0)
	m.pageFaults.Store(0)
	m.swapIns.Store(0)
	m.swapOuts.Store(0)
	m.aiPredictions.Store(0)
	m.aiHits.Store(0)
	m.droppedEvents.Store(0)
	m.lastConfidence.Store(0)
}

// snapshotWith takes the current reading plus frame occupancy and computes
// derived rates.
func (m *Metrics) snapshotWith(freeFrames, usedFrames int) Snapshot {
	accesses := m.totalAccesses.Load()
	faults := m.pageFaults.Load()
	predictions := m.aiPredictions.Load()
	hits := m.aiHits.Load()

	s := Snapshot{
		TotalAccesses:          accesses,
		PageFaults:              faults,
		SwapIns:                 m.swapIns.Load(),
		SwapOuts:                m.swapOuts.Load(),
		AIPredictions:           predictions,
		AIHits:                  hits,
		AIPredictionConfidence:  math.Float64frombits(m.lastConfidence.Load()),
		FreeFrames:              freeFrames,
		UsedFrames:              usedFrames,
		DroppedEvents:           m.droppedEvents.Load(),
	}

	if accesses > 0 {
		s.PageFaultRate = float64(faults) / float64(accesses)
	}

	if predictions > 0 {
		s.AIHitRate = float64(hits) / float64(predictions)
	}

	return s
}
