// Package vmm implements a demand-paged virtual memory manager core:
// page table, frame array, replacement policies, the access service
// loop, the built-in predictor, and the event types they all emit. It
// has no knowledge of HTTP, SSE, or any other transport — those live in
// transport/httpapi and consume this package through its exported
// types only.
package vmm

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vmmsim/vmmsim/internal/vmmerr"
)

const (
	maxRecentAccesses   = 100
	maxRecentPredictions = 50
	minWindowForPredict  = 3
)

// VMM orchestrates the page table, frame array, replacement policy and
// metrics on every access, and drives the event stream. All mutation
// happens under a single exclusive lock with no suspension points
// inside it, per the concurrency model: page-table reads/writes,
// frame-array mutation, replacement bookkeeping, metric updates for the
// access and event emission ordering are all serialized together.
type VMM struct {
	mu sync.Mutex

	cfg         Config
	pageTable   *PageTable
	frames      *FrameArray
	replacement *ReplacementManager

	metrics   Metrics
	predictor Predictor
	sink      Sink

	running bool

	recentAccess      []int
	recentPredictions []int
}

// New constructs a VMM from cfg, wired to predictor for prefetch hints
// and sink for its event stream. A nil predictor falls back to the
// mandatory rule-based predictor; a nil sink discards every event.
func New(cfg Config, predictor Predictor, sink Sink) (*VMM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if predictor == nil {
		predictor = NewRuleBasedPredictor()
	}

	if sink == nil {
		sink = NopSink{}
	}

	m := &VMM{
		cfg:         cfg,
		pageTable:   NewPageTable(cfg.TotalPages),
		frames:      NewFrameArray(cfg.TotalFrames),
		replacement: NewReplacementManager(cfg.ReplacementPolicy, cfg.TotalFrames),
		predictor:   predictor,
		sink:        sink,
	}

	return m, nil
}

// Configure atomically rebuilds the page table, frame array and
// replacement policy from scratch, per the new configuration. It does
// not reset metrics; those have their own Reset. Holding the VMM's
// single lock for the whole rebuild is what makes this atomic with
// respect to Access: no access can observe a half-rebuilt VMM.
func (m *VMM) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg = cfg
	m.pageTable = NewPageTable(cfg.TotalPages)
	m.frames = NewFrameArray(cfg.TotalFrames)
	m.replacement = NewReplacementManager(cfg.ReplacementPolicy, cfg.TotalFrames)
	m.recentAccess = nil
	m.recentPredictions = nil

	return nil
}

// Config returns a copy of the active configuration.
func (m *VMM) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cfg
}

// StartSimulation flips the running flag and emits a SIMULATION event.
func (m *VMM) StartSimulation() {
	m.mu.Lock()
	m.running = true
	m.mu.Unlock()

	m.sink.Publish(Event{Type: EventSimulation, Message: "simulation started", TimestampMs: nowMs()})
}

// StopSimulation flips the running flag off; subsequent Access calls
// return false without side effects. Any in-flight access (blocked on
// the same lock) completes first, since this also acquires the lock.
func (m *VMM) StopSimulation() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	m.sink.Publish(Event{Type: EventSimulation, Message: "simulation stopped", TimestampMs: nowMs()})
}

// IsRunning reports whether the simulation currently accepts accesses.
func (m *VMM) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.running
}

// ResetMetrics zeroes every counter without touching configuration.
func (m *VMM) ResetMetrics() {
	m.metrics.Reset()
}

// Snapshot returns a point-in-time metrics reading.
func (m *VMM) Snapshot() Snapshot {
	m.mu.Lock()
	free := m.frames.FreeCount()
	used := m.frames.UsedCount()
	m.mu.Unlock()

	return m.metrics.snapshotWith(free, used)
}

// Notify publishes a standalone event not tied to any particular
// access, stamped and ordered the same way access-driven events are.
// It exists for orchestration-level announcements (workload completion
// and restart, configuration changes) that originate outside the
// access service loop but still belong on the same event stream.
func (m *VMM) Notify(eventType EventType, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.publishLocked(Event{Type: eventType, Message: message})
}

// ValidPages returns a snapshot of currently resident page numbers.
func (m *VMM) ValidPages() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pageTable.ValidPages()
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// formatPageList renders pages as a comma-separated list for embedding
// inside an event's braced Data field, e.g. "7, 8".
func formatPageList(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}

	return strings.Join(parts, ", ")
}

// RecordDroppedEvent tallies one event dropped by a sink that could not
// keep up, most commonly eventlog.ChannelSink's onDrop callback. It
// takes no lock: the counter is a plain atomic, and ChannelSink calls
// onDrop synchronously from inside Publish, which runs while the VMM's
// lock is already held, so taking the lock here would deadlock.
func (m *VMM) RecordDroppedEvent() {
	m.metrics.incDroppedEvents()
}

// Access services one (page, is_write) request. It returns false only
// when the simulation is not running; every other outcome (hit, fault,
// predictor failure, missing victim) returns true, because the access
// was serviced even if it produced no useful state change.
func (m *VMM) Access(page int, isWrite bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return false
	}

	if page < 0 || page >= m.cfg.TotalPages {
		m.publishLocked(Event{
			Type:    EventError,
			Message: fmt.Sprintf("page %d out of range [0, %d)", page, m.cfg.TotalPages),
		})

		return true
	}

	m.metrics.incTotalAccesses()
	tick := m.metrics.totalAccesses.Load()

	m.pushRecentAccess(page)

	if m.cfg.EnableAIPredictions && len(m.recentAccess) >= minWindowForPredict {
		m.prefetchLocked(page)
	}

	entry, _ := m.pageTable.Get(page)
	if entry.Valid {
		m.hitLocked(page, entry, tick, isWrite)
		return true
	}

	return m.faultLocked(page, tick, isWrite)
}

func (m *VMM) pushRecentAccess(page int) {
	m.recentAccess = append(m.recentAccess, page)
	if len(m.recentAccess) > maxRecentAccesses {
		m.recentAccess = m.recentAccess[len(m.recentAccess)-maxRecentAccesses:]
	}
}

func (m *VMM) pushRecentPrediction(page int) {
	m.recentPredictions = append(m.recentPredictions, page)
	if len(m.recentPredictions) > maxRecentPredictions {
		m.recentPredictions = m.recentPredictions[len(m.recentPredictions)-maxRecentPredictions:]
	}
}

// attributeHit removes one occurrence of page from the recent-
// predictions multiset if present, reporting whether it was there.
func (m *VMM) attributeHit(page int) bool {
	for i, p := range m.recentPredictions {
		if p == page {
			m.recentPredictions = append(m.recentPredictions[:i], m.recentPredictions[i+1:]...)
			return true
		}
	}

	return false
}

// prefetchLocked runs the prediction step. It never evicts and never
// touches the page currently being serviced.
func (m *VMM) prefetchLocked(page int) {
	window := make([]int, len(m.recentAccess))
	copy(window, m.recentAccess)

	pred, err := m.predictor.Predict(window, m.cfg.TotalPages)
	if err != nil {
		m.metrics.setConfidence(0)
		return
	}

	if len(pred.Pages) == 0 {
		return
	}

	m.metrics.incAIPredictions()
	m.metrics.setConfidence(pred.Confidence)

	for _, q := range pred.Pages {
		m.pushRecentPrediction(q)
	}

	m.publishLocked(Event{
		Type:    EventAI,
		Message: "AI prediction",
		Data:    fmt.Sprintf("Predicted {%s}", formatPageList(pred.Pages)),
	})

	for _, q := range pred.Pages {
		if q == page {
			continue
		}

		if q < 0 || q >= m.cfg.TotalPages {
			continue
		}

		entry, _ := m.pageTable.Get(q)
		if entry.Valid {
			continue
		}

		frame, ok := m.frames.FindFree()
		if !ok {
			continue
		}

		m.frames.Allocate(frame, q)
		_ = m.pageTable.Install(q, frame)
		m.replacement.Policy().RecordAccess(frame)
		m.metrics.incSwapIns()

		m.publishLocked(Event{
			Type:    EventAI,
			Message: "AI prefetch",
			Data:    fmt.Sprintf("Prefetched page %d into frame %d", q, frame),
		})
	}
}

func (m *VMM) hitLocked(page int, entry PageEntry, tick uint64, isWrite bool) {
	_ = m.pageTable.RecordAccess(page, tick)
	m.replacement.Policy().RecordAccess(entry.Frame)

	if m.attributeHit(page) {
		m.metrics.incAIHits()
	}

	if isWrite {
		_ = m.pageTable.SetModified(page)
		m.frames.SetDirty(entry.Frame, true)
	}

	annotation := "read"
	if isWrite {
		annotation = "write"
	}

	m.publishLocked(Event{
		Type:    EventAccess,
		Message: fmt.Sprintf("hit on page %d (%s)", page, annotation),
	})
}

func (m *VMM) faultLocked(page int, tick uint64, isWrite bool) bool {
	m.metrics.incPageFaults()
	m.publishLocked(Event{Type: EventFault, Message: fmt.Sprintf("fault on page %d", page)})

	frame, ok := m.frames.FindFree()
	if !ok {
		victim, hasVictim := m.replacement.Policy().SelectVictim(m.frames.Occupancy())
		m.clearReferencedLocked()

		if !hasVictim {
			m.publishLocked(Event{Type: EventError, Message: vmmerr.ErrNoVictim.Error()})
			log.Printf("%v: %d/%d used", vmmerr.ErrNoVictim, m.frames.UsedCount(), m.frames.Capacity())

			return true
		}

		m.evictLocked(victim)
		frame = victim
	}

	m.metrics.incSwapIns()
	m.frames.Allocate(frame, page)
	_ = m.pageTable.Install(page, frame)

	if isWrite {
		_ = m.pageTable.SetModified(page)
		m.frames.SetDirty(frame, true)
	}

	_ = m.pageTable.RecordAccess(page, tick)
	m.replacement.Policy().RecordAccess(frame)

	m.publishLocked(Event{Type: EventSwapIn, Message: fmt.Sprintf("swapped in page %d into frame %d", page, frame)})

	return true
}

// clearReferencedLocked mirrors every frame CLOCK's sweep passed over
// and cleared this round into the page table's own soft reference bit,
// so PageEntry.Referenced reflects the same sweep CLOCK just ran
// instead of only ever being set. FIFO and LRU report no cleared
// frames, since neither algorithm has a reference bit to clear.
func (m *VMM) clearReferencedLocked() {
	for _, frame := range m.replacement.Policy().ClearedFrames() {
		slot := m.frames.Get(frame)
		if !slot.Occupied {
			continue
		}

		_ = m.pageTable.ClearReferenced(slot.ResidentPage)
	}
}

func (m *VMM) evictLocked(victim int) {
	slot := m.frames.Get(victim)
	victimPage := slot.ResidentPage

	_ = m.pageTable.Invalidate(victimPage)

	if slot.Dirty {
		m.metrics.incSwapOuts()
		m.publishLocked(Event{
			Type:    EventSwapOut,
			Message: fmt.Sprintf("wrote back dirty page %d from frame %d", victimPage, victim),
		})
	}

	m.publishLocked(Event{
		Type:    EventEvict,
		Message: fmt.Sprintf("evicted page %d from frame %d", victimPage, victim),
	})

	m.replacement.Policy().RecordEviction(victim)
}

// publishLocked stamps ev with the current time before handing it to
// the sink. Called only
// while m.mu is held, but publishing itself must never suspend: Sink
// implementations are required to be non-blocking.
func (m *VMM) publishLocked(ev Event) {
	ev.TimestampMs = nowMs()
	m.sink.Publish(ev)
}
