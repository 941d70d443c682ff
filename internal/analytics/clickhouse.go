// Package analytics holds optional long-term storage for metrics
// snapshots, separate from the per-event sinks in eventlog. It is
// disabled by default: a classroom running a single short session has
// no use for it, and its absence must never block the simulator core.
package analytics

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"

	"github.com/vmmsim/vmmsim/internal/vmm"
)

// ClickHouseRecorder batches vmm.Metrics snapshots into a ClickHouse
// table, patterned on the teacher's FastClickHouseRecorder: a
// type-specific batch slice flushed on size or on demand, with a final
// atexit flush so a killed process doesn't lose the last partial batch.
// Unlike the teacher's recorder, a connection or insert failure here
// only logs; it never panics, since a broken analytics sink must not
// take the simulation down with it.
type ClickHouseRecorder struct {
	conn      clickhouse.Conn
	runID     string
	batchSize int

	mu    sync.Mutex
	batch []snapshotRow
}

type snapshotRow struct {
	timestampMs  int64
	totalAccess  uint64
	faults       uint64
	swapIns      uint64
	swapOuts     uint64
	aiPreds      uint64
	aiHits       uint64
	dropped      uint64
	freeFrames   int
	usedFrames   int
	faultRate    float64
	aiHitRate    float64
	confidence   float64
}

// Option configures NewClickHouseRecorder.
type Option func(*options)

type options struct {
	batchSize   int
	dialTimeout time.Duration
}

// WithBatchSize overrides the default flush batch size.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// NewClickHouseRecorder dials ClickHouse at addr (host:port) and
// prepares the metrics_snapshots table. runID tags every row so
// multiple simulation runs stored in the same table stay
// distinguishable, in the manner of eventlog.SQLiteWriter. Returns an
// error rather than panicking, unlike the teacher's constructor, since
// a missing analytics backend is an expected, recoverable condition
// here, not a fatal one.
func NewClickHouseRecorder(addr, database, username, password, runID string, opts ...Option) (*ClickHouseRecorder, error) {
	o := options{batchSize: 200, dialTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		DialTimeout:     o.dialTimeout,
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("analytics: dialing clickhouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.dialTimeout)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("analytics: pinging clickhouse: %w", err)
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS metrics_snapshots (
	run_id String,
	timestamp_ms Int64,
	total_accesses UInt64,
	page_faults UInt64,
	swap_ins UInt64,
	swap_outs UInt64,
	ai_predictions UInt64,
	ai_hits UInt64,
	dropped_events UInt64,
	free_frames Int32,
	used_frames Int32,
	page_fault_rate Float64,
	ai_hit_rate Float64,
	last_confidence Float64
) ENGINE = MergeTree()
ORDER BY (run_id, timestamp_ms)`

	if err := conn.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("analytics: creating metrics_snapshots table: %w", err)
	}

	r := &ClickHouseRecorder{
		conn:      conn,
		runID:     runID,
		batchSize: o.batchSize,
	}

	atexit.Register(func() { r.Flush() })

	return r, nil
}

// Record appends one metrics snapshot, timestamped by the caller, to
// the pending batch, flushing immediately once the batch reaches its
// configured size. snap already carries FreeFrames/UsedFrames.
func (r *ClickHouseRecorder) Record(timestampMs int64, snap vmm.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batch = append(r.batch, snapshotRow{
		timestampMs: timestampMs,
		totalAccess: snap.TotalAccesses,
		faults:      snap.PageFaults,
		swapIns:     snap.SwapIns,
		swapOuts:    snap.SwapOuts,
		aiPreds:     snap.AIPredictions,
		aiHits:      snap.AIHits,
		dropped:     snap.DroppedEvents,
		freeFrames:  snap.FreeFrames,
		usedFrames:  snap.UsedFrames,
		faultRate:   snap.PageFaultRate,
		aiHitRate:   snap.AIHitRate,
		confidence:  snap.AIPredictionConfidence,
	})

	if len(r.batch) >= r.batchSize {
		r.flushLocked()
	}
}

// Flush writes any batched rows now.
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flushLocked()
}

func (r *ClickHouseRecorder) flushLocked() {
	if len(r.batch) == 0 {
		return
	}

	ctx := context.Background()

	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO metrics_snapshots")
	if err != nil {
		log.Printf("analytics: preparing batch: %v", err)
		return
	}

	for _, row := range r.batch {
		err = batch.Append(
			r.runID,
			row.timestampMs,
			row.totalAccess,
			row.faults,
			row.swapIns,
			row.swapOuts,
			row.aiPreds,
			row.aiHits,
			row.dropped,
			int32(row.freeFrames),
			int32(row.usedFrames),
			row.faultRate,
			row.aiHitRate,
			row.confidence,
		)
		if err != nil {
			log.Printf("analytics: appending row: %v", err)
			return
		}
	}

	if err := batch.Send(); err != nil {
		log.Printf("analytics: sending batch: %v", err)
		return
	}

	r.batch = r.batch[:0]
}

// Close flushes and releases the underlying connection.
func (r *ClickHouseRecorder) Close() error {
	r.Flush()

	return r.conn.Close()
}
