package eventlog

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/vmmsim/vmmsim/internal/vmm"
)

// SQLiteWriter batches events into a SQLite database, patterned
// directly on the teacher's tracing.SQLiteTraceWriter: prepared
// statement, batch buffer, atexit-registered final flush. Each writer
// instance tags its own rows with a run ID, so multiple classroom runs
// against the same database file stay distinguishable.
type SQLiteWriter struct {
	db        *sql.DB
	statement *sql.Stmt

	mu        sync.Mutex
	runID     string
	buffered  []vmm.Event
	batchSize int
}

// NewSQLiteWriter opens (or creates) the database at path and prepares
// the events table and insert statement.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("eventlog: opening sqlite database: %w", err)
	}

	w := &SQLiteWriter{
		db:        db,
		runID:     xid.New().String(),
		batchSize: 500,
	}

	if err := w.createTable(); err != nil {
		return nil, err
	}

	if err := w.prepareStatement(); err != nil {
		return nil, err
	}

	atexit.Register(func() { w.Flush() })

	return w, nil
}

func (w *SQLiteWriter) createTable() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS events (
	run_id TEXT NOT NULL,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	timestamp_ms INTEGER NOT NULL,
	data TEXT
)`

	if _, err := w.db.Exec(ddl); err != nil {
		return fmt.Errorf("eventlog: creating events table: %w", err)
	}

	return nil
}

func (w *SQLiteWriter) prepareStatement() error {
	stmt, err := w.db.Prepare(
		`INSERT INTO events (run_id, type, message, timestamp_ms, data) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("eventlog: preparing insert statement: %w", err)
	}

	w.statement = stmt

	return nil
}

// Publish implements vmm.Sink by buffering ev for the next batch flush.
func (w *SQLiteWriter) Publish(ev vmm.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buffered = append(w.buffered, ev)
	if len(w.buffered) >= w.batchSize {
		w.flushLocked()
	}
}

// Flush writes any buffered events to the database now.
func (w *SQLiteWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.flushLocked()
}

func (w *SQLiteWriter) flushLocked() {
	if len(w.buffered) == 0 {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		log.Printf("eventlog: beginning transaction: %v", err)
		return
	}

	stmt := tx.Stmt(w.statement)

	for _, ev := range w.buffered {
		if _, err := stmt.Exec(w.runID, string(ev.Type), ev.Message, ev.TimestampMs, ev.Data); err != nil {
			log.Printf("eventlog: inserting event: %v", err)

			_ = tx.Rollback()

			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("eventlog: committing batch: %v", err)
	}

	w.buffered = nil
}

// Close releases the underlying database handle after a final flush.
func (w *SQLiteWriter) Close() error {
	w.Flush()

	return w.db.Close()
}
