package eventlog

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"sync"

	"github.com/tebeka/atexit"

	"github.com/vmmsim/vmmsim/internal/vmm"
)

// JSONFileWriter writes one newline-delimited JSON record per event to
// w, buffering writes and flushing on every call (events are low
// frequency enough in a teaching simulation that per-event flush cost
// is not a concern; the teacher's JSONTracer takes the same approach).
type JSONFileWriter struct {
	mu sync.Mutex
	bw *bufio.Writer
	w  io.Writer
}

// NewJSONFileWriter wraps w and registers an atexit hook to flush any
// buffered bytes on process shutdown, in the manner of
// tracing.JSONTracer / tracing.SQLiteTraceWriter.
func NewJSONFileWriter(w io.Writer) *JSONFileWriter {
	j := &JSONFileWriter{bw: bufio.NewWriter(w), w: w}

	atexit.Register(func() { j.Flush() })

	return j
}

// Publish implements vmm.Sink.
func (j *JSONFileWriter) Publish(ev vmm.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("eventlog: failed to marshal event: %v", err)
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.bw.Write(b); err != nil {
		log.Printf("eventlog: failed to write event: %v", err)
		return
	}

	if err := j.bw.WriteByte('\n'); err != nil {
		log.Printf("eventlog: failed to write newline: %v", err)
		return
	}

	if err := j.bw.Flush(); err != nil {
		log.Printf("eventlog: failed to flush: %v", err)
	}
}

// Flush forces any buffered bytes out to the underlying writer.
func (j *JSONFileWriter) Flush() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.bw.Flush(); err != nil {
		log.Printf("eventlog: failed to flush: %v", err)
	}
}
