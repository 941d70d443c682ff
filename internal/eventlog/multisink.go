package eventlog

import "github.com/vmmsim/vmmsim/internal/vmm"

// MultiSink fans one event out to several sinks, in the order given.
// A slow or blocking sink would violate the "never blocks the core"
// rule on its own; MultiSink does not add protection beyond what each
// member sink already provides, so every sink it wraps must itself be
// non-blocking (ChannelSink, JSONFileWriter and SQLiteWriter all are).
type MultiSink struct {
	sinks []vmm.Sink
}

// NewMultiSink constructs a sink that publishes to every member of
// sinks.
func NewMultiSink(sinks ...vmm.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Publish implements vmm.Sink.
func (m *MultiSink) Publish(ev vmm.Event) {
	for _, s := range m.sinks {
		s.Publish(ev)
	}
}
