// Package vmmerr defines the error kinds the virtual memory manager and
// its collaborators can report, mirroring the classification in the
// design document rather than ad-hoc error strings.
package vmmerr

import "errors"

// Sentinel errors identifying each error kind. Callers compare with
// errors.Is; wrapped errors carry additional context via fmt.Errorf's
// %w verb.
var (
	// ErrConfigInvalid marks a configuration that cannot be applied:
	// non-positive frame/page counts, or an unknown policy/workload name.
	ErrConfigInvalid = errors.New("vmm: invalid configuration")

	// ErrOutOfRange marks a page number outside [0, total_pages).
	ErrOutOfRange = errors.New("vmm: page number out of range")

	// ErrNoVictim marks a replacement policy that returned no victim
	// despite a full frame array. This signals an invariant violation;
	// it is recovered locally and never crashes the process.
	ErrNoVictim = errors.New("vmm: no victim frame available")

	// ErrPredictorUnavailable marks a failed or timed-out predictor call.
	ErrPredictorUnavailable = errors.New("vmm: predictor unavailable")

	// ErrTransport marks an adapter-level I/O failure. It never reaches
	// the core's state machine. No adapter in this repository returns
	// it: the remote predictor reports every request failure as
	// ErrPredictorUnavailable.
	ErrTransport = errors.New("vmm: transport error")
)
