package vmm

import (
	"fmt"
	"strings"

	"github.com/vmmsim/vmmsim/internal/vmmerr"
)

// ReplacementPolicy selects eviction victims among occupied frames and
// tracks whatever per-frame state its algorithm needs. Grounded on the
// teacher's tagging.VictimFinder shape (mem/cache/internal/tagging): one
// capability interface, several concrete implementations, no inheritance
// chain.
type ReplacementPolicy interface {
	// SelectVictim returns the frame to evict given which frames are
	// currently occupied. It returns false iff no frame is occupied.
	SelectVictim(occupied []bool) (frame int, ok bool)

	// RecordAccess tells the policy that frame was just accessed (either
	// freshly installed or hit).
	RecordAccess(frame int)

	// RecordEviction tells the policy that frame was just evicted.
	RecordEviction(frame int)

	// ClearedFrames returns, and discards, the frames whose reference
	// bit this policy cleared since the last call: only CLOCK's sweep
	// produces any, since FIFO and LRU carry no reference bit of their
	// own. The VMM uses this to mirror the sweep into the page table's
	// PageEntry.Referenced bit.
	ClearedFrames() []int

	// Name identifies the policy for metrics and logging.
	Name() string
}

// PolicyKind enumerates the selectable replacement algorithms.
type PolicyKind int

const (
	FIFO PolicyKind = iota
	LRU
	CLOCK
)

// String renders the policy kind the way configuration JSON expects it.
func (k PolicyKind) String() string {
	switch k {
	case FIFO:
		return "FIFO"
	case LRU:
		return "LRU"
	case CLOCK:
		return "CLOCK"
	default:
		return "UNKNOWN"
	}
}

// ParsePolicyKind maps a case-insensitive policy name to a PolicyKind.
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch strings.ToUpper(s) {
	case "FIFO":
		return FIFO, nil
	case "LRU":
		return LRU, nil
	case "CLOCK":
		return CLOCK, nil
	default:
		return 0, fmt.Errorf("%w: unknown replacement policy %q", vmmerr.ErrConfigInvalid, s)
	}
}

// NewReplacementPolicy constructs the concrete implementation for kind,
// sized for numFrames.
func NewReplacementPolicy(kind PolicyKind, numFrames int) ReplacementPolicy {
	switch kind {
	case FIFO:
		return newFIFOPolicy(numFrames)
	case LRU:
		return newLRUPolicy(numFrames)
	case CLOCK:
		return newClockPolicy(numFrames)
	default:
		panic(fmt.Sprintf("vmm: unhandled policy kind %v", kind))
	}
}

// ReplacementManager owns the single active policy and allows swapping
// algorithms without disturbing the rest of the VMM.
type ReplacementManager struct {
	kind      PolicyKind
	numFrames int
	policy    ReplacementPolicy
}

// NewReplacementManager constructs a manager running kind over numFrames
// frames.
func NewReplacementManager(kind PolicyKind, numFrames int) *ReplacementManager {
	return &ReplacementManager{
		kind:      kind,
		numFrames: numFrames,
		policy:    NewReplacementPolicy(kind, numFrames),
	}
}

// SetPolicy replaces the active algorithm, discarding its internal
// state, and adopts numFrames as the new frame count.
func (m *ReplacementManager) SetPolicy(kind PolicyKind, numFrames int) {
	m.kind = kind
	m.numFrames = numFrames
	m.policy = NewReplacementPolicy(kind, numFrames)
}

// Policy returns the active policy.
func (m *ReplacementManager) Policy() ReplacementPolicy {
	return m.policy
}

// Kind returns the active policy's kind.
func (m *ReplacementManager) Kind() PolicyKind {
	return m.kind
}
