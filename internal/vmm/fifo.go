package vmm

// fifoPolicy evicts the frame that has been resident the longest,
// measured from first install. Re-accessing a resident frame does not
// move it in the queue: first-install semantics, not reference
// semantics. This resolves the ambiguity in the reference
// implementation, where record_access enqueued on every call; a
// membership check alone made repeated enqueues merely redundant rather
// than wrong, but relying on that is an accident, not a contract.
type fifoPolicy struct {
	queue   []int
	inQueue map[int]bool
}

func newFIFOPolicy(numFrames int) *fifoPolicy {
	return &fifoPolicy{
		queue:   make([]int, 0, numFrames),
		inQueue: make(map[int]bool, numFrames),
	}
}

// RecordAccess enqueues frame only the first time it is seen since its
// last eviction; later hits are no-ops.
func (p *fifoPolicy) RecordAccess(frame int) {
	if p.inQueue[frame] {
		return
	}

	p.inQueue[frame] = true
	p.queue = append(p.queue, frame)
}

// RecordEviction is a documented no-op: the queue entry for the victim
// frame is consumed by SelectVictim itself, at the moment it is chosen.
func (p *fifoPolicy) RecordEviction(_ int) {
}

// SelectVictim repeatedly dequeues from the front, discarding entries
// whose frame is no longer occupied (stale, because that frame was
// reused outside this policy's view), until the dequeued frame is
// occupied; that frame is the victim.
func (p *fifoPolicy) SelectVictim(occupied []bool) (int, bool) {
	for len(p.queue) > 0 {
		head := p.queue[0]
		p.queue = p.queue[1:]
		delete(p.inQueue, head)

		if head < len(occupied) && occupied[head] {
			return head, true
		}
	}

	return 0, false
}

// ClearedFrames always returns nil: FIFO carries no reference bit.
func (p *fifoPolicy) ClearedFrames() []int {
	return nil
}

func (p *fifoPolicy) Name() string {
	return "FIFO"
}
