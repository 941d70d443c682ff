package vmm

// clockPolicy approximates LRU with a single reference bit per frame
// and a wrap-around hand, sweeping from frame 0 on the first run.
type clockPolicy struct {
	refBit  []bool
	hand    int
	cleared []int
}

func newClockPolicy(numFrames int) *clockPolicy {
	return &clockPolicy{refBit: make([]bool, numFrames)}
}

// RecordAccess sets the reference bit for frame.
func (p *clockPolicy) RecordAccess(frame int) {
	p.growTo(frame)
	p.refBit[frame] = true
}

// RecordEviction clears the reference bit for frame.
func (p *clockPolicy) RecordEviction(frame int) {
	p.growTo(frame)
	p.refBit[frame] = false
}

func (p *clockPolicy) growTo(frame int) {
	if frame < len(p.refBit) {
		return
	}

	grown := make([]bool, frame+1)
	copy(grown, p.refBit)
	p.refBit = grown
}

// SelectVictim sweeps starting at the current hand position. A pointed
// frame that is occupied with its bit clear is the victim; the hand
// advances past it. A pointed frame that is occupied with its bit set
// has its bit cleared and the hand advances. After at most two full
// rotations a victim exists, unless no frame is occupied.
func (p *clockPolicy) SelectVictim(occupied []bool) (int, bool) {
	n := len(occupied)
	if n == 0 {
		return 0, false
	}

	if p.hand >= n {
		p.hand = 0
	}

	anyOccupied := false

	for _, o := range occupied {
		anyOccupied = anyOccupied || o
	}

	if !anyOccupied {
		return 0, false
	}

	for sweep := 0; sweep < 2*n; sweep++ {
		frame := p.hand
		p.growTo(frame)
		p.hand = (p.hand + 1) % n

		if !occupied[frame] {
			continue
		}

		if !p.refBit[frame] {
			return frame, true
		}

		p.refBit[frame] = false
		p.cleared = append(p.cleared, frame)
	}

	return 0, false
}

// ClearedFrames returns the frames this sweep cleared the reference bit
// for, and resets the accumulator for the next call.
func (p *clockPolicy) ClearedFrames() []int {
	cleared := p.cleared
	p.cleared = nil

	return cleared
}

func (p *clockPolicy) Name() string {
	return "CLOCK"
}
