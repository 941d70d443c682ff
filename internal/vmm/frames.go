package vmm

// NoPage is the sentinel resident-page value for an unoccupied frame.
const NoPage = -1

// FrameSlot is one physical frame.
type FrameSlot struct {
	Occupied     bool
	ResidentPage int
	Dirty        bool
}

// FrameArray is a fixed-size vector of frames. There is no fragmentation
// and no resizing: the array is allocated once, at the configured
// capacity, and its slots are only ever marked occupied or free.
type FrameArray struct {
	slots []FrameSlot
}

// NewFrameArray allocates capacity frames, all initially free.
func NewFrameArray(capacity int) *FrameArray {
	f := &FrameArray{slots: make([]FrameSlot, capacity)}
	f.reset()

	return f
}

func (f *FrameArray) reset() {
	for i := range f.slots {
		f.slots[i] = FrameSlot{Occupied: false, ResidentPage: NoPage, Dirty: false}
	}
}

// Capacity returns the total number of frames.
func (f *FrameArray) Capacity() int {
	return len(f.slots)
}

// Get returns a copy of frame f's slot.
func (f *FrameArray) Get(frame int) FrameSlot {
	return f.slots[frame]
}

// FindFree returns the lowest-indexed unoccupied frame, or false if
// none exists.
func (f *FrameArray) FindFree() (int, bool) {
	for i, s := range f.slots {
		if !s.Occupied {
			return i, true
		}
	}

	return 0, false
}

// Allocate marks frame occupied, resident to page, and clean.
func (f *FrameArray) Allocate(frame, page int) {
	f.slots[frame] = FrameSlot{Occupied: true, ResidentPage: page, Dirty: false}
}

// Deallocate clears occupied, resident page and dirty for frame.
func (f *FrameArray) Deallocate(frame int) {
	f.slots[frame] = FrameSlot{Occupied: false, ResidentPage: NoPage, Dirty: false}
}

// SetDirty sets or clears the dirty bit of frame.
func (f *FrameArray) SetDirty(frame int, dirty bool) {
	f.slots[frame].Dirty = dirty
}

// UsedCount returns the number of occupied frames.
func (f *FrameArray) UsedCount() int {
	n := 0

	for _, s := range f.slots {
		if s.Occupied {
			n++
		}
	}

	return n
}

// FreeCount returns the number of unoccupied frames.
func (f *FrameArray) FreeCount() int {
	return f.Capacity() - f.UsedCount()
}

// Occupancy returns a bit-vector-shaped slice indicating, per frame,
// whether it is currently occupied. Replacement policies consume this
// instead of reaching into the frame array directly, so they stay
// decoupled from its storage representation.
func (f *FrameArray) Occupancy() []bool {
	occ := make([]bool, len(f.slots))

	for i, s := range f.slots {
		occ[i] = s.Occupied
	}

	return occ
}
