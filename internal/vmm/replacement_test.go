package vmm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmmsim/vmmsim/internal/vmm"
)

var _ = Describe("replacement policies", func() {
	Describe("FIFO", func() {
		It("enqueues a frame only on first install, not on later hits", func() {
			p := vmm.NewReplacementPolicy(vmm.FIFO, 3)

			p.RecordAccess(0)
			p.RecordAccess(1)
			p.RecordAccess(2)

			// Repeated hits on frame 0 must not move it to the back of the
			// queue: first-install semantics, not reference semantics.
			p.RecordAccess(0)
			p.RecordAccess(0)

			victim, ok := p.SelectVictim([]bool{true, true, true})
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(0))
		})

		It("skips stale entries for frames that are no longer occupied", func() {
			p := vmm.NewReplacementPolicy(vmm.FIFO, 3)

			p.RecordAccess(0)
			p.RecordAccess(1)

			// Frame 0 was reused by someone else without going through this
			// policy's RecordEviction; SelectVictim must still make
			// progress by skipping it once it sees it isn't occupied.
			victim, ok := p.SelectVictim([]bool{false, true, false})
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(1))
		})

		It("returns false when nothing is occupied", func() {
			p := vmm.NewReplacementPolicy(vmm.FIFO, 2)

			_, ok := p.SelectVictim([]bool{false, false})
			Expect(ok).To(BeFalse())
		})

		It("never reports cleared frames, having no reference bit", func() {
			p := vmm.NewReplacementPolicy(vmm.FIFO, 2)
			p.RecordAccess(0)

			Expect(p.ClearedFrames()).To(BeEmpty())
		})
	})

	Describe("LRU", func() {
		It("picks the least recently accessed occupied frame", func() {
			p := vmm.NewReplacementPolicy(vmm.LRU, 3)

			p.RecordAccess(0)
			p.RecordAccess(1)
			p.RecordAccess(2)
			p.RecordAccess(1) // frame 1 is now most recent; 0 is least recent

			victim, ok := p.SelectVictim([]bool{true, true, true})
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(0))
		})

		It("breaks ties by lowest index", func() {
			p := vmm.NewReplacementPolicy(vmm.LRU, 3)

			victim, ok := p.SelectVictim([]bool{true, true, true})
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(0))
		})
	})

	Describe("CLOCK", func() {
		It("evicts the first unreferenced frame it sweeps past", func() {
			p := vmm.NewReplacementPolicy(vmm.CLOCK, 3)

			p.RecordAccess(0)
			p.RecordAccess(1)
			// frame 2 never accessed: its bit is clear

			victim, ok := p.SelectVictim([]bool{true, true, true})
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(2))
		})

		It("clears bits on its way around before settling on a victim", func() {
			p := vmm.NewReplacementPolicy(vmm.CLOCK, 2)

			p.RecordAccess(0)
			p.RecordAccess(1)

			// Both bits set: first sweep clears both, second sweep evicts
			// frame 0 (the hand wraps back to where it started).
			victim, ok := p.SelectVictim([]bool{true, true})
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(0))
		})

		It("reports every frame it cleared, then forgets them", func() {
			p := vmm.NewReplacementPolicy(vmm.CLOCK, 2)

			p.RecordAccess(0)
			p.RecordAccess(1)

			_, ok := p.SelectVictim([]bool{true, true})
			Expect(ok).To(BeTrue())

			// Both bits were set, so the sweep clears both before it settles
			// on frame 0 as the victim.
			Expect(p.ClearedFrames()).To(ConsistOf(0, 1))
			Expect(p.ClearedFrames()).To(BeEmpty())
		})
	})

	Describe("ReplacementManager", func() {
		It("discards policy state on SetPolicy", func() {
			mgr := vmm.NewReplacementManager(vmm.FIFO, 2)
			mgr.Policy().RecordAccess(0)

			mgr.SetPolicy(vmm.LRU, 2)
			Expect(mgr.Kind()).To(Equal(vmm.LRU))
			Expect(mgr.Policy().Name()).To(Equal("LRU"))
		})
	})
})
