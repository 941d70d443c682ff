package vmm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmmsim/vmmsim/internal/vmm"
)

var _ = Describe("FrameArray", func() {
	It("finds the lowest-indexed free frame", func() {
		f := vmm.NewFrameArray(4)

		f.Allocate(1, 10)

		idx, ok := f.FindFree()
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(0))
	})

	It("reports no free frame once full", func() {
		f := vmm.NewFrameArray(2)
		f.Allocate(0, 1)
		f.Allocate(1, 2)

		_, ok := f.FindFree()
		Expect(ok).To(BeFalse())
		Expect(f.FreeCount()).To(Equal(0))
		Expect(f.UsedCount()).To(Equal(2))
	})

	It("clears occupancy, resident page and dirty on deallocate", func() {
		f := vmm.NewFrameArray(1)
		f.Allocate(0, 5)
		f.SetDirty(0, true)

		f.Deallocate(0)

		slot := f.Get(0)
		Expect(slot.Occupied).To(BeFalse())
		Expect(slot.ResidentPage).To(Equal(vmm.NoPage))
		Expect(slot.Dirty).To(BeFalse())
	})
})

var _ = Describe("PageTable", func() {
	It("keeps an entry after invalidation, only clearing Valid", func() {
		t := vmm.NewPageTable(4)

		Expect(t.Install(2, 0)).To(Succeed())
		Expect(t.Invalidate(2)).To(Succeed())

		entry, err := t.Get(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(entry.Valid).To(BeFalse())
	})

	It("rejects page numbers outside [0, total_pages)", func() {
		t := vmm.NewPageTable(4)

		_, err := t.Get(4)
		Expect(err).To(HaveOccurred())
	})

	It("records access count, referenced bit and last-access tick together", func() {
		t := vmm.NewPageTable(4)

		Expect(t.RecordAccess(1, 7)).To(Succeed())

		entry, err := t.Get(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(entry.Referenced).To(BeTrue())
		Expect(entry.AccessCount).To(Equal(uint64(1)))
		Expect(entry.LastAccessTick).To(Equal(uint64(7)))
	})

	It("clears the referenced bit without touching access count or tick", func() {
		t := vmm.NewPageTable(4)
		Expect(t.RecordAccess(1, 7)).To(Succeed())

		Expect(t.ClearReferenced(1)).To(Succeed())

		entry, err := t.Get(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(entry.Referenced).To(BeFalse())
		Expect(entry.AccessCount).To(Equal(uint64(1)))
		Expect(entry.LastAccessTick).To(Equal(uint64(7)))
	})
})
