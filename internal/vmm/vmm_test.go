package vmm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	gomock "go.uber.org/mock/gomock"

	"github.com/vmmsim/vmmsim/internal/vmm"
)

// recordingSink collects every published event in order, for assertions
// on event sequencing.
type recordingSink struct {
	events []vmm.Event
}

func (s *recordingSink) Publish(ev vmm.Event) {
	s.events = append(s.events, ev)
}

func (s *recordingSink) typesSince(i int) []vmm.EventType {
	var out []vmm.EventType
	for _, ev := range s.events[i:] {
		out = append(out, ev.Type)
	}
	return out
}

func newVMM(cfg vmm.Config) (*vmm.VMM, *recordingSink) {
	sink := &recordingSink{}
	m, err := vmm.New(cfg, nil, sink)
	Expect(err).NotTo(HaveOccurred())
	m.StartSimulation()
	return m, sink
}

var _ = Describe("VMM access service", func() {
	Describe("the classic Belady FIFO example", func() {
		// F=3, P=8, policy=FIFO, ai_off, sequence [1,2,3,4,1,2,5,1,2,3,4,5]:
		// 9 faults, final resident set {3,4,5}, swap_ins=9, swap_outs=0.
		It("produces 9 faults under FIFO", func() {
			m, _ := newVMM(vmm.Config{TotalFrames: 3, TotalPages: 8, ReplacementPolicy: vmm.FIFO})

			for _, p := range []int{1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5} {
				m.Access(p, false)
			}

			snap := m.Snapshot()
			Expect(snap.PageFaults).To(Equal(uint64(9)))
			Expect(snap.SwapIns).To(Equal(uint64(9)))
			Expect(snap.SwapOuts).To(Equal(uint64(0)))
			Expect(m.ValidPages()).To(ConsistOf(3, 4, 5))
		})

		It("produces 10 faults under LRU", func() {
			m, _ := newVMM(vmm.Config{TotalFrames: 3, TotalPages: 8, ReplacementPolicy: vmm.LRU})

			for _, p := range []int{1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5} {
				m.Access(p, false)
			}

			Expect(m.Snapshot().PageFaults).To(Equal(uint64(10)))
		})

		It("produces between 9 and 10 faults under CLOCK, hand starting at frame 0", func() {
			m, _ := newVMM(vmm.Config{TotalFrames: 3, TotalPages: 8, ReplacementPolicy: vmm.CLOCK})

			for _, p := range []int{1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5} {
				m.Access(p, false)
			}

			Expect(m.Snapshot().PageFaults).To(BeNumerically(">=", 9))
			Expect(m.Snapshot().PageFaults).To(BeNumerically("<=", 10))
		})
	})

	Describe("a warm working set under LRU", func() {
		It("stops faulting once the working set fits entirely in frames", func() {
			// The working set (4 distinct pages) must not exceed
			// TotalFrames, or every access evicts the page the next
			// access needs: a 10-page cycle through 4 frames is LRU's
			// worst case and faults on nearly every access, not just the
			// cold misses.
			m, _ := newVMM(vmm.Config{TotalFrames: 4, TotalPages: 100, ReplacementPolicy: vmm.LRU})

			for i := 0; i < 1000; i++ {
				m.Access(i%4, false)
			}

			Expect(m.Snapshot().PageFaults).To(Equal(uint64(4)))
			Expect(m.Snapshot().SwapOuts).To(Equal(uint64(0)))
			Expect(m.Snapshot().AIHits).To(Equal(uint64(0)))
		})
	})

	Describe("dirty eviction accounting", func() {
		// F=2, CLOCK, write probability 1.0, access [1,2,3]: after access 3,
		// swap_outs=1 (dirty victim), swap_ins=3.
		It("writes back exactly one dirty victim", func() {
			m, _ := newVMM(vmm.Config{TotalFrames: 2, TotalPages: 8, ReplacementPolicy: vmm.CLOCK})

			for _, p := range []int{1, 2, 3} {
				m.Access(p, true)
			}

			snap := m.Snapshot()
			Expect(snap.SwapOuts).To(Equal(uint64(1)))
			Expect(snap.SwapIns).To(Equal(uint64(3)))
		})
	})

	Describe("boundary cases", func() {
		It("evicts on every miss with a single frame, identically across policies", func() {
			for _, policy := range []vmm.PolicyKind{vmm.FIFO, vmm.LRU, vmm.CLOCK} {
				m, _ := newVMM(vmm.Config{TotalFrames: 1, TotalPages: 8, ReplacementPolicy: policy})

				for _, p := range []int{1, 2, 3, 1, 2} {
					m.Access(p, false)
				}

				Expect(m.Snapshot().PageFaults).To(Equal(uint64(5)), "policy %s", policy)
				Expect(m.ValidPages()).To(ConsistOf(2))
			}
		})

		It("has a fault rate of 1/total_accesses with a single page", func() {
			m, _ := newVMM(vmm.Config{TotalFrames: 1, TotalPages: 1, ReplacementPolicy: vmm.LRU})

			m.Access(0, false)

			snap := m.Snapshot()
			Expect(snap.PageFaultRate).To(Equal(1.0))
		})

		It("rejects an out-of-range page without changing state", func() {
			m, sink := newVMM(vmm.Config{TotalFrames: 2, TotalPages: 4, ReplacementPolicy: vmm.LRU})

			ok := m.Access(10, false)
			Expect(ok).To(BeTrue())

			Expect(m.Snapshot().TotalAccesses).To(Equal(uint64(0)))
			Expect(sink.events[len(sink.events)-1].Type).To(Equal(vmm.EventError))
		})
	})

	Describe("lifecycle", func() {
		It("refuses accesses once stopped, with no side effects", func() {
			m, _ := newVMM(vmm.Config{TotalFrames: 2, TotalPages: 4, ReplacementPolicy: vmm.LRU})
			m.StopSimulation()

			ok := m.Access(0, false)
			Expect(ok).To(BeFalse())
			Expect(m.Snapshot().TotalAccesses).To(Equal(uint64(0)))
		})

		It("resets metrics independently of configuration", func() {
			m, _ := newVMM(vmm.Config{TotalFrames: 2, TotalPages: 4, ReplacementPolicy: vmm.LRU})
			m.Access(0, false)

			Expect(m.Snapshot().TotalAccesses).To(Equal(uint64(1)))

			Expect(m.Configure(vmm.Config{TotalFrames: 3, TotalPages: 4, ReplacementPolicy: vmm.FIFO})).To(Succeed())
			Expect(m.Snapshot().TotalAccesses).To(Equal(uint64(1)), "configuration must not reset metrics")

			m.ResetMetrics()
			Expect(m.Snapshot().TotalAccesses).To(Equal(uint64(0)))
		})
	})

	Describe("AI prefetch and hit attribution", func() {
		It("never increments ai_hits on a prefetch install, only on a true attributed hit", func() {
			cfg := vmm.Config{TotalFrames: 8, TotalPages: 64, ReplacementPolicy: vmm.LRU, EnableAIPredictions: true}
			m, sink := newVMM(cfg)

			// Arithmetic stride 1: window [4,5,6] predicts {7,8} with high
			// confidence; accessing 4,5,6 should prefetch 7 and 8 without
			// crediting ai_hits yet.
			m.Access(4, false)
			m.Access(5, false)
			m.Access(6, false)

			Expect(m.Snapshot().AIPredictions).To(BeNumerically(">=", 1))
			Expect(m.Snapshot().AIHits).To(Equal(uint64(0)))

			sawPrefetch := false
			for _, ev := range sink.events {
				if ev.Type == vmm.EventAI && ev.Message == "AI prefetch" {
					sawPrefetch = true
				}
			}
			Expect(sawPrefetch).To(BeTrue())

			// Now actually accessing page 7 should hit (it was prefetched)
			// and attribute exactly one ai_hit.
			before := m.Snapshot().AIHits
			m.Access(7, false)
			Expect(m.Snapshot().AIHits).To(Equal(before + 1))
		})

		It("ignores predicted pages outside total_pages", func() {
			cfg := vmm.Config{TotalFrames: 4, TotalPages: 10, ReplacementPolicy: vmm.LRU, EnableAIPredictions: true}
			m, _ := newVMM(cfg)

			mockController := gomock.NewController(GinkgoT())
			defer mockController.Finish()

			pred := NewMockPredictor(mockController)
			pred.EXPECT().
				Predict(gomock.Any(), gomock.Any()).
				Return(vmm.Prediction{Pages: []int{50, 51}, Confidence: 0.9}, nil).
				AnyTimes()

			m2, err := vmm.New(cfg, pred, &recordingSink{})
			Expect(err).NotTo(HaveOccurred())
			m2.StartSimulation()

			m2.Access(1, false)
			m2.Access(2, false)
			m2.Access(3, false)

			Expect(m2.ValidPages()).NotTo(ContainElement(50))
			Expect(m2.ValidPages()).NotTo(ContainElement(51))

			_ = m
		})

		It("renders a prediction event's Data as a braced, comma-separated page set", func() {
			cfg := vmm.Config{TotalFrames: 8, TotalPages: 64, ReplacementPolicy: vmm.LRU, EnableAIPredictions: true}
			m, sink := newVMM(cfg)

			m.Access(4, false)
			m.Access(5, false)
			m.Access(6, false)

			var data string

			for _, ev := range sink.events {
				if ev.Type == vmm.EventAI && ev.Message == "AI prediction" {
					data = ev.Data
				}
			}

			Expect(data).To(Equal("Predicted {7, 8}"))
		})
	})
})
