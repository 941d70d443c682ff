package vmm

// Prediction is the result of a predictor call: a candidate page list
// plus a confidence in [0, 1].
type Prediction struct {
	Pages      []int
	Confidence float64
}

// Predictor is defined by capability, not by transport: it receives a
// read-only snapshot of the recent-access window and returns a
// Prediction. The VMM core invokes it only when predictions are enabled
// and the window holds at least three entries. A remote, learned
// predictor can implement this interface over HTTP (see
// internal/predictor); the core never depends on the transport.
//go:generate mockgen -destination mock_predictor_test.go -package vmm_test github.com/vmmsim/vmmsim/internal/vmm Predictor
type Predictor interface {
	Predict(window []int, totalPages int) (Prediction, error)
}

// RuleBasedPredictor is the mandatory built-in predictor: a small set of
// stride-detection heuristics over the last three accesses. It never
// fails and never blocks. vmm.New uses it when no predictor is
// supplied; a configured predictor that fails is not replaced by it
// (that access simply gets no predictions).
type RuleBasedPredictor struct{}

// NewRuleBasedPredictor constructs the built-in predictor.
func NewRuleBasedPredictor() *RuleBasedPredictor {
	return &RuleBasedPredictor{}
}

// Predict implements Predictor using the last three pages in window
// (window is ordered oldest-first; only the tail is used).
func (*RuleBasedPredictor) Predict(window []int, totalPages int) (Prediction, error) {
	if len(window) < 3 || totalPages <= 0 {
		return Prediction{}, nil
	}

	n := len(window)
	p1, p2, p3 := window[n-3], window[n-2], window[n-1]

	mod := func(x int) int {
		m := x % totalPages
		if m < 0 {
			m += totalPages
		}

		return m
	}

	var pages []int

	var confidence float64

	switch {
	case p3 == p2+1 && p2 == p1+1:
		pages = []int{mod(p3 + 1), mod(p3 + 2)}
		confidence = 0.85
	case p3-p2 == p2-p1 && p3 != p2:
		d := p3 - p2
		pages = []int{mod(p3 + d), mod(p3 + 2*d)}
		confidence = 0.70
	default:
		base := (p3 / 10) * 10
		pages = []int{
			mod(base + mod2(p3%10+1, 10)),
			mod(base + mod2(p3%10+2, 10)),
		}
		confidence = 0.60
	}

	// Safety net for a heuristic that yields fewer than two candidates;
	// each of the three branches above always yields exactly two, but a
	// bespoke heuristic added later might not.
	if len(pages) < 2 {
		pages = append(pages, mod(p3+3))
	}

	return Prediction{Pages: pages, Confidence: confidence}, nil
}

// mod2 is the small, always-positive modulus used for the locality
// heuristic's within-decade wraparound, kept separate from the
// page-space mod helper because its modulus is fixed at 10 regardless
// of totalPages.
func mod2(x, m int) int {
	r := x % m
	if r < 0 {
		r += m
	}

	return r
}
