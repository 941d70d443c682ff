// Package workload implements the synthetic access-trace generator that
// drives the virtual memory manager under test: five distributions
// chosen at configuration time, each producing a deterministic sequence
// when given a fixed seed.
package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vmmsim/vmmsim/internal/vmmerr"
)

// Type enumerates the selectable access distributions.
type Type string

const (
	Sequential Type = "sequential"
	Random     Type = "random"
	Strided    Type = "strided"
	Zipf       Type = "zipf"
	Webserver  Type = "webserver"
)

// writeProbability is fixed across all distributions, per the design.
const writeProbability = 0.30

// Config configures one generator run.
type Config struct {
	Type           Type
	TotalRequests  int
	PageRange      int
	Stride         int
	ZipfAlpha      float64
	LocalityFactor float64
	WorkingSetSize int
	Seed           *int64
}

// Validate rejects unknown types and non-positive page ranges.
func (c Config) Validate() error {
	switch c.Type {
	case Sequential, Random, Strided, Zipf, Webserver:
	default:
		return fmt.Errorf("%w: unknown workload type %q", vmmerr.ErrConfigInvalid, c.Type)
	}

	if c.PageRange <= 0 {
		return fmt.Errorf("%w: page_range must be positive", vmmerr.ErrConfigInvalid)
	}

	return nil
}

// Access is one generated request.
type Access struct {
	Page    int
	IsWrite bool
}

// Generator produces a bounded sequence of accesses. With a fixed seed
// the sequence, including the write-bit sequence, is reproducible.
type Generator struct {
	cfg      Config
	rng      *rand.Rand
	position int

	workingSet []int
	zipfCDF    []float64
}

// New constructs a Generator for cfg. A nil seed draws from the global
// entropy source via a freshly seeded PRNG.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var seed int64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		seed = rand.Int63()
	}

	g := &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic trace generation, not cryptographic
	}

	if cfg.Type == Zipf {
		g.zipfCDF = buildZipfCDF(cfg.PageRange, cfg.ZipfAlpha)
	}

	if cfg.Type == Webserver {
		size := cfg.WorkingSetSize
		if size <= 0 {
			size = 1
		}

		g.workingSet = make([]int, 0, size)
	}

	return g, nil
}

// Done reports whether TotalRequests accesses have already been
// produced. A TotalRequests of zero or less means unbounded.
func (g *Generator) Done() bool {
	return g.cfg.TotalRequests > 0 && g.position >= g.cfg.TotalRequests
}

// Next produces the next access in the sequence, along with whether the
// generator has more requests left to produce (false once TotalRequests
// is reached, signalling the orchestrator's completion hook).
func (g *Generator) Next() (Access, bool) {
	if g.Done() {
		return Access{}, false
	}

	page := g.nextPage()
	g.position++

	return Access{Page: page, IsWrite: g.rng.Float64() < writeProbability}, true
}

func (g *Generator) nextPage() int {
	switch g.cfg.Type {
	case Sequential:
		return g.position % g.cfg.PageRange
	case Random:
		return g.rng.Intn(g.cfg.PageRange)
	case Strided:
		stride := g.cfg.Stride
		if stride == 0 {
			stride = 1
		}

		return (g.position * stride) % g.cfg.PageRange
	case Zipf:
		return g.sampleZipf()
	case Webserver:
		return g.sampleWebserver()
	default:
		return 0
	}
}

// sampleZipf draws a rank in [1, page_range] with probability
// proportional to 1/k^alpha via inverse-CDF sampling over a
// precomputed table, then returns rank-1 as the page number.
func (g *Generator) sampleZipf() int {
	u := g.rng.Float64()

	lo, hi := 0, len(g.zipfCDF)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if g.zipfCDF[mid] < u {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}

func buildZipfCDF(pageRange int, alpha float64) []float64 {
	if alpha <= 0 {
		alpha = 1.0
	}

	weights := make([]float64, pageRange)

	var total float64

	for k := 1; k <= pageRange; k++ {
		w := 1.0 / math.Pow(float64(k), alpha)
		weights[k-1] = w
		total += w
	}

	cdf := make([]float64, pageRange)

	var running float64

	for i, w := range weights {
		running += w / total
		cdf[i] = running
	}

	cdf[len(cdf)-1] = 1.0

	return cdf
}

// sampleWebserver implements the locality model: with probability
// locality_factor, return a uniform sample from the bounded working-set
// buffer; otherwise draw a uniform random page and insert it into the
// working set, replacing a uniform-random slot once full.
func (g *Generator) sampleWebserver() int {
	if len(g.workingSet) > 0 && g.rng.Float64() < g.cfg.LocalityFactor {
		return g.workingSet[g.rng.Intn(len(g.workingSet))]
	}

	page := g.rng.Intn(g.cfg.PageRange)

	size := g.cfg.WorkingSetSize
	if size <= 0 {
		size = 1
	}

	if len(g.workingSet) < size {
		g.workingSet = append(g.workingSet, page)
	} else {
		g.workingSet[g.rng.Intn(size)] = page
	}

	return page
}
