package vmm

import (
	"fmt"

	"github.com/vmmsim/vmmsim/internal/vmmerr"
)

// Config holds the tunables enumerated in the component design:
// frame/page counts, the active replacement policy, whether predictions
// are consulted, and the (informational only) page size.
type Config struct {
	TotalFrames         int
	PageSize            int
	TotalPages          int
	ReplacementPolicy   PolicyKind
	EnableAIPredictions bool
}

// DefaultConfig mirrors the reference implementation's defaults.
func DefaultConfig() Config {
	return Config{
		TotalFrames:         256,
		PageSize:            4096,
		TotalPages:          1024,
		ReplacementPolicy:   CLOCK,
		EnableAIPredictions: false,
	}
}

// Validate rejects non-positive frame/page counts. Unknown policy names
// never reach Config because ParsePolicyKind rejects them earlier.
func (c Config) Validate() error {
	if c.TotalFrames <= 0 {
		return fmt.Errorf("%w: total_frames must be positive, got %d", vmmerr.ErrConfigInvalid, c.TotalFrames)
	}

	if c.TotalPages <= 0 {
		return fmt.Errorf("%w: total_pages must be positive, got %d", vmmerr.ErrConfigInvalid, c.TotalPages)
	}

	return nil
}
