package vmm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmmsim/vmmsim/internal/vmm"
)

func TestRuleBasedPredictor_ArithmeticStride(t *testing.T) {
	p := vmm.NewRuleBasedPredictor()

	pred, err := p.Predict([]int{4, 5, 6}, 100)
	require.NoError(t, err)

	assert.Equal(t, []int{7, 8}, pred.Pages)
	assert.InDelta(t, 0.85, pred.Confidence, 1e-9)
}

func TestRuleBasedPredictor_GeneralStride(t *testing.T) {
	p := vmm.NewRuleBasedPredictor()

	pred, err := p.Predict([]int{2, 5, 8}, 100)
	require.NoError(t, err)

	assert.Equal(t, []int{11, 14}, pred.Pages)
	assert.InDelta(t, 0.70, pred.Confidence, 1e-9)
}

func TestRuleBasedPredictor_Locality(t *testing.T) {
	p := vmm.NewRuleBasedPredictor()

	pred, err := p.Predict([]int{2, 9, 3}, 100)
	require.NoError(t, err)

	assert.Equal(t, []int{4, 5}, pred.Pages)
	assert.InDelta(t, 0.60, pred.Confidence, 1e-9)
}

func TestRuleBasedPredictor_WrapsModuloTotalPages(t *testing.T) {
	p := vmm.NewRuleBasedPredictor()

	pred, err := p.Predict([]int{6, 7, 8}, 9)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, pred.Pages)
}

func TestRuleBasedPredictor_TooShortWindowYieldsNoPrediction(t *testing.T) {
	p := vmm.NewRuleBasedPredictor()

	pred, err := p.Predict([]int{1, 2}, 100)
	require.NoError(t, err)
	assert.Empty(t, pred.Pages)
}
