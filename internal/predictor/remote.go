// Package predictor adapts an external, learned prediction service to
// the vmm.Predictor interface. The remote service is an optional
// collaborator: the VMM core does not depend on it, and a failed or
// slow call degrades to "no predictions this access" rather than
// blocking the caller. Grounded on the request/response shape exposed
// by the original implementation's FastAPI predictor service
// (predictor/service.py: POST /predict taking recent_accesses, top_k,
// returning predicted_pages with per-page scores).
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vmmsim/vmmsim/internal/vmm"
	"github.com/vmmsim/vmmsim/internal/vmmerr"
)

// DefaultTimeout bounds how long the core will wait for the remote
// service before treating the call as unavailable. The VMM core itself
// never blocks past this: RemotePredictor is the adapter responsible
// for bounding latency, per the prediction interface's contract.
const DefaultTimeout = 200 * time.Millisecond

// RemotePredictor calls an HTTP prediction service implementing the
// /predict contract of the original learned predictor. It implements
// vmm.Predictor, so it can be plugged into vmm.New in place of the
// built-in rule-based predictor.
type RemotePredictor struct {
	baseURL string
	client  *http.Client
	topK    int
}

// NewRemotePredictor constructs an adapter that POSTs to baseURL+"/predict"
// with the given timeout. A non-positive timeout falls back to
// DefaultTimeout.
func NewRemotePredictor(baseURL string, timeout time.Duration) *RemotePredictor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &RemotePredictor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		topK:    10,
	}
}

type predictRequest struct {
	RecentAccesses []int `json:"recent_accesses"`
	TopK           int   `json:"top_k"`
}

type pagePrediction struct {
	Page  int     `json:"page"`
	Score float64 `json:"score"`
}

type predictResponse struct {
	PredictedPages []pagePrediction `json:"predicted_pages"`
}

// Predict implements vmm.Predictor. Any transport failure, non-2xx
// status, or malformed body is reported as ErrPredictorUnavailable; the
// VMM core treats that identically to "no predictions this access" and
// resets confidence to zero, per the error handling design.
func (r *RemotePredictor) Predict(window []int, totalPages int) (vmm.Prediction, error) {
	body, err := json.Marshal(predictRequest{RecentAccesses: window, TopK: r.topK})
	if err != nil {
		return vmm.Prediction{}, fmt.Errorf("%w: encoding request: %v", vmmerr.ErrPredictorUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return vmm.Prediction{}, fmt.Errorf("%w: building request: %v", vmmerr.ErrPredictorUnavailable, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return vmm.Prediction{}, fmt.Errorf("%w: %v", vmmerr.ErrPredictorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return vmm.Prediction{}, fmt.Errorf("%w: remote predictor returned status %d", vmmerr.ErrPredictorUnavailable, resp.StatusCode)
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return vmm.Prediction{}, fmt.Errorf("%w: decoding response: %v", vmmerr.ErrPredictorUnavailable, err)
	}

	if len(parsed.PredictedPages) == 0 {
		return vmm.Prediction{}, nil
	}

	pages := make([]int, 0, len(parsed.PredictedPages))

	var topScore float64

	for i, pp := range parsed.PredictedPages {
		if pp.Page < 0 || pp.Page >= totalPages {
			continue
		}

		pages = append(pages, pp.Page)

		if i == 0 || pp.Score > topScore {
			topScore = pp.Score
		}
	}

	if len(pages) == 0 {
		return vmm.Prediction{}, nil
	}

	confidence := topScore
	if confidence < 0 {
		confidence = 0
	}

	if confidence > 1 {
		confidence = 1
	}

	return vmm.Prediction{Pages: pages, Confidence: confidence}, nil
}
