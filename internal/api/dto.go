package api

import (
	"fmt"
	"strconv"

	"github.com/samcharles93/arcon/internal/decode"
)

// GenerateRequest is the body of POST /v1/generations.  Exactly one of
// ClassLabels and Conditioning must be supplied, matching the predictor's
// conditioning mode.  All sampling fields are pointers so unset values fall
// back to the server defaults.
type GenerateRequest struct {
	ClassLabels  []int   `json:"class_labels,omitempty"`
	Conditioning [][]int `json:"conditioning,omitempty"`

	MaxNewTokens *int `json:"max_new_tokens,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Greedy      *bool    `json:"greedy,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`

	GuidanceScale       *float64 `json:"guidance_scale,omitempty"`
	CFGInterval         *int     `json:"cfg_interval,omitempty"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`

	// IndexMapping keys are token ids; JSON object keys arrive as strings.
	IndexMapping map[string]int `json:"index_mapping,omitempty"`

	EmbeddingMasks [][]bool `json:"embedding_masks,omitempty"`
}

// overrides converts the request's sampling fields into decode overrides.
func (r *GenerateRequest) overrides() (decode.Overrides, error) {
	ov := decode.Overrides{
		MaxNewTokens:        r.MaxNewTokens,
		Temperature:         r.Temperature,
		TopK:                r.TopK,
		TopP:                r.TopP,
		Greedy:              r.Greedy,
		Seed:                r.Seed,
		GuidanceScale:       r.GuidanceScale,
		CFGInterval:         r.CFGInterval,
		ConfidenceThreshold: r.ConfidenceThreshold,
	}
	if len(r.IndexMapping) > 0 {
		mapping := make(map[int]int, len(r.IndexMapping))
		for k, v := range r.IndexMapping {
			id, err := strconv.Atoi(k)
			if err != nil {
				return decode.Overrides{}, fmt.Errorf("index_mapping key %q is not a token id", k)
			}
			mapping[id] = v
		}
		ov.IndexMapping = mapping
	}
	return ov, nil
}

// GenerateUsage summarises a completed run.
type GenerateUsage struct {
	GeneratedTokens int     `json:"generated_tokens"`
	DurationMS      int64   `json:"duration_ms"`
	TPS             float64 `json:"tps"`
}

// GenerateResponse is the body returned for a completed generation.
type GenerateResponse struct {
	ID          string          `json:"id"`
	Object      string          `json:"object"`
	Tokens      [][]int         `json:"tokens"`
	Confidences [][][2]float32  `json:"confidences"`
	Usage       GenerateUsage   `json:"usage"`
}

// ResponseError mirrors the error envelope shape of the usual inference
// serving APIs.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
