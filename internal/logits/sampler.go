package logits

import (
	"math/rand"

	"github.com/samcharles93/arcon/internal/tensor"
)

// minTemperature floors the temperature before scaling so a zero or negative
// temperature cannot produce a division by zero or flip the distribution.
const minTemperature = 1e-5

// Config configures the behaviour of a Sampler.
type Config struct {
	Seed        int64
	Temperature float32
	TopK        int
	TopP        float32
	MinKeep     int
	Greedy      bool
}

// Sampler converts last-position logits rows into one token id and one
// confidence pair per batch row.
type Sampler struct {
	rng     *rand.Rand
	cfg     Config
	mapping *Mapping
}

// NewSampler returns a sampler with the provided configuration.  Out-of-range
// values are normalised rather than rejected: TopP outside (0,1] disables
// nucleus masking, TopK below zero disables top-k, MinKeep below one becomes
// one.
func NewSampler(cfg Config, mapping *Mapping) *Sampler {
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		cfg.TopP = 1
	}
	if cfg.TopK < 0 {
		cfg.TopK = 0
	}
	if cfg.MinKeep < 1 {
		cfg.MinKeep = 1
	}
	return &Sampler{
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		cfg:     cfg,
		mapping: mapping,
	}
}

// Sample draws one token id per batch row from the given last-position logits
// rows and returns the drawn ids alongside their confidence pairs.  Per row:
//
//  1. Logits are scaled by the inverse temperature (floored at 1e-5).
//  2. If top-k or top-p is enabled the row is filtered (see Filter).
//  3. Softmax turns the filtered row into a probability distribution.
//  4. Greedy picks the argmax; otherwise one id is drawn from the
//     distribution.
//  5. The primary confidence is the chosen token's probability; the paired
//     confidence is the probability of the mapping-linked token, or zero
//     when no link exists.
//
// The input rows are not modified.
func (s *Sampler) Sample(rows [][]float32) ([]int, [][2]float32) {
	temp := s.cfg.Temperature
	if temp < minTemperature {
		temp = minTemperature
	}
	invTemp := 1 / temp

	ids := make([]int, len(rows))
	confs := make([][2]float32, len(rows))
	for b, row := range rows {
		probs := make([]float32, len(row))
		for i, v := range row {
			probs[i] = v * invTemp
		}
		if s.cfg.TopK > 0 || s.cfg.TopP < 1 {
			probs = Filter(probs, s.cfg.TopK, s.cfg.TopP, s.cfg.MinKeep)
		}
		tensor.Softmax(probs)

		var id int
		if s.cfg.Greedy {
			id = argmax(probs)
		} else {
			id = s.draw(probs)
		}

		pair := [2]float32{probs[id], 0}
		if paired, ok := s.mapping.Paired(id); ok {
			pair[1] = probs[paired]
		}
		ids[b] = id
		confs[b] = pair
	}
	return ids, confs
}

// draw selects an index from a probability distribution using a single
// uniform variate.  Degenerate rows fall back to the argmax.
func (s *Sampler) draw(probs []float32) int {
	r := s.rng.Float64()
	var cum float64
	for i, p := range probs {
		cum += float64(p)
		if r <= cum {
			return i
		}
	}
	return argmax(probs)
}

// argmax returns the index of the maximum value in the slice. If the slice is
// empty it panics.
func argmax(x []float32) int {
	if len(x) == 0 {
		panic("argmax: empty slice")
	}
	bestI := 0
	bestV := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > bestV {
			bestV = x[i]
			bestI = i
		}
	}
	return bestI
}
