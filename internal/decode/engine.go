// Package decode drives a Predictor token by token: one prefill pass over the
// full conditioning span, then sequential single-token decode steps, with
// optional classifier-free guidance over a doubled batch.
package decode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/arcon/internal/guidance"
	"github.com/samcharles93/arcon/internal/logger"
	"github.com/samcharles93/arcon/internal/logits"
	"github.com/samcharles93/arcon/internal/model"
)

var (
	// ErrUnknownMode reports a predictor whose conditioning mode the engine
	// does not recognise.  Raised before any cache allocation.
	ErrUnknownMode = errors.New("decode: unrecognised predictor mode")
	// ErrMaskShape reports an embedding mask whose batch size or length does
	// not match the conditioning.
	ErrMaskShape = errors.New("decode: embedding mask shape mismatch")
	// ErrEmptyBatch reports a generation request without conditioning rows.
	ErrEmptyBatch = errors.New("decode: conditioning batch is empty")
	// ErrMaxNewTokens reports a non-positive token budget.
	ErrMaxNewTokens = errors.New("decode: max new tokens must be positive")
)

// Stats summarises one generation run.
type Stats struct {
	TokensGenerated int
	Duration        time.Duration
	TPS             float64
}

// Result holds the generated region only: Tokens is (batch, maxNewTokens)
// and Confidences is (batch, maxNewTokens, 2), where index 0 of a pair is
// the sampled token's own probability and index 1 the paired token's.
type Result struct {
	Tokens      [][]int
	Confidences [][][2]float32
	Stats       Stats
}

// Generator owns one generation at a time.  The sequence and confidence
// buffers it allocates are exclusive to a run; driving one Predictor from
// several Generators concurrently is not supported because SetupCaches
// resets shared model state.
type Generator struct {
	Model model.Predictor
	Log   logger.Logger
}

// Generate produces opts.MaxNewTokens tokens per conditioning row.
//
// cond holds one conditioning row per batch entry: a single class label for
// class-conditional predictors, a token sequence for text-conditional ones.
// embMasks, when non-nil, flags which conditioning positions are valid per
// row; it is folded into the predictor's causal mask with the diagonal forced
// back to one so self-attention is never masked out.
//
// When opts.GuidanceScale > 1 the batch is doubled with the predictor's null
// conditioning and every forward pass carries the conditional and
// unconditional halves side by side.
//
// Cancelling ctx stops the run between decode steps; partial buffers are
// discarded.
func (g *Generator) Generate(ctx context.Context, cond [][]int, embMasks [][]bool, opts Options) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("decode: context is required")
	}
	if g.Model == nil {
		return nil, fmt.Errorf("decode: predictor is required")
	}
	opts = opts.normalized()
	if opts.MaxNewTokens <= 0 {
		return nil, ErrMaxNewTokens
	}
	batch := len(cond)
	if batch == 0 {
		return nil, ErrEmptyBatch
	}

	guided := opts.GuidanceScale > 1

	var condLen int
	switch mode := g.Model.Mode(); mode {
	case model.ModeClassConditional:
		condLen = 1
	case model.ModeTextConditional:
		condLen = len(cond[0])
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}

	condCombined := cond
	if guided {
		condCombined = make([][]int, 0, 2*batch)
		condCombined = append(condCombined, cond...)
		condCombined = append(condCombined, g.Model.NullConditioning(cond)...)
	}

	maxSeq := condLen + opts.MaxNewTokens
	if err := g.Model.SetupCaches(len(condCombined), maxSeq); err != nil {
		return nil, fmt.Errorf("decode: setup caches: %w", err)
	}

	if embMasks != nil {
		if len(embMasks) != batch {
			return nil, fmt.Errorf("%w: %d mask rows for batch %d", ErrMaskShape, len(embMasks), batch)
		}
		for b, row := range embMasks {
			if len(row) != condLen {
				return nil, fmt.Errorf("%w: row %d has length %d, want %d", ErrMaskShape, b, len(row), condLen)
			}
		}
		rows := embMasks
		if guided {
			rows = make([][]bool, 0, 2*batch)
			rows = append(rows, embMasks...)
			rows = append(rows, embMasks...)
		}
		mask := g.Model.CausalMask()
		mask.ApplyConditioning(rows)
		mask.ForceDiagonal()
	}

	log := g.Log
	if log == nil {
		log = logger.Default()
	}
	log = log.With("generation", uuid.NewString())

	sampler := logits.NewSampler(logits.Config{
		Seed:        opts.Seed,
		Temperature: opts.Temperature,
		TopK:        opts.TopK,
		TopP:        opts.TopP,
		MinKeep:     opts.MinKeep,
		Greedy:      opts.Greedy,
	}, logits.NewMapping(opts.IndexMapping))

	seq := make([][]int, batch)
	confs := make([][][2]float32, batch)
	for b := range seq {
		seq[b] = make([]int, maxSeq)
		confs[b] = make([][2]float32, maxSeq)
	}

	var stats Stats
	start := time.Now()

	prefillPos := make([]int, condLen)
	for i := range prefillPos {
		prefillPos[i] = i
	}
	next, pairs, err := g.prefill(condCombined, prefillPos, opts, sampler, log)
	if err != nil {
		return nil, fmt.Errorf("decode: prefill: %w", err)
	}
	for b := range next {
		seq[b][condLen] = next[b]
		confs[b][condLen] = pairs[b]
	}
	stats.TokensGenerated++

	latch := guidance.NewLatch(opts.CFGInterval)
	cur := next
	pos := condLen
	for i := 0; i < opts.MaxNewTokens-1; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids, cps, err := g.decodeOne(cur, pos, latch.Active(i), opts, sampler, log)
		if err != nil {
			return nil, fmt.Errorf("decode: step %d: %w", i, err)
		}
		pos++
		at := condLen + 1 + i
		for b := range ids {
			seq[b][at] = ids[b]
			confs[b][at] = cps[b]
		}
		cur = ids
		stats.TokensGenerated++
	}

	stats.Duration = time.Since(start)
	if secs := stats.Duration.Seconds(); secs > 0 {
		stats.TPS = float64(stats.TokensGenerated) / secs
	}

	res := &Result{
		Tokens:      make([][]int, batch),
		Confidences: make([][][2]float32, batch),
		Stats:       stats,
	}
	for b := range seq {
		res.Tokens[b] = seq[b][condLen:]
		res.Confidences[b] = confs[b][condLen:]
	}
	return res, nil
}

// prefill runs the model once over the entire conditioning span and samples
// the first generated token per batch row.
func (g *Generator) prefill(cond [][]int, pos []int, opts Options, sampler *logits.Sampler, log logger.Logger) ([]int, [][2]float32, error) {
	out, err := g.Model.Forward(nil, cond, pos)
	if err != nil {
		return nil, nil, err
	}
	rows := out.Last()
	if opts.GuidanceScale > 1 {
		blended, applied := guidance.Combine(rows, opts.GuidanceScale)
		if !applied {
			log.Warn("guidance batch not splittable in prefill, using raw logits", "batch", len(rows))
		}
		rows = blended
	}
	ids, pairs := sampler.Sample(rows)
	return ids, pairs, nil
}

// decodeOne advances generation by exactly one position.  pos is a single
// scalar position: decoding never spans a range.  When guidance is active the
// current tokens are duplicated across the doubled batch; cfgActive selects
// between the blended logits and the bare conditional half.
func (g *Generator) decodeOne(cur []int, pos int, cfgActive bool, opts Options, sampler *logits.Sampler, log logger.Logger) ([]int, [][2]float32, error) {
	var rows [][]float32
	if opts.GuidanceScale > 1 {
		doubled := make([]int, 0, 2*len(cur))
		doubled = append(doubled, cur...)
		doubled = append(doubled, cur...)
		out, err := g.Model.Forward(doubled, nil, []int{pos})
		if err != nil {
			return nil, nil, err
		}
		rows = out.Last()
		var applied bool
		if cfgActive {
			rows, applied = guidance.Combine(rows, opts.GuidanceScale)
		} else {
			rows, applied = guidance.CondHalf(rows)
		}
		if !applied {
			log.Warn("guidance batch not splittable in decode, using raw logits", "batch", 2*len(cur), "position", pos)
		}
	} else {
		out, err := g.Model.Forward(cur, nil, []int{pos})
		if err != nil {
			return nil, nil, err
		}
		rows = out.Last()
	}
	ids, pairs := sampler.Sample(rows)
	return ids, pairs, nil
}
