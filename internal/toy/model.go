// Package toy provides a minimal deterministic predictor used for testing
// and demonstrating the decoding engine.  It is deliberately simplistic: one
// embedding step, one mask-weighted attention pass over cached hidden states,
// and a projection back to vocabulary logits.
package toy

import (
	"errors"
	"fmt"
	"math"

	"github.com/samcharles93/arcon/internal/model"
	"github.com/samcharles93/arcon/internal/tensor"
)

// UncondToken is the conditioning token a text-conditional predictor treats
// as its learned unconditional embedding.
const UncondToken = 0

var errNoCaches = errors.New("toy: setup caches before forward")

// Config describes a toy predictor.
type Config struct {
	Vocab  int
	Hidden int

	// NumClasses is the class-conditional label space; label NumClasses
	// itself is the learned null class used for the unconditional half.
	NumClasses int
	// CondVocab is the text-conditional conditioning vocabulary, with
	// UncondToken reserved for the unconditional embedding.
	CondVocab int

	Mode model.Mode
	Seed int64
}

// Predictor implements model.Predictor over randomly initialised but
// reproducible weights.
type Predictor struct {
	cfg     Config
	tokEmb  tensor.Mat // [Vocab x Hidden]
	condEmb tensor.Mat // class: [(NumClasses+1) x Hidden]; text: [CondVocab x Hidden]
	proj    tensor.Mat // [Vocab x Hidden]

	// decoding state, rebuilt by SetupCaches
	batch, maxSeq int
	cache         [][][]float32 // [batch][pos] hidden state, nil until written
	mask          *model.Mask
}

// New constructs a predictor with the given configuration.  Weights are
// filled deterministically from the seed; two predictors built from the same
// config are identical.
func New(cfg Config) (*Predictor, error) {
	if cfg.Vocab <= 0 || cfg.Hidden <= 0 {
		return nil, fmt.Errorf("toy: vocab and hidden must be positive")
	}
	var condRows int
	switch cfg.Mode {
	case model.ModeClassConditional:
		if cfg.NumClasses <= 0 {
			return nil, fmt.Errorf("toy: class-conditional predictor needs NumClasses > 0")
		}
		condRows = cfg.NumClasses + 1 // trailing row is the null class
	case model.ModeTextConditional:
		if cfg.CondVocab <= 1 {
			return nil, fmt.Errorf("toy: text-conditional predictor needs CondVocab > 1")
		}
		condRows = cfg.CondVocab
	default:
		return nil, fmt.Errorf("toy: unsupported mode %s", cfg.Mode)
	}

	p := &Predictor{
		cfg:     cfg,
		tokEmb:  tensor.NewMat(cfg.Vocab, cfg.Hidden),
		condEmb: tensor.NewMat(condRows, cfg.Hidden),
		proj:    tensor.NewMat(cfg.Vocab, cfg.Hidden),
	}
	tensor.FillRand(&p.tokEmb, cfg.Seed+11)
	tensor.FillRand(&p.condEmb, cfg.Seed+23)
	tensor.FillRand(&p.proj, cfg.Seed+37)
	return p, nil
}

func (p *Predictor) Mode() model.Mode { return p.cfg.Mode }

func (p *Predictor) VocabSize() int { return p.cfg.Vocab }

// SetupCaches discards any previous decoding state and allocates hidden-state
// caches and a fresh causal mask for the given batch and sequence bounds.
func (p *Predictor) SetupCaches(maxBatchSize, maxSeqLength int) error {
	if maxBatchSize <= 0 || maxSeqLength <= 0 {
		return fmt.Errorf("toy: cache dimensions must be positive, got (%d, %d)", maxBatchSize, maxSeqLength)
	}
	p.batch = maxBatchSize
	p.maxSeq = maxSeqLength
	p.cache = make([][][]float32, maxBatchSize)
	for b := range p.cache {
		p.cache[b] = make([][]float32, maxSeqLength)
	}
	p.mask = model.NewMask(maxBatchSize, maxSeqLength)
	return nil
}

// CausalMask exposes the mask allocated by SetupCaches.
func (p *Predictor) CausalMask() *model.Mask { return p.mask }

// NullConditioning synthesises the unconditional half of a guided batch: the
// null class label for class-conditional predictors, a run of UncondToken for
// text-conditional ones.
func (p *Predictor) NullConditioning(cond [][]int) [][]int {
	rows := make([][]int, len(cond))
	for b := range cond {
		switch p.cfg.Mode {
		case model.ModeClassConditional:
			rows[b] = []int{p.cfg.NumClasses}
		default:
			rows[b] = make([]int, len(cond[b])) // zero value is UncondToken
		}
	}
	return rows
}

// Forward runs the predictor at the given positions.  Prefill passes cond and
// no tokens and may span several positions; decode passes one token per batch
// row at exactly one position.
func (p *Predictor) Forward(tokens []int, cond [][]int, pos []int) (model.Logits, error) {
	if (tokens == nil) == (cond == nil) {
		return model.Logits{}, model.ErrForwardInput
	}
	if p.mask == nil {
		return model.Logits{}, errNoCaches
	}

	if cond != nil {
		batch := len(cond)
		if batch > p.batch {
			return model.Logits{}, fmt.Errorf("toy: conditioning batch %d exceeds cache batch %d", batch, p.batch)
		}
		out := model.NewLogits(batch, len(pos), p.cfg.Vocab)
		for b, row := range cond {
			if len(row) != len(pos) {
				return model.Logits{}, fmt.Errorf("toy: conditioning row %d has length %d, want %d", b, len(row), len(pos))
			}
			for s, id := range row {
				p.step(b, pos[s], p.condEmb.Row(clampIndex(id, p.condEmb.R)), out.At(b, s))
			}
		}
		return out, nil
	}

	if len(pos) != 1 {
		return model.Logits{}, fmt.Errorf("toy: decode requires a single position, got %d", len(pos))
	}
	batch := len(tokens)
	if batch > p.batch {
		return model.Logits{}, fmt.Errorf("toy: token batch %d exceeds cache batch %d", batch, p.batch)
	}
	out := model.NewLogits(batch, 1, p.cfg.Vocab)
	for b, id := range tokens {
		p.step(b, pos[0], p.tokEmb.Row(clampIndex(id, p.cfg.Vocab)), out.At(b, 0))
	}
	return out, nil
}

// step caches the hidden state for (b, pos), attends over all cached states
// the mask allows, and writes vocabulary logits into dst.
func (p *Predictor) step(b, pos int, emb []float32, dst []float32) {
	h := make([]float32, p.cfg.Hidden)
	copy(h, emb)
	tensor.Tanh(h)
	p.cache[b][pos] = h

	maskRow := p.mask.Row(b, pos)
	scale := float32(1 / math.Sqrt(float64(p.cfg.Hidden)))
	negInf := float32(math.Inf(-1))

	scores := make([]float32, pos+1)
	for j := 0; j <= pos; j++ {
		if p.cache[b][j] == nil || maskRow[j] == 0 {
			scores[j] = negInf
			continue
		}
		scores[j] = tensor.Dot(h, p.cache[b][j]) * scale
	}
	tensor.Softmax(scores)

	ctxv := make([]float32, p.cfg.Hidden)
	for j, w := range scores {
		if w == 0 {
			continue
		}
		state := p.cache[b][j]
		for i := range ctxv {
			ctxv[i] += w * state[i]
		}
	}

	for v := 0; v < p.cfg.Vocab; v++ {
		dst[v] = tensor.Dot(p.proj.Row(v), ctxv)
	}
}

// clampIndex wraps an index into [0, n).
func clampIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
