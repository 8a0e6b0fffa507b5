package model

import "errors"

// Mode identifies how a predictor is conditioned.  It is resolved once at the
// start of a generation; each mode carries its own conditioning-length rule
// and its own way of synthesising the unconditional half of a guided batch
// (see Predictor.NullConditioning).
type Mode int

const (
	// ModeClassConditional predictors take a single class label per batch row
	// (conditioning length 1) and use a learned null class for the
	// unconditional half.
	ModeClassConditional Mode = iota
	// ModeTextConditional predictors take a token sequence per batch row and
	// use a learned unconditional embedding for the unconditional half.
	ModeTextConditional
)

func (m Mode) String() string {
	switch m {
	case ModeClassConditional:
		return "class-conditional"
	case ModeTextConditional:
		return "text-conditional"
	default:
		return "unknown"
	}
}

// ErrForwardInput is returned when a Forward call does not supply exactly one
// of tokens and conditioning.
var ErrForwardInput = errors.New("model: forward requires exactly one of tokens and conditioning")

// Predictor is the contract the decoding engine drives a model through.
//
// The engine never looks inside the model: it calls SetupCaches exactly once
// per generation, then Forward once for the prefill over the full
// conditioning span and once per decode step.  Exactly one of tokens and
// cond must be non-nil per Forward call: prefill passes conditioning and no
// tokens, decode passes one token per batch row and no conditioning.
//
// Implementations own all incremental decoding state (key/value caches,
// attention mask).  SetupCaches must discard any state left over from a
// previous generation; sharing one Predictor across concurrent generations is
// not supported.
type Predictor interface {
	// Mode reports how the predictor is conditioned.
	Mode() Mode

	// VocabSize is the size of the generation vocabulary.
	VocabSize() int

	// SetupCaches (re)initialises decoding state sized for maxBatchSize rows
	// over maxSeqLength positions.  It must be called before any Forward
	// call of a generation.
	SetupCaches(maxBatchSize, maxSeqLength int) error

	// Forward runs the model at the given positions and returns logits over
	// the vocabulary for every input position.
	Forward(tokens []int, cond [][]int, pos []int) (Logits, error)

	// NullConditioning returns the synthetic unconditional conditioning rows
	// matching the shape of cond.  The engine appends these as the second
	// half of a guided batch.
	NullConditioning(cond [][]int) [][]int

	// CausalMask exposes the mask used for attention so the engine can fold
	// a caller-supplied conditioning validity mask into it.  Only valid
	// after SetupCaches.
	CausalMask() *Mask
}
