// Package guidance implements classifier-free guidance: blending the
// conditional and unconditional halves of a doubled-batch forward pass to
// sharpen adherence to the conditioning.
package guidance

// Combine blends logits computed over a doubled batch, where the first half
// of the rows is the conditional prediction and the second half the
// unconditional one.  The effective logits are
//
//	uncond + (cond - uncond) * scale
//
// a linear extrapolation away from the unconditional prediction.
//
// A batch that cannot be split evenly (fewer than two rows, or an odd count)
// is returned unchanged with applied=false; the caller decides how to surface
// the degraded step.  Combine never modifies the input rows.
func Combine(rows [][]float32, scale float32) (blended [][]float32, applied bool) {
	half := len(rows) / 2
	if half == 0 || len(rows)%2 != 0 {
		return rows, false
	}
	blended = make([][]float32, half)
	for b := 0; b < half; b++ {
		cond, uncond := rows[b], rows[half+b]
		row := make([]float32, len(cond))
		for i := range cond {
			row[i] = uncond[i] + (cond[i]-uncond[i])*scale
		}
		blended[b] = row
	}
	return blended, true
}

// CondHalf returns the conditional half of a doubled batch without blending.
// Decode steps use it once the interval latch has tripped: the batch stays
// doubled for cache-shape consistency, but only the conditional prediction
// feeds the sampler.  The same not-splittable fallback as Combine applies.
func CondHalf(rows [][]float32) (cond [][]float32, applied bool) {
	half := len(rows) / 2
	if half == 0 || len(rows)%2 != 0 {
		return rows, false
	}
	return rows[:half], true
}

// Latch disables guidance after a configured number of decode steps.  It is
// one-way: once a step index beyond the interval has been seen, every later
// query reports inactive, regardless of its step index.  An interval of -1
// (or any negative value) keeps guidance active for the whole generation.
type Latch struct {
	interval int
	tripped  bool
}

// NewLatch returns a latch for the given interval.
func NewLatch(interval int) *Latch {
	return &Latch{interval: interval}
}

// Active reports whether guidance blending should apply at the given decode
// step index, tripping the latch when the step exceeds the interval.
func (l *Latch) Active(step int) bool {
	if l.interval > -1 && step > l.interval {
		l.tripped = true
	}
	return !l.tripped
}
