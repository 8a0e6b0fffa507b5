package logits

import (
	"math"
	"slices"
	"sort"

	"github.com/samcharles93/arcon/internal/tensor"
)

// filterValue marks an excluded vocabulary entry.  Softmax maps it to a
// probability of exactly zero.
var filterValue = float32(math.Inf(-1))

// Filter applies top-k and/or nucleus (top-p) masking to one logits row and
// returns a new row with excluded entries set to -Inf.  The input row is not
// modified.
//
// topK <= 0 disables top-k; topP >= 1 disables nucleus masking.  When both
// are enabled top-k runs first and nucleus masking operates on the already
// masked row.  Out-of-range parameters are clamped, never rejected: topK is
// clamped to [minKeep, len(row)], and minKeep below 1 is treated as 1.
//
// The first-ranked entry always survives both stages, so a row can never end
// up fully excluded.
func Filter(row []float32, topK int, topP float32, minKeep int) []float32 {
	out := slices.Clone(row)
	if minKeep < 1 {
		minKeep = 1
	}

	if topK > 0 {
		k := min(max(topK, minKeep), len(out))
		vals := slices.Clone(out)
		sort.Slice(vals, func(i, j int) bool { return vals[i] > vals[j] })
		// Ties at the k-th value are kept, so the effective count can
		// exceed k.
		threshold := vals[k-1]
		for i, v := range out {
			if v < threshold {
				out[i] = filterValue
			}
		}
	}

	if topP < 1 {
		maskNucleus(out, topP, minKeep)
	}

	return out
}

// maskNucleus removes the low-probability tail whose cumulative softmax mass
// lies beyond topP, in place.  The removal mask is computed in sorted order,
// protected for the first minKeep entries, shifted right by one so the entry
// that first crosses the threshold is retained, then scattered back to
// vocabulary order.
func maskNucleus(out []float32, topP float32, minKeep int) {
	n := len(out)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return out[idx[a]] > out[idx[b]] })

	sorted := make([]float32, n)
	for i, j := range idx {
		sorted[i] = out[j]
	}
	tensor.Softmax(sorted)

	remove := make([]bool, n)
	var cum float32
	for i, p := range sorted {
		cum += p
		remove[i] = cum > topP
	}
	if minKeep > 1 {
		for i := 0; i < minKeep && i < n; i++ {
			remove[i] = false
		}
	}
	for i := n - 1; i >= 1; i-- {
		remove[i] = remove[i-1]
	}
	remove[0] = false

	for i, r := range remove {
		if r {
			out[idx[i]] = filterValue
		}
	}
}
