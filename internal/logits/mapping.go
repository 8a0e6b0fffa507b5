package logits

import "sort"

// Mapping links token ids to paired alternates, e.g. two codebook indices
// that encode the same semantic unit.  Lookups work in both directions in
// O(1): the reverse index is built once at construction instead of scanning
// the forward entries on every sample.
type Mapping struct {
	fwd map[int]int
	rev map[int]int
}

// NewMapping builds a bidirectional mapping from the given pairs.  A nil or
// empty pairs map yields a nil Mapping, which is valid and never matches.
// When several keys share one value, the reverse entry resolves to the
// lowest key so lookups stay deterministic.
func NewMapping(pairs map[int]int) *Mapping {
	if len(pairs) == 0 {
		return nil
	}
	keys := make([]int, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	m := &Mapping{
		fwd: make(map[int]int, len(pairs)),
		rev: make(map[int]int, len(pairs)),
	}
	for _, k := range keys {
		v := pairs[k]
		m.fwd[k] = v
		if _, taken := m.rev[v]; !taken {
			m.rev[v] = k
		}
	}
	return m
}

// Paired returns the token linked to id, checking the forward direction
// first.  A nil receiver reports no link.
func (m *Mapping) Paired(id int) (int, bool) {
	if m == nil {
		return 0, false
	}
	if p, ok := m.fwd[id]; ok {
		return p, true
	}
	if p, ok := m.rev[id]; ok {
		return p, true
	}
	return 0, false
}

// Len reports the number of forward entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.fwd)
}
