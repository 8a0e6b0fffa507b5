package model

// Mask is a per-row attention mask of shape (batch, seq, seq).  An entry of 1
// allows position r to attend to position c, 0 forbids it.  The predictor
// owns the mask; the decoding engine only adjusts the conditioning columns
// when the caller supplies an embedding validity mask.
type Mask struct {
	Batch, Seq int
	Data       []float32
}

// NewMask allocates a causal (lower-triangular) mask for batch rows over seq
// positions.
func NewMask(batch, seq int) *Mask {
	m := &Mask{
		Batch: batch,
		Seq:   seq,
		Data:  make([]float32, batch*seq*seq),
	}
	for b := 0; b < batch; b++ {
		for r := 0; r < seq; r++ {
			row := m.Row(b, r)
			for c := 0; c <= r; c++ {
				row[c] = 1
			}
		}
	}
	return m
}

// Row returns a view of the mask row for batch row b at position r.
func (m *Mask) Row(b, r int) []float32 {
	if b < 0 || b >= m.Batch || r < 0 || r >= m.Seq {
		panic("mask index out of range")
	}
	start := (b*m.Seq + r) * m.Seq
	return m.Data[start : start+m.Seq]
}

// ApplyConditioning multiplies the first len(valid[b]) columns of every row
// of batch entry b by the given validity flags, zeroing attention into
// conditioning positions marked invalid.  valid must have exactly Batch rows.
func (m *Mask) ApplyConditioning(valid [][]bool) {
	for b := 0; b < m.Batch; b++ {
		flags := valid[b]
		for r := 0; r < m.Seq; r++ {
			row := m.Row(b, r)
			for c, ok := range flags {
				if !ok {
					row[c] = 0
				}
			}
		}
	}
}

// ForceDiagonal sets every diagonal entry to 1 so a position can always
// attend to itself, overriding any caller-supplied conditioning mask.
func (m *Mask) ForceDiagonal() {
	for b := 0; b < m.Batch; b++ {
		for r := 0; r < m.Seq; r++ {
			m.Row(b, r)[r] = 1
		}
	}
}
