package model

// Logits holds raw model outputs for a batch over one or more sequence
// positions, flattened row-major as [batch][seq][vocab].
type Logits struct {
	Batch, Seq, Vocab int
	Data              []float32
}

// NewLogits allocates a zeroed logits buffer.
func NewLogits(batch, seq, vocab int) Logits {
	if batch < 0 || seq < 0 || vocab < 0 {
		panic("negative dimension for logits")
	}
	return Logits{
		Batch: batch,
		Seq:   seq,
		Vocab: vocab,
		Data:  make([]float32, batch*seq*vocab),
	}
}

// At returns a view of the vocabulary row for batch row b at position s.
// Modifications to the returned slice update the underlying buffer.
func (l Logits) At(b, s int) []float32 {
	if b < 0 || b >= l.Batch || s < 0 || s >= l.Seq {
		panic("logits index out of range")
	}
	start := (b*l.Seq + s) * l.Vocab
	return l.Data[start : start+l.Vocab]
}

// Last returns views of the final-position vocabulary row for every batch
// row, dropping any earlier positions.  Sampling always operates on the
// last position only.
func (l Logits) Last() [][]float32 {
	rows := make([][]float32, l.Batch)
	for b := range rows {
		rows[b] = l.At(b, l.Seq-1)
	}
	return rows
}
