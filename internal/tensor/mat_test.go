package tensor

import "testing"

func TestMatRowView(t *testing.T) {
	t.Parallel()
	m := NewMatFromData(2, 3, []float32{1, 2, 3, 4, 5, 6})
	row := m.Row(1)
	if len(row) != 3 || row[0] != 4 {
		t.Fatalf("unexpected row view %v", row)
	}
	row[0] = 9
	if m.Data[3] != 9 {
		t.Fatal("row view should alias the underlying data")
	}
}

func TestFillRandDeterministic(t *testing.T) {
	t.Parallel()
	a := NewMat(4, 4)
	b := NewMat(4, 4)
	FillRand(&a, 7)
	FillRand(&b, 7)
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("same seed produced different values at %d", i)
		}
	}
}

func TestNewMatFromDataPanicsOnMismatch(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for mismatched data length")
		}
	}()
	NewMatFromData(2, 2, []float32{1, 2, 3})
}
