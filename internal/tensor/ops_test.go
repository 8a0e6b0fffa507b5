package tensor

import (
	"math"
	"testing"
)

func TestSoftmaxSumsToOne(t *testing.T) {
	t.Parallel()
	cases := [][]float32{
		{0, 0, 0, 0},
		{1, 2, 3},
		{-100, 0, 100},
		{1e30, 1e30},
		{5},
	}
	for _, x := range cases {
		row := append([]float32(nil), x...)
		Softmax(row)
		var sum float64
		for _, v := range row {
			sum += float64(v)
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Fatalf("softmax(%v) sums to %v, want 1", x, sum)
		}
	}
}

func TestSoftmaxNegInfMapsToZero(t *testing.T) {
	t.Parallel()
	negInf := float32(math.Inf(-1))
	row := []float32{1, negInf, 2, negInf}
	Softmax(row)
	if row[1] != 0 || row[3] != 0 {
		t.Fatalf("excluded entries should have zero probability, got %v", row)
	}
	if row[0] == 0 || row[2] == 0 {
		t.Fatalf("kept entries should have positive probability, got %v", row)
	}
}

func TestSoftmaxOrderPreserved(t *testing.T) {
	t.Parallel()
	row := []float32{2, 1, 0.1, 0.1}
	Softmax(row)
	if !(row[0] > row[1] && row[1] > row[2]) {
		t.Fatalf("softmax should preserve ordering, got %v", row)
	}
}

func TestDot(t *testing.T) {
	t.Parallel()
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	if got := Dot(a, b); got != 32 {
		t.Fatalf("Dot = %v, want 32", got)
	}
}

func TestAdd(t *testing.T) {
	t.Parallel()
	dst := []float32{1, 2}
	Add(dst, []float32{3, 4})
	if dst[0] != 4 || dst[1] != 6 {
		t.Fatalf("Add result %v, want [4 6]", dst)
	}
}

func TestTanhBounded(t *testing.T) {
	t.Parallel()
	x := []float32{-50, -1, 0, 1, 50}
	Tanh(x)
	for i, v := range x {
		if v < -1 || v > 1 {
			t.Fatalf("tanh out of range at %d: %v", i, v)
		}
	}
	if x[2] != 0 {
		t.Fatalf("tanh(0) = %v, want 0", x[2])
	}
}
