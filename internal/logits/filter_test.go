package logits

import (
	"math"
	"testing"

	"github.com/samcharles93/arcon/internal/tensor"
)

func countKept(row []float32) int {
	n := 0
	for _, v := range row {
		if !math.IsInf(float64(v), -1) {
			n++
		}
	}
	return n
}

func TestFilterTopK(t *testing.T) {
	t.Parallel()
	row := []float32{2, 1, 0.1, 0.1}
	out := Filter(row, 2, 1, 1)
	if math.IsInf(float64(out[0]), -1) || math.IsInf(float64(out[1]), -1) {
		t.Fatalf("top two entries should survive, got %v", out)
	}
	if !math.IsInf(float64(out[2]), -1) || !math.IsInf(float64(out[3]), -1) {
		t.Fatalf("tail entries should be excluded, got %v", out)
	}
	if row[2] != 0.1 {
		t.Fatal("input row must not be modified")
	}
}

func TestFilterTopKKeepsTies(t *testing.T) {
	t.Parallel()
	row := []float32{3, 1, 1, 1}
	out := Filter(row, 2, 1, 1)
	// All entries tied at the k-th value survive.
	if got := countKept(out); got != 4 {
		t.Fatalf("kept %d entries, want 4 (ties at threshold)", got)
	}
}

func TestFilterTopKAtLeastK(t *testing.T) {
	t.Parallel()
	row := []float32{0.5, 0.4, 0.3, 0.2, 0.1}
	for k := 1; k <= 5; k++ {
		out := Filter(row, k, 1, 1)
		if got := countKept(out); got < k {
			t.Fatalf("top-k %d kept only %d entries", k, got)
		}
	}
}

func TestFilterTopKClamped(t *testing.T) {
	t.Parallel()
	row := []float32{1, 2, 3}
	out := Filter(row, 100, 1, 1)
	if got := countKept(out); got != 3 {
		t.Fatalf("oversized k should keep everything, kept %d", got)
	}
}

func TestFilterTopP(t *testing.T) {
	t.Parallel()
	// Sharply peaked distribution: index 0 carries almost all the mass.
	row := []float32{10, 1, 0.5, 0.1}
	out := Filter(row, 0, 0.9, 1)
	if math.IsInf(float64(out[0]), -1) {
		t.Fatal("top entry must survive nucleus masking")
	}
	if countKept(out) >= len(row) {
		t.Fatalf("nucleus masking removed nothing: %v", out)
	}
}

func TestFilterTopPMinimalPrefix(t *testing.T) {
	t.Parallel()
	// Uniform logits: each entry carries 0.25 of the mass.  With topP=0.5 the
	// first two sorted entries cover the threshold and the crossing entry is
	// retained, so exactly three survive.
	row := []float32{1, 1, 1, 1}
	out := Filter(row, 0, 0.5, 1)
	if got := countKept(out); got != 3 {
		t.Fatalf("kept %d entries, want 3", got)
	}
}

func TestFilterNeverEmpty(t *testing.T) {
	t.Parallel()
	row := []float32{5, 1, 0}
	out := Filter(row, 0, 0.0001, 1)
	if got := countKept(out); got < 1 {
		t.Fatal("filter must always keep at least one entry")
	}
	if math.IsInf(float64(out[0]), -1) {
		t.Fatal("surviving entry should be the top-ranked one")
	}
}

func TestFilterMinKeepProtectsPrefix(t *testing.T) {
	t.Parallel()
	row := []float32{8, 4, 2, 1}
	out := Filter(row, 0, 0.01, 3)
	if got := countKept(out); got < 3 {
		t.Fatalf("minKeep=3 kept only %d entries", got)
	}
}

func TestFilterGreedyScenario(t *testing.T) {
	t.Parallel()
	row := []float32{2, 1, 0.1, 0.1}
	out := Filter(row, 2, 1, 1)
	tensor.Softmax(out)
	if out[2] != 0 || out[3] != 0 {
		t.Fatalf("excluded entries should have zero probability, got %v", out)
	}
	// softmax over the two survivors: e^2 / (e^2 + e^1).
	want := float32(math.Exp(2) / (math.Exp(2) + math.Exp(1)))
	if math.Abs(float64(out[0]-want)) > 1e-5 {
		t.Fatalf("survivor probability %v, want %v", out[0], want)
	}
}
