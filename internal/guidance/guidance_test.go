package guidance

import "testing"

func TestCombine(t *testing.T) {
	t.Parallel()
	rows := [][]float32{
		{2, 4}, // cond
		{1, 2}, // uncond
	}
	blended, applied := Combine(rows, 3)
	if !applied {
		t.Fatal("even two-row batch should blend")
	}
	if len(blended) != 1 {
		t.Fatalf("blended batch size %d, want 1", len(blended))
	}
	// uncond + (cond - uncond) * scale
	if blended[0][0] != 4 || blended[0][1] != 8 {
		t.Fatalf("blended row %v, want [4 8]", blended[0])
	}
	if rows[0][0] != 2 || rows[1][0] != 1 {
		t.Fatal("input rows must not be modified")
	}
}

func TestCombineScaleOneIsIdentity(t *testing.T) {
	t.Parallel()
	rows := [][]float32{
		{0.5, -1, 3},
		{9, 9, 9},
	}
	blended, applied := Combine(rows, 1)
	if !applied {
		t.Fatal("expected blend to apply")
	}
	for i, v := range blended[0] {
		if v != rows[0][i] {
			t.Fatalf("scale 1 should reproduce the conditional half, got %v", blended[0])
		}
	}
}

func TestCombineNotSplittable(t *testing.T) {
	t.Parallel()
	cases := [][][]float32{
		nil,
		{{1, 2}},
		{{1}, {2}, {3}},
	}
	for _, rows := range cases {
		blended, applied := Combine(rows, 2)
		if applied {
			t.Fatalf("batch of %d rows should not blend", len(rows))
		}
		if len(blended) != len(rows) {
			t.Fatal("fallback must return the input unchanged")
		}
	}
}

func TestCondHalf(t *testing.T) {
	t.Parallel()
	rows := [][]float32{{1}, {2}, {3}, {4}}
	cond, applied := CondHalf(rows)
	if !applied || len(cond) != 2 {
		t.Fatalf("CondHalf = %v,%v, want first two rows", cond, applied)
	}
	if cond[0][0] != 1 || cond[1][0] != 2 {
		t.Fatalf("conditional half %v, want rows 1 and 2", cond)
	}

	single, applied := CondHalf([][]float32{{7}})
	if applied || len(single) != 1 {
		t.Fatal("single-row batch should fall back unchanged")
	}
}

func TestLatch(t *testing.T) {
	t.Parallel()
	l := NewLatch(5)
	for step := 0; step <= 5; step++ {
		if !l.Active(step) {
			t.Fatalf("step %d should be active", step)
		}
	}
	for step := 6; step <= 9; step++ {
		if l.Active(step) {
			t.Fatalf("step %d should be inactive", step)
		}
	}
}

func TestLatchOneWay(t *testing.T) {
	t.Parallel()
	l := NewLatch(2)
	if !l.Active(0) {
		t.Fatal("step 0 should be active")
	}
	if l.Active(3) {
		t.Fatal("step 3 should trip the latch")
	}
	// Earlier step indices stay inactive once tripped.
	if l.Active(0) {
		t.Fatal("latch must not reset")
	}
}

func TestLatchNegativeIntervalAlwaysActive(t *testing.T) {
	t.Parallel()
	l := NewLatch(-1)
	for step := 0; step < 100; step++ {
		if !l.Active(step) {
			t.Fatalf("step %d should be active with interval -1", step)
		}
	}
}
