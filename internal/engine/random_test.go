package engine

import (
	"slices"
	"testing"
)

func TestRandPickerIsReproducible(t *testing.T) {
	a, b := NewRandPicker(99), NewRandPicker(99)
	for i := 0; i < 50; i++ {
		n := i%7 + 1
		x, y := a.Pick(n), b.Pick(n)
		if x != y {
			t.Fatalf("pick %d: %d != %d", i, x, y)
		}
		if x < 0 || x >= n {
			t.Fatalf("pick %d out of range [0,%d): %d", i, n, x)
		}
	}
}

func TestPickClampsOutOfRange(t *testing.T) {
	tests := []struct {
		raw, n, want int
	}{
		{5, 3, 2},
		{-1, 3, 2},
		{3, 3, 0},
		{1, 3, 1},
	}
	for _, tt := range tests {
		got := pick(PickerFunc(func(int) int { return tt.raw }), tt.n)
		if got != tt.want {
			t.Errorf("pick(%d of %d): expected %d, got %d", tt.raw, tt.n, tt.want, got)
		}
	}
}

func TestShuffleKeepsElements(t *testing.T) {
	s := []string{"a", "b", "c", "d", "e"}
	shuffle(NewRandPicker(1), s)
	sorted := slices.Clone(s)
	slices.Sort(sorted)
	if !slices.Equal(sorted, []string{"a", "b", "c", "d", "e"}) {
		t.Errorf("shuffle lost elements: %v", s)
	}

	same := []int{1, 2, 3, 4}
	shuffle(identityPicker, same)
	if !slices.Equal(same, []int{1, 2, 3, 4}) {
		t.Errorf("identity picker should not move anything: %v", same)
	}
}
