package accounts

import "testing"

func TestNextAccountNumber(t *testing.T) {
	tests := []struct {
		name  string
		taken []int
		want  int
	}{
		{"no accounts", nil, 0},
		{"contiguous from zero", []int{0, 1, 2}, 3},
		{"gap in the middle", []int{0, 2}, 1},
		{"zero free", []int{1, 2}, 0},
		{"unsorted input", []int{2, 0, 1}, 3},
		{"duplicates", []int{0, 0, 1}, 2},
		{"negative numbers ignored for gaps", []int{-1, 0, 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextAccountNumber(tt.taken); got != tt.want {
				t.Errorf("nextAccountNumber(%v) = %d, want %d", tt.taken, got, tt.want)
			}
		})
	}
}

func TestNextAccountNumberDoesNotMutateInput(t *testing.T) {
	taken := []int{2, 0, 1}
	nextAccountNumber(taken)
	if taken[0] != 2 || taken[1] != 0 || taken[2] != 1 {
		t.Errorf("input slice was reordered: %v", taken)
	}
}
