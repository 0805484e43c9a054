package accounts

import "sort"

// nextAccountNumber returns the smallest non-negative integer not already
// taken. Numbers are sorted ascending and scanned with a running candidate;
// the first gap wins, so numbers freed by deleted accounts are reused.
func nextAccountNumber(taken []int) int {
	numbers := make([]int, len(taken))
	copy(numbers, taken)
	sort.Ints(numbers)

	candidate := -1
	for _, n := range numbers {
		if n > candidate+1 {
			break
		}
		candidate = n
	}
	return candidate + 1
}
