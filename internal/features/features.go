package features

import "fmt"

// Pair is an unordered attribute pair, always stored with F1 < F2.
type Pair struct {
	F1 int `json:"f1"`
	F2 int `json:"f2"`
}

func NewPair(a, b int) (Pair, error) {
	if a == b {
		return Pair{}, fmt.Errorf("pair (%d, %d) repeats an attribute", a, b)
	}
	if a > b {
		a, b = b, a
	}
	return Pair{F1: a, F2: b}, nil
}

func (p Pair) String() string { return fmt.Sprintf("(%d, %d)", p.F1, p.F2) }

// AllPairs enumerates (i, j), i < j, in row-major order.
func AllPairs(n int) []Pair {
	if n < 2 {
		return nil
	}
	out := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, Pair{F1: i, F2: j})
		}
	}
	return out
}

// UsedAttributes flags every attribute referenced by pairs.
func UsedAttributes(n int, pairs []Pair) ([]bool, error) {
	used := make([]bool, n)
	for _, p := range pairs {
		if p.F1 < 0 || p.F2 >= n || p.F1 >= p.F2 {
			return nil, fmt.Errorf("pair %s is not valid for %d attributes", p, n)
		}
		used[p.F1] = true
		used[p.F2] = true
	}
	return used, nil
}
