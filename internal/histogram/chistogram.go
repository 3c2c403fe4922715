// Package histogram holds the sufficient statistics FAST scores pairs from:
// per-attribute cumulative histograms, joint two-attribute histograms and
// the quadrant tables derived from both.
package histogram

import (
	"gonum.org/v1/gonum/floats"

	"pairrank/internal/data"
)

// CHistogram is a cumulative histogram of one attribute: after
// ComputeCHistograms, Sum[i] and Count[i] cover every present value <= i.
type CHistogram struct {
	Sum       []float64
	Count     []float64
	SumOnMV   float64
	CountOnMV float64
}

func NewCHistogram(n int) *CHistogram {
	return &CHistogram{Sum: make([]float64, n), Count: make([]float64, n)}
}

func (h *CHistogram) Size() int { return len(h.Sum) }

// Total returns the weighted target and weight over present values.
func (h *CHistogram) Total() (sum, count float64) {
	n := h.Size()
	return h.Sum[n-1], h.Count[n-1]
}

// ComputeCHistograms builds a cumulative histogram for every attribute with
// used[j] set; other entries stay nil. It is the only pass that reads
// instance targets and weights, and it also returns ySq = Σ target²·weight.
func ComputeCHistograms(ds *data.Dataset, used []bool) ([]*CHistogram, float64, error) {
	hists := make([]*CHistogram, ds.NumAttributes())
	idx := make([]int, 0, len(hists))
	for j, att := range ds.Attributes {
		if !used[j] {
			continue
		}
		n, err := att.NumBins()
		if err != nil {
			return nil, 0, err
		}
		hists[j] = NewCHistogram(n)
		idx = append(idx, j)
	}

	ySq := 0.0
	for _, in := range ds.Instances {
		resp := in.Target
		w := in.Weight
		for _, j := range idx {
			h := hists[j]
			if !in.IsMissing(j) {
				v := in.Values[j]
				h.Sum[v] += resp * w
				h.Count[v] += w
			} else {
				h.SumOnMV += resp * w
				h.CountOnMV += w
			}
		}
		ySq += resp * resp * w
	}

	for _, j := range idx {
		floats.CumSum(hists[j].Sum, hists[j].Sum)
		floats.CumSum(hists[j].Count, hists[j].Count)
	}
	return hists, ySq, nil
}
