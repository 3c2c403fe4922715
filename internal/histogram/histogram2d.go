package histogram

import (
	"gonum.org/v1/gonum/mat"

	"pairrank/internal/data"
)

// Histogram2D is the raw (non-cumulative) joint histogram of one attribute
// pair. Instances missing one attribute land in the margin keyed by the
// other attribute's bin; instances missing both land in the MV12 scalars.
type Histogram2D struct {
	Resp  *mat.Dense
	Count *mat.Dense

	RespOnMV1  []float64 // f1 missing, by f2 bin
	CountOnMV1 []float64
	RespOnMV2  []float64 // f2 missing, by f1 bin
	CountOnMV2 []float64

	RespOnMV12  float64
	CountOnMV12 float64
}

func NewHistogram2D(size1, size2 int) *Histogram2D {
	return &Histogram2D{
		Resp:       mat.NewDense(size1, size2, nil),
		Count:      mat.NewDense(size1, size2, nil),
		RespOnMV1:  make([]float64, size2),
		CountOnMV1: make([]float64, size2),
		RespOnMV2:  make([]float64, size1),
		CountOnMV2: make([]float64, size1),
	}
}

func (h *Histogram2D) Dims() (size1, size2 int) { return h.Resp.Dims() }

// ComputeHistogram2D accumulates every instance of ds into h for the pair
// (f1, f2). h must be freshly allocated with the pair's bin counts.
func ComputeHistogram2D(ds *data.Dataset, f1, f2 int, h *Histogram2D) {
	resp := h.Resp.RawMatrix()
	count := h.Count.RawMatrix()
	for _, in := range ds.Instances {
		r := in.Target * in.Weight
		w := in.Weight
		miss1, miss2 := in.IsMissing(f1), in.IsMissing(f2)
		switch {
		case !miss1 && !miss2:
			v1, v2 := in.Values[f1], in.Values[f2]
			resp.Data[v1*resp.Stride+v2] += r
			count.Data[v1*count.Stride+v2] += w
		case miss1 && !miss2:
			v2 := in.Values[f2]
			h.RespOnMV1[v2] += r
			h.CountOnMV1[v2] += w
		case !miss1 && miss2:
			v1 := in.Values[f1]
			h.RespOnMV2[v1] += r
			h.CountOnMV2[v1] += w
		default:
			h.RespOnMV12 += r
			h.CountOnMV12 += w
		}
	}
}
