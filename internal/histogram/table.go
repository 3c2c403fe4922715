package histogram

// Quadrant indices in a Table cell.
const (
	LowLow   = iota // f1 <= v1, f2 <= v2
	LowHigh         // f1 <= v1, f2 >  v2
	HighLow         // f1 >  v1, f2 <= v2
	HighHigh        // f1 >  v1, f2 >  v2
)

// Table holds, for every split point (v1, v2), the weighted counts and
// target sums of the four quadrants, of the f1-missing margin split at v2
// and of the f2-missing margin split at v1. Index 0 of the margin pairs is
// the low side.
type Table struct {
	Count [][][4]float64
	Resp  [][][4]float64

	CountOnMV1 [][2]float64
	RespOnMV1  [][2]float64
	CountOnMV2 [][2]float64
	RespOnMV2  [][2]float64
}

func newTable(size1, size2 int) *Table {
	t := &Table{
		Count:      make([][][4]float64, size1),
		Resp:       make([][][4]float64, size1),
		CountOnMV1: make([][2]float64, size2),
		RespOnMV1:  make([][2]float64, size2),
		CountOnMV2: make([][2]float64, size1),
		RespOnMV2:  make([][2]float64, size1),
	}
	for v1 := range t.Count {
		t.Count[v1] = make([][4]float64, size2)
		t.Resp[v1] = make([][4]float64, size2)
	}
	return t
}

func (t *Table) Dims() (size1, size2 int) { return len(t.CountOnMV2), len(t.CountOnMV1) }

// ComputeTable derives the quadrant table of a pair from its joint histogram
// and the cumulative histograms of both attributes. Column accumulators and
// a running row sum keep every cell O(1); the remaining quadrants follow by
// inclusion-exclusion against the cumulative histograms, with the missing
// margins removed from them first.
func ComputeTable(h *Histogram2D, c1, c2 *CHistogram) *Table {
	size1, size2 := h.Dims()
	t := newTable(size1, size2)

	// f1 missing, f2 <= v2
	m1Count := make([]float64, size2)
	m1Resp := make([]float64, size2)
	var accC, accR float64
	for v2 := 0; v2 < size2; v2++ {
		accC += h.CountOnMV1[v2]
		accR += h.RespOnMV1[v2]
		m1Count[v2], m1Resp[v2] = accC, accR
	}
	m1TotC, m1TotR := accC, accR
	for v2 := 0; v2 < size2; v2++ {
		t.CountOnMV1[v2] = [2]float64{m1Count[v2], m1TotC - m1Count[v2]}
		t.RespOnMV1[v2] = [2]float64{m1Resp[v2], m1TotR - m1Resp[v2]}
	}

	var m2TotC, m2TotR float64
	for v1 := 0; v1 < size1; v1++ {
		m2TotC += h.CountOnMV2[v1]
		m2TotR += h.RespOnMV2[v1]
	}

	// both present
	c1TotR, c1TotC := c1.Total()
	bothC := c1TotC - m2TotC
	bothR := c1TotR - m2TotR

	colCount := make([]float64, size2)
	colResp := make([]float64, size2)
	var m2C, m2R float64
	for v1 := 0; v1 < size1; v1++ {
		m2C += h.CountOnMV2[v1]
		m2R += h.RespOnMV2[v1]
		t.CountOnMV2[v1] = [2]float64{m2C, m2TotC - m2C}
		t.RespOnMV2[v1] = [2]float64{m2R, m2TotR - m2R}

		rowCount := h.Count.RawRowView(v1)
		rowResp := h.Resp.RawRowView(v1)
		lowC := c1.Count[v1] - m2C
		lowR := c1.Sum[v1] - m2R
		var jC, jR float64
		for v2 := 0; v2 < size2; v2++ {
			colCount[v2] += rowCount[v2]
			colResp[v2] += rowResp[v2]
			jC += colCount[v2]
			jR += colResp[v2]

			count := &t.Count[v1][v2]
			count[LowLow] = jC
			count[LowHigh] = lowC - jC
			count[HighLow] = c2.Count[v2] - m1Count[v2] - jC
			count[HighHigh] = bothC - count[LowLow] - count[LowHigh] - count[HighLow]

			resp := &t.Resp[v1][v2]
			resp[LowLow] = jR
			resp[LowHigh] = lowR - jR
			resp[HighLow] = c2.Sum[v2] - m1Resp[v2] - jR
			resp[HighHigh] = bothR - resp[LowLow] - resp[LowHigh] - resp[HighLow]
		}
	}
	return t
}
