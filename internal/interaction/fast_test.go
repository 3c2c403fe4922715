package interaction

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairrank/internal/data"
	"pairrank/internal/features"
	"pairrank/internal/histogram"
)

func gridDataset(targets ...float64) *data.Dataset {
	return &data.Dataset{
		Attributes: []data.Attribute{data.Binned(0, "a", 2), data.Binned(1, "b", 2)},
		Instances: []data.Instance{
			{Values: []int{0, 0}, Target: targets[0], Weight: 1},
			{Values: []int{0, 1}, Target: targets[1], Weight: 1},
			{Values: []int{1, 0}, Target: targets[2], Weight: 1},
			{Values: []int{1, 1}, Target: targets[3], Weight: 1},
		},
	}
}

func randomDataset(seed int64, n int, bins []int, missingRate float64) *data.Dataset {
	rng := rand.New(rand.NewSource(seed))
	ds := &data.Dataset{}
	for j, b := range bins {
		ds.Attributes = append(ds.Attributes, data.Binned(j, "", b))
	}
	for i := 0; i < n; i++ {
		in := data.Instance{Values: make([]int, len(bins)), Target: rng.NormFloat64(), Weight: 0.5 + rng.Float64()}
		for j, b := range bins {
			if rng.Float64() < missingRate {
				in.Values[j] = data.Missing
			} else {
				in.Values[j] = rng.Intn(b)
			}
		}
		ds.Instances = append(ds.Instances, in)
	}
	return ds
}

type cell struct{ sumW, sumWY, sumWYY float64 }

func (c *cell) add(y, w float64) {
	c.sumW += w
	c.sumWY += w * y
	c.sumWYY += w * y * y
}

// rss of predicting the weighted mean of the cell.
func (c cell) rss() float64 {
	if c.sumW == 0 {
		return c.sumWYY
	}
	return c.sumWYY - c.sumWY*c.sumWY/c.sumW
}

// bruteWeight assigns every instance to its cell for each split directly.
func bruteWeight(ds *data.Dataset, f1, f2 int) float64 {
	s1, _ := ds.Attributes[f1].NumBins()
	s2, _ := ds.Attributes[f2].NumBins()
	best := math.Inf(1)
	for v1 := 0; v1 < s1-1; v1++ {
		for v2 := 0; v2 < s2-1; v2++ {
			var quad [4]cell
			var mv1, mv2 [2]cell
			var mv12 cell
			for _, in := range ds.Instances {
				a, b := in.Values[f1], in.Values[f2]
				hi1, hi2 := 0, 0
				if a > v1 {
					hi1 = 1
				}
				if b > v2 {
					hi2 = 1
				}
				switch {
				case a >= 0 && b >= 0:
					quad[2*hi1+hi2].add(in.Target, in.Weight)
				case a < 0 && b >= 0:
					mv1[hi2].add(in.Target, in.Weight)
				case a >= 0 && b < 0:
					mv2[hi1].add(in.Target, in.Weight)
				default:
					mv12.add(in.Target, in.Weight)
				}
			}
			total := mv12.rss()
			for _, c := range quad {
				total += c.rss()
			}
			for i := 0; i < 2; i++ {
				total += mv1[i].rss() + mv2[i].rss()
			}
			best = min(best, total)
		}
	}
	return best
}

func weightOf(t *testing.T, ds *data.Dataset, f1, f2 int) float64 {
	t.Helper()
	p, err := features.NewPair(f1, f2)
	require.NoError(t, err)
	res, err := ScorePairs(ds, []features.Pair{p}, nil, 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	return res[0].Weight
}

func TestConstantTargetHasZeroWeight(t *testing.T) {
	ds := gridDataset(1, 1, 1, 1)
	assert.InDelta(t, 0, weightOf(t, ds, 0, 1), 1e-12)
}

func TestXORTargetHasZeroWeight(t *testing.T) {
	assert.InDelta(t, 0, weightOf(t, gridDataset(1, -1, -1, 1), 0, 1), 1e-12)
	assert.InDelta(t, 0, weightOf(t, gridDataset(2, 0, 0, 2), 0, 1), 1e-12)
}

func TestMissingInstanceFallsIntoItsOwnCell(t *testing.T) {
	ds := gridDataset(1, 1, 1, 1)
	ds.Instances = append(ds.Instances, data.Instance{Values: []int{data.Missing, 0}, Target: 5, Weight: 1})
	assert.InDelta(t, 0, weightOf(t, ds, 0, 1), 1e-12)

	ds.Instances = append(ds.Instances, data.Instance{Values: []int{data.Missing, data.Missing}, Target: -3, Weight: 2})
	assert.InDelta(t, 0, weightOf(t, ds, 0, 1), 1e-12)
}

func TestWeightMatchesBruteForce(t *testing.T) {
	for _, tc := range []struct {
		name    string
		seed    int64
		bins    []int
		missing float64
	}{
		{"dense", 1, []int{3, 5, 8}, 0},
		{"sparse", 2, []int{6, 4, 2}, 0.2},
		{"single bin", 3, []int{1, 5, 4}, 0.1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ds := randomDataset(tc.seed, 250, tc.bins, tc.missing)
			for _, p := range features.AllPairs(len(tc.bins)) {
				want := bruteWeight(ds, p.F1, p.F2)
				got := weightOf(t, ds, p.F1, p.F2)
				if math.IsInf(want, 1) {
					assert.True(t, math.IsInf(got, 1), "pair %v: got %g", p, got)
					continue
				}
				assert.InDelta(t, want, got, 1e-6*math.Max(1, math.Abs(want)), "pair %v", p)
			}
		})
	}
}

func TestWeightNeverExceedsYSq(t *testing.T) {
	ds := randomDataset(5, 400, []int{4, 7, 3, 9}, 0.05)
	used := []bool{true, true, true, true}
	hists, ySq, err := histogram.ComputeCHistograms(ds, used)
	require.NoError(t, err)

	for _, p := range features.AllPairs(4) {
		h := histogram.NewHistogram2D(hists[p.F1].Size(), hists[p.F2].Size())
		histogram.ComputeHistogram2D(ds, p.F1, p.F2, h)
		w := ComputeWeight(histogram.ComputeTable(h, hists[p.F1], hists[p.F2]), h, ySq)
		assert.LessOrEqual(t, w, ySq+1e-9, "pair %v", p)
		assert.GreaterOrEqual(t, w, -1e-9, "pair %v", p)
	}
}

func TestPlantedPairRanksFirst(t *testing.T) {
	p := data.DefaultSyntheticParams()
	p.N, p.Attributes, p.Bins, p.Noise, p.Planted = 4000, 5, 8, 0.1, [2]int{1, 3}
	ds, err := data.GenerateSynthetic(p)
	require.NoError(t, err)

	ranked, err := Rank(ds, features.AllPairs(ds.NumAttributes()), Options{Workers: 3})
	require.NoError(t, err)
	require.NotEmpty(t, ranked)
	assert.Equal(t, features.Pair{F1: 1, F2: 3}, ranked[0].Pair)
}

func TestSingleBinAttributeRanksLast(t *testing.T) {
	ds := &data.Dataset{Attributes: []data.Attribute{
		data.Binned(0, "constant", 1), data.Binned(1, "b", 2), data.Binned(2, "c", 2),
	}}
	for i := 0; i < 40; i++ {
		b, c := i%2, (i/2)%2
		y := 10 * float64(b)
		if b != c {
			y += 0.5
		}
		ds.Instances = append(ds.Instances, data.Instance{Values: []int{0, b, c}, Target: y, Weight: 1})
	}

	ranked, err := Rank(ds, features.AllPairs(3), Options{Workers: 2})
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, features.Pair{F1: 1, F2: 2}, ranked[0].Pair)
	assert.InDelta(t, 0, ranked[0].Weight, 1e-9)
	for _, sp := range ranked[1:] {
		assert.Equal(t, 0, sp.F1)
		assert.True(t, math.IsInf(sp.Weight, 1), "pair %v: got %g", sp.Pair, sp.Weight)
	}
	assert.Equal(t, features.Pair{F1: 0, F2: 1}, ranked[1].Pair)
}
