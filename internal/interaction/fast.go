// Package interaction implements FAST pairwise interaction detection
// (Lou, Caruana, Gehrke and Hooker, KDD 2013): every attribute pair is
// scored by the lowest residual sum of squares that a two-way quadrant split
// of both attributes' bins can reach, computed from histograms alone.
package interaction

import (
	"math"
	"time"

	"pairrank/internal/data"
	"pairrank/internal/features"
	"pairrank/internal/histogram"
)

// ScoredPair is a pair with its interaction weight. Lower is stronger.
type ScoredPair struct {
	features.Pair
	Weight float64 `json:"weight"`
}

func divide(a, b, def float64) float64 {
	if b == 0 {
		return def
	}
	return a / b
}

// ScorePairs evaluates pairs on ds. Cumulative histograms are built only for
// the attributes these pairs reference. worker only labels observer events.
func ScorePairs(ds *data.Dataset, pairs []features.Pair, obs Observer, worker int) ([]ScoredPair, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	start := time.Now()
	used, err := features.UsedAttributes(ds.NumAttributes(), pairs)
	if err != nil {
		return nil, err
	}
	nUsed := 0
	for _, u := range used {
		if u {
			nUsed++
		}
	}
	obs.Checkpoint(Event{Stage: StageHistograms, Worker: worker, Attributes: nUsed, Pairs: len(pairs)})
	cHist, ySq, err := histogram.ComputeCHistograms(ds, used)
	if err != nil {
		return nil, err
	}

	obs.Checkpoint(Event{Stage: StageScoring, Worker: worker, Attributes: nUsed, Pairs: len(pairs), Elapsed: time.Since(start)})
	out := make([]ScoredPair, len(pairs))
	for i, p := range pairs {
		c1, c2 := cHist[p.F1], cHist[p.F2]
		h := histogram.NewHistogram2D(c1.Size(), c2.Size())
		histogram.ComputeHistogram2D(ds, p.F1, p.F2, h)
		t := histogram.ComputeTable(h, c1, c2)
		out[i] = ScoredPair{Pair: p, Weight: ComputeWeight(t, h, ySq)}
	}
	obs.Checkpoint(Event{Stage: StageDone, Worker: worker, Attributes: nUsed, Pairs: len(pairs), Elapsed: time.Since(start)})
	return out, nil
}

// ComputeWeight returns the minimum RSS over split points v1 < size1-1,
// v2 < size2-1. An axis with a single bin has no split point and the pair
// weighs +Inf, ranking after every splittable pair.
func ComputeWeight(t *histogram.Table, h *histogram.Histogram2D, ySq float64) float64 {
	size1, size2 := t.Dims()
	n1, n2 := size1-1, size2-1

	predOnMV12 := divide(h.RespOnMV12, h.CountOnMV12, 0)
	rssOnMV12 := predOnMV12*predOnMV12*h.CountOnMV12 - 2*predOnMV12*h.RespOnMV12

	var (
		pred      [4]float64
		predOnMV1 [2]float64
		predOnMV2 [2]float64
	)
	bestRSS := math.Inf(1)
	for v1 := 0; v1 < n1; v1++ {
		for v2 := 0; v2 < n2; v2++ {
			predictors(t, v1, v2, &pred, &predOnMV1, &predOnMV2)
			rss := splitRSS(t, v1, v2, ySq, &pred, &predOnMV1, &predOnMV2)
			if rss < bestRSS {
				bestRSS = rss
			}
		}
	}
	return bestRSS + rssOnMV12
}

// predictors fills the cell means of the split (v1, v2); empty cells
// predict 0.
func predictors(t *histogram.Table, v1, v2 int, pred *[4]float64, predOnMV1, predOnMV2 *[2]float64) {
	count := &t.Count[v1][v2]
	resp := &t.Resp[v1][v2]
	for i := range pred {
		pred[i] = divide(resp[i], count[i], 0)
	}
	for i := range predOnMV1 {
		predOnMV1[i] = divide(t.RespOnMV1[v2][i], t.CountOnMV1[v2][i], 0)
	}
	for i := range predOnMV2 {
		predOnMV2[i] = divide(t.RespOnMV2[v1][i], t.CountOnMV2[v1][i], 0)
	}
}

// splitRSS is Σ w(y - ŷ)² over the quadrants and both missing margins,
// expanded as ySq + Σ ŷ²·count - 2·Σ ŷ·resp.
func splitRSS(t *histogram.Table, v1, v2 int, ySq float64, pred *[4]float64, predOnMV1, predOnMV2 *[2]float64) float64 {
	count := &t.Count[v1][v2]
	resp := &t.Resp[v1][v2]
	rss := ySq
	for i, p := range pred {
		rss += p*p*count[i] - 2*p*resp[i]
	}
	for i, p := range predOnMV1 {
		rss += p*p*t.CountOnMV1[v2][i] - 2*p*t.RespOnMV1[v2][i]
	}
	for i, p := range predOnMV2 {
		rss += p*p*t.CountOnMV2[v1][i] - 2*p*t.RespOnMV2[v1][i]
	}
	return rss
}
