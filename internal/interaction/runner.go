package interaction

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"pairrank/internal/data"
	"pairrank/internal/features"
)

var ErrWorkerFailed = errors.New("interaction worker failed")

type Options struct {
	// Workers is the number of concurrent scorers; values below 1 mean 1.
	Workers  int
	Observer Observer
}

// Partition deals pairs round-robin: pair i goes to worker i mod workers.
func Partition(pairs []features.Pair, workers int) [][]features.Pair {
	if workers < 1 {
		workers = 1
	}
	parts := make([][]features.Pair, workers)
	for w := range parts {
		parts[w] = make([]features.Pair, 0, len(pairs)/workers+1)
	}
	for i, p := range pairs {
		parts[i%workers] = append(parts[i%workers], p)
	}
	return parts
}

// Rank scores every pair and returns them sorted by ascending weight. The
// dataset is validated up front and shared read-only by the workers; any
// worker failure fails the whole run and no partial ranking is returned.
func Rank(ds *data.Dataset, pairs []features.Pair, opts Options) ([]ScoredPair, error) {
	used, err := features.UsedAttributes(ds.NumAttributes(), pairs)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(used); err != nil {
		return nil, err
	}

	parts := Partition(pairs, opts.Workers)
	results := make([][]ScoredPair, len(parts))
	var g errgroup.Group
	for w := range parts {
		w := w
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: worker %d: %v", ErrWorkerFailed, w, r)
				}
			}()
			res, err := ScorePairs(ds, parts[w], opts.Observer, w)
			if err != nil {
				return fmt.Errorf("%w: worker %d: %w", ErrWorkerFailed, w, err)
			}
			results[w] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]ScoredPair, 0, len(pairs))
	for _, res := range results {
		out = append(out, res...)
	}
	SortPairs(out)
	return out, nil
}

// SortPairs orders by ascending weight, then by (F1, F2).
func SortPairs(pairs []ScoredPair) {
	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.Weight != b.Weight {
			return a.Weight < b.Weight
		}
		if a.F1 != b.F1 {
			return a.F1 < b.F1
		}
		return a.F2 < b.F2
	})
}
