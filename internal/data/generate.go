package data

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"go.uber.org/multierr"
)

type SyntheticParams struct {
	N           int
	Attributes  int
	Bins        int
	MissingRate float64
	Noise       float64
	Seed        int64
	// Planted pair gets an XOR-shaped effect on the residual.
	Planted [2]int
}

func DefaultSyntheticParams() SyntheticParams {
	return SyntheticParams{N: 10000, Attributes: 8, Bins: 16, MissingRate: 0.02, Noise: 0.1, Seed: 1, Planted: [2]int{1, 4}}
}

// GenerateSynthetic builds an in-memory dataset whose last attribute is
// nominal and whose residuals carry additive main effects plus one planted
// pairwise interaction.
func GenerateSynthetic(p SyntheticParams) (*Dataset, error) {
	if p.Attributes < 2 || p.Bins < 2 || p.N < 1 {
		return nil, fmt.Errorf("synthetic dataset needs >= 2 attributes, >= 2 bins and >= 1 instance")
	}
	if p.Planted[0] == p.Planted[1] || p.Planted[0] < 0 || p.Planted[1] < 0 ||
		p.Planted[0] >= p.Attributes || p.Planted[1] >= p.Attributes {
		return nil, fmt.Errorf("planted pair %v invalid for %d attributes", p.Planted, p.Attributes)
	}
	rng := rand.New(rand.NewSource(p.Seed))
	d := &Dataset{Attributes: make([]Attribute, p.Attributes)}
	for j := 0; j < p.Attributes-1; j++ {
		d.Attributes[j] = Binned(j, "x"+strconv.Itoa(j), p.Bins)
	}
	last := p.Attributes - 1
	d.Attributes[last] = Nominal(last, "category", []string{"a", "b", "c"})

	mainEffect := make([]float64, p.Attributes)
	for j := range mainEffect {
		mainEffect[j] = rng.Float64() - 0.5
	}

	d.Instances = make([]Instance, p.N)
	for i := range d.Instances {
		in := Instance{Values: make([]int, p.Attributes), Weight: 1}
		y := 0.0
		for j, att := range d.Attributes {
			n, _ := att.NumBins()
			v := rng.Intn(n)
			in.Values[j] = v
			y += mainEffect[j] * float64(v) / float64(n)
		}
		a, b := p.Planted[0], p.Planted[1]
		na, _ := d.Attributes[a].NumBins()
		nb, _ := d.Attributes[b].NumBins()
		if (in.Values[a] < na/2) == (in.Values[b] < nb/2) {
			y += 1
		} else {
			y -= 1
		}
		y += p.Noise * rng.NormFloat64()
		for j := range in.Values {
			if rng.Float64() < p.MissingRate {
				in.Values[j] = Missing
			}
		}
		in.Target = y
		d.Instances[i] = in
	}
	return d, nil
}

// WriteSynthetic stores a dataset as schema, tab separated values and
// residuals; residuals go to .npy when the path asks for it.
func WriteSynthetic(d *Dataset, schemaPath, dataPath, residualPath string) error {
	for _, p := range []string{schemaPath, dataPath, residualPath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
	}
	if err := WriteSchema(schemaPath, Schema{Attributes: d.Attributes}); err != nil {
		return err
	}
	if err := writeValues(dataPath, d); err != nil {
		return err
	}
	targets := make([]float64, d.Len())
	for i, in := range d.Instances {
		targets[i] = in.Target
	}
	return writeResiduals(residualPath, targets)
}

func writeValues(path string, d *Dataset) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	rec := make([]string, d.NumAttributes())
	for _, in := range d.Instances {
		for j, v := range in.Values {
			switch {
			case v == Missing:
				rec[j] = "?"
			case d.Attributes[j].Kind == KindNominal && v < len(d.Attributes[j].States):
				rec[j] = d.Attributes[j].States[v]
			default:
				rec[j] = strconv.Itoa(v)
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeResiduals(path string, targets []float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	if strings.EqualFold(filepath.Ext(path), ".npy") {
		return npyio.Write(f, targets)
	}
	w := csv.NewWriter(f)
	for _, t := range targets {
		if err := w.Write([]string{strconv.FormatFloat(t, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
