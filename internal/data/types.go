package data

import (
	"errors"
	"fmt"
	"math"
)

// Missing marks an attribute value that is absent for an instance.
const Missing = -1

var (
	ErrMalformedAttribute = errors.New("malformed attribute")
	ErrBinOutOfRange      = errors.New("bin value out of range")
)

type Kind int

const (
	KindUnknown Kind = iota
	KindBinned
	KindNominal
)

func (k Kind) String() string {
	switch k {
	case KindBinned:
		return "binned"
	case KindNominal:
		return "nominal"
	default:
		return "unknown"
	}
}

// Attribute is either Binned{Bins} or Nominal{Cardinality}. Only the field
// matching Kind is meaningful.
type Attribute struct {
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	Kind        Kind     `json:"kind"`
	Bins        int      `json:"bins,omitempty"`
	Cardinality int      `json:"cardinality,omitempty"`
	States      []string `json:"states,omitempty"`
}

func Binned(index int, name string, bins int) Attribute {
	return Attribute{Index: index, Name: name, Kind: KindBinned, Bins: bins}
}

func Nominal(index int, name string, states []string) Attribute {
	return Attribute{Index: index, Name: name, Kind: KindNominal, Cardinality: len(states), States: states}
}

// NumBins is the number of histogram cells the attribute occupies.
func (a Attribute) NumBins() (int, error) {
	var n int
	switch a.Kind {
	case KindBinned:
		n = a.Bins
	case KindNominal:
		n = a.Cardinality
	default:
		return 0, fmt.Errorf("attribute %d (%q) has kind %s: %w", a.Index, a.Name, a.Kind, ErrMalformedAttribute)
	}
	if n < 1 {
		return 0, fmt.Errorf("attribute %d (%q) has %d bins: %w", a.Index, a.Name, n, ErrMalformedAttribute)
	}
	return n, nil
}

// StateIndex resolves a nominal state name to its bin index.
func (a Attribute) StateIndex(state string) (int, bool) {
	for i, s := range a.States {
		if s == state {
			return i, true
		}
	}
	return 0, false
}

type Instance struct {
	Values []int   `json:"values"`
	Target float64 `json:"target"`
	Weight float64 `json:"weight"`
}

// IsMissing reports whether attribute j is absent. Other negative values are
// out of range, not missing.
func (in Instance) IsMissing(j int) bool { return in.Values[j] == Missing }

type Dataset struct {
	Attributes []Attribute
	Instances  []Instance
}

func (d *Dataset) NumAttributes() int { return len(d.Attributes) }

func (d *Dataset) Len() int { return len(d.Instances) }

// SetTargets assigns one residual per instance, in instance order.
func (d *Dataset) SetTargets(targets []float64) error {
	if len(targets) != len(d.Instances) {
		return fmt.Errorf("got %d residuals for %d instances", len(targets), len(d.Instances))
	}
	for i := range d.Instances {
		d.Instances[i].Target = targets[i]
	}
	return nil
}

// Validate checks the attributes named in used and every instance value
// against them. It is run once before any histogram is built.
func (d *Dataset) Validate(used []bool) error {
	if len(used) != len(d.Attributes) {
		return fmt.Errorf("usage mask has %d entries for %d attributes", len(used), len(d.Attributes))
	}
	sizes := make([]int, len(d.Attributes))
	for j, att := range d.Attributes {
		if !used[j] {
			continue
		}
		n, err := att.NumBins()
		if err != nil {
			return err
		}
		sizes[j] = n
	}
	for i, in := range d.Instances {
		if len(in.Values) != len(d.Attributes) {
			return fmt.Errorf("instance %d has %d values for %d attributes", i, len(in.Values), len(d.Attributes))
		}
		if in.Weight < 0 || math.IsNaN(in.Weight) || math.IsInf(in.Weight, 0) {
			return fmt.Errorf("instance %d has invalid weight %g", i, in.Weight)
		}
		if math.IsNaN(in.Target) || math.IsInf(in.Target, 0) {
			return fmt.Errorf("instance %d has non-finite target %g", i, in.Target)
		}
		for j, v := range in.Values {
			if !used[j] || v == Missing {
				continue
			}
			if v < 0 || v >= sizes[j] {
				return fmt.Errorf("instance %d attribute %d value %d not in [0, %d): %w", i, j, v, sizes[j], ErrBinOutOfRange)
			}
		}
	}
	return nil
}
