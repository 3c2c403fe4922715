package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/multierr"

	"pairrank/internal/data"
	"pairrank/internal/features"
	"pairrank/internal/interaction"
)

const (
	FormatTSV  = "tsv"
	FormatJSON = "json"
)

type Entry struct {
	F1     int     `json:"f1"`
	F2     int     `json:"f2"`
	Name1  string  `json:"name1,omitempty"`
	Name2  string  `json:"name2,omitempty"`
	Weight float64 `json:"weight"`
}

type entryJSON struct {
	F1     int      `json:"f1"`
	F2     int      `json:"f2"`
	Name1  string   `json:"name1,omitempty"`
	Name2  string   `json:"name2,omitempty"`
	Weight *float64 `json:"weight"`
}

// MarshalJSON writes an infinite weight (a pair with no split point) as null.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{F1: e.F1, F2: e.F2, Name1: e.Name1, Name2: e.Name2}
	if !math.IsInf(e.Weight, 0) && !math.IsNaN(e.Weight) {
		w := e.Weight
		out.Weight = &w
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null weight back as +Inf.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var in entryJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*e = Entry{F1: in.F1, F2: in.F2, Name1: in.Name1, Name2: in.Name2, Weight: math.Inf(1)}
	if in.Weight != nil {
		e.Weight = *in.Weight
	}
	return nil
}

func head(pairs []interaction.ScoredPair, top int) []interaction.ScoredPair {
	if top > 0 && top < len(pairs) {
		return pairs[:top]
	}
	return pairs
}

// Entries attaches attribute names to the first top pairs (all when top <= 0).
func Entries(pairs []interaction.ScoredPair, attrs []data.Attribute, top int) []Entry {
	pairs = head(pairs, top)
	out := make([]Entry, len(pairs))
	for i, p := range pairs {
		e := Entry{F1: p.F1, F2: p.F2, Weight: p.Weight}
		if p.F1 < len(attrs) && p.F2 < len(attrs) {
			e.Name1, e.Name2 = attrs[p.F1].Name, attrs[p.F2].Name
		}
		out[i] = e
	}
	return out
}

// WriteTSV writes f1<TAB>f2<TAB>weight per line in the given order. Pairs
// without a split point are written with weight +Inf.
func WriteTSV(w io.Writer, pairs []interaction.ScoredPair, top int) error {
	bw := bufio.NewWriter(w)
	for _, p := range head(pairs, top) {
		if _, err := fmt.Fprintf(bw, "%d\t%d\t%s\n", p.F1, p.F2, strconv.FormatFloat(p.Weight, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func WriteJSON(w io.Writer, pairs []interaction.ScoredPair, attrs []data.Attribute, top int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Entries(pairs, attrs, top))
}

func WriteFile(path, format string, pairs []interaction.ScoredPair, attrs []data.Attribute, top int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	switch format {
	case FormatJSON:
		return WriteJSON(f, pairs, attrs, top)
	case FormatTSV, "":
		return WriteTSV(f, pairs, top)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// ReadTSV parses a ranking written by WriteTSV.
func ReadTSV(r io.Reader) ([]interaction.ScoredPair, error) {
	var out []interaction.ScoredPair
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: got %d fields, want 3", line, len(fields))
		}
		f1, err1 := strconv.Atoi(fields[0])
		f2, err2 := strconv.Atoi(fields[1])
		w, err3 := strconv.ParseFloat(fields[2], 64)
		if err := multierr.Combine(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p, err := features.NewPair(f1, f2)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, interaction.ScoredPair{Pair: p, Weight: w})
	}
	return out, sc.Err()
}

func ReadTSVFile(path string) (pairs []interaction.ScoredPair, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return ReadTSV(f)
}
