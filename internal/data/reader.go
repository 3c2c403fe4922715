package data

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/sbinet/npyio"
	"go.uber.org/multierr"
)

type Schema struct {
	Attributes []Attribute
	Weighted   bool
}

type schemaFile struct {
	Weighted   bool              `yaml:"weighted"`
	Attributes []schemaAttribute `yaml:"attributes"`
}

type schemaAttribute struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Bins   int      `yaml:"bins,omitempty"`
	States []string `yaml:"states,omitempty"`
}

func ParseSchema(b []byte) (Schema, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return Schema{}, fmt.Errorf("parse schema: %w", err)
	}
	s := Schema{Weighted: sf.Weighted, Attributes: make([]Attribute, len(sf.Attributes))}
	for i, a := range sf.Attributes {
		name := a.Name
		if name == "" {
			name = "f" + strconv.Itoa(i)
		}
		switch strings.ToLower(a.Type) {
		case "binned":
			s.Attributes[i] = Binned(i, name, a.Bins)
		case "nominal":
			att := Nominal(i, name, a.States)
			if len(a.States) == 0 {
				att.Cardinality = a.Bins
			}
			s.Attributes[i] = att
		default:
			// kept so the run fails when a pair references it
			s.Attributes[i] = Attribute{Index: i, Name: name, Kind: KindUnknown}
		}
	}
	return s, nil
}

func ReadSchema(path string) (Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, err
	}
	return ParseSchema(b)
}

func WriteSchema(path string, s Schema) (err error) {
	sf := schemaFile{Weighted: s.Weighted}
	for _, a := range s.Attributes {
		sa := schemaAttribute{Name: a.Name, Type: a.Kind.String()}
		switch a.Kind {
		case KindBinned:
			sa.Bins = a.Bins
		case KindNominal:
			sa.States = a.States
			if len(a.States) == 0 {
				sa.Bins = a.Cardinality
			}
		}
		sf.Attributes = append(sf.Attributes, sa)
	}
	b, err := yaml.Marshal(sf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// splitFields splits on tab when the line has one, else on comma, else on
// runs of spaces. Tab and comma keep empty fields so they read as missing.
func splitFields(line string) []string {
	var fields []string
	switch {
	case strings.ContainsRune(line, '\t'):
		fields = strings.Split(line, "\t")
	case strings.ContainsRune(line, ','):
		fields = strings.Split(line, ",")
	default:
		return strings.Fields(line)
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

func parseValue(att Attribute, field string) (int, error) {
	if field == "?" || field == "" {
		return Missing, nil
	}
	if att.Kind == KindNominal {
		if idx, ok := att.StateIndex(field); ok {
			return idx, nil
		}
	}
	if v, err := strconv.Atoi(field); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(field, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("attribute %q: cannot read %q as a bin index", att.Name, field)
	}
	return int(f), nil
}

// ReadDataset parses one instance per line. Columns follow the schema
// order; a weighted schema carries the instance weight in an extra last
// column.
func ReadDataset(r io.Reader, s Schema) (*Dataset, error) {
	d := &Dataset{Attributes: s.Attributes}
	want := len(s.Attributes)
	if s.Weighted {
		want++
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := splitFields(text)
		if len(fields) != want {
			return nil, fmt.Errorf("line %d: got %d columns, want %d", line, len(fields), want)
		}
		in := Instance{Values: make([]int, len(s.Attributes)), Weight: 1}
		for j, att := range s.Attributes {
			v, err := parseValue(att, fields[j])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			in.Values[j] = v
		}
		if s.Weighted {
			w, err := strconv.ParseFloat(fields[want-1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: weight: %w", line, err)
			}
			in.Weight = w
		}
		d.Instances = append(d.Instances, in)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func ReadDatasetFile(path string, s Schema) (d *Dataset, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return ReadDataset(f, s)
}

// ReadResiduals loads one residual per instance, either from a 1-D .npy
// vector or from a text file holding one number per line.
func ReadResiduals(path string) (res []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	if strings.EqualFold(filepath.Ext(path), ".npy") {
		if err := npyio.Read(f, &res); err != nil {
			return nil, fmt.Errorf("read npy residuals: %w", err)
		}
		return res, nil
	}

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("residual line %d: %w", line, err)
		}
		res = append(res, v)
	}
	return res, sc.Err()
}
