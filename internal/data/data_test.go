package data

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaYAML = `
weighted: true
attributes:
  - name: age
    type: binned
    bins: 4
  - name: color
    type: nominal
    states: [red, green, blue]
  - name: code
    type: nominal
    bins: 5
  - name: mystery
    type: histogram
`

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema([]byte(schemaYAML))
	require.NoError(t, err)
	assert.True(t, s.Weighted)
	require.Len(t, s.Attributes, 4)

	n, err := s.Attributes[0].NumBins()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t, KindNominal, s.Attributes[1].Kind)
	n, err = s.Attributes[1].NumBins()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.Attributes[2].NumBins()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.Equal(t, KindUnknown, s.Attributes[3].Kind)
	_, err = s.Attributes[3].NumBins()
	require.ErrorIs(t, err, ErrMalformedAttribute)
}

func TestSchemaRoundTrip(t *testing.T) {
	s, err := ParseSchema([]byte(schemaYAML))
	require.NoError(t, err)
	s.Attributes = s.Attributes[:3]

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, WriteSchema(path, s))
	got, err := ReadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestReadDataset(t *testing.T) {
	s, err := ParseSchema([]byte(schemaYAML))
	require.NoError(t, err)
	s.Attributes = s.Attributes[:3]

	in := strings.Join([]string{
		"0\tred\t4\t1.5",
		"",
		"3,?,2,0.5",
		"2 blue ? 2",
		"1\t1\t3.0\t1",
	}, "\n")
	ds, err := ReadDataset(strings.NewReader(in), s)
	require.NoError(t, err)
	require.Equal(t, 4, ds.Len())

	assert.Equal(t, []int{0, 0, 4}, ds.Instances[0].Values)
	assert.Equal(t, 1.5, ds.Instances[0].Weight)
	assert.Equal(t, []int{3, Missing, 2}, ds.Instances[1].Values)
	assert.True(t, ds.Instances[1].IsMissing(1))
	assert.Equal(t, []int{2, 2, Missing}, ds.Instances[2].Values)
	assert.Equal(t, []int{1, 1, 3}, ds.Instances[3].Values)
	require.NoError(t, ds.Validate([]bool{true, true, true}))
}

func TestReadDatasetEmptyFieldsAreMissing(t *testing.T) {
	s := Schema{Attributes: []Attribute{Binned(0, "a", 3), Binned(1, "b", 3), Binned(2, "c", 3)}}
	in := "0,,2\n1\t\t\n,1 ,0\n2   1  0\n"
	ds, err := ReadDataset(strings.NewReader(in), s)
	require.NoError(t, err)
	require.Equal(t, 4, ds.Len())
	assert.Equal(t, []int{0, Missing, 2}, ds.Instances[0].Values)
	assert.Equal(t, []int{1, Missing, Missing}, ds.Instances[1].Values)
	assert.Equal(t, []int{Missing, 1, 0}, ds.Instances[2].Values)
	assert.Equal(t, []int{2, 1, 0}, ds.Instances[3].Values)
}

func TestReadDatasetErrors(t *testing.T) {
	s := Schema{Attributes: []Attribute{Binned(0, "a", 3), Binned(1, "b", 3)}}
	for name, in := range map[string]string{
		"columns":    "1\t2\t3",
		"fraction":   "1\t2.5",
		"not number": "1\tx",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadDataset(strings.NewReader(in), s)
			require.Error(t, err)
		})
	}
}

func TestReadResidualsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "res.txt")
	require.NoError(t, os.WriteFile(path, []byte("0.5\n-1\n\n2e-3\n"), 0o644))
	res, err := ReadResiduals(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1, 0.002}, res)

	require.NoError(t, os.WriteFile(path, []byte("1\nnope\n"), 0o644))
	_, err = ReadResiduals(path)
	require.Error(t, err)
}

func TestWriteSyntheticRoundTrip(t *testing.T) {
	p := DefaultSyntheticParams()
	p.N, p.Attributes, p.Bins, p.MissingRate = 200, 4, 5, 0.1
	p.Planted = [2]int{0, 2}
	ds, err := GenerateSynthetic(p)
	require.NoError(t, err)
	require.NoError(t, ds.Validate([]bool{true, true, true, true}))

	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.yaml")
	dataPath := filepath.Join(dir, "data.tsv")
	for _, resPath := range []string{filepath.Join(dir, "res.npy"), filepath.Join(dir, "res.txt")} {
		require.NoError(t, WriteSynthetic(ds, schemaPath, dataPath, resPath))

		s, err := ReadSchema(schemaPath)
		require.NoError(t, err)
		got, err := ReadDatasetFile(dataPath, s)
		require.NoError(t, err)
		res, err := ReadResiduals(resPath)
		require.NoError(t, err)
		require.NoError(t, got.SetTargets(res))

		require.Equal(t, ds.Len(), got.Len())
		for i := range ds.Instances {
			assert.Equal(t, ds.Instances[i].Values, got.Instances[i].Values)
			assert.Equal(t, ds.Instances[i].Target, got.Instances[i].Target)
		}
	}
}

func TestGenerateSyntheticRejectsBadParams(t *testing.T) {
	p := DefaultSyntheticParams()
	p.Planted = [2]int{2, 2}
	_, err := GenerateSynthetic(p)
	require.Error(t, err)

	p = DefaultSyntheticParams()
	p.Attributes = 1
	_, err = GenerateSynthetic(p)
	require.Error(t, err)
}

func TestSetTargets(t *testing.T) {
	ds := &Dataset{
		Attributes: []Attribute{Binned(0, "a", 2)},
		Instances:  []Instance{{Values: []int{0}, Weight: 1}, {Values: []int{1}, Weight: 1}},
	}
	require.Error(t, ds.SetTargets([]float64{1}))
	require.NoError(t, ds.SetTargets([]float64{1, 2}))
	assert.Equal(t, 2.0, ds.Instances[1].Target)
}

func TestValidate(t *testing.T) {
	valid := func() *Dataset {
		return &Dataset{
			Attributes: []Attribute{Binned(0, "a", 2), Nominal(1, "b", []string{"x", "y", "z"})},
			Instances: []Instance{
				{Values: []int{0, 2}, Target: 1, Weight: 1},
				{Values: []int{Missing, 0}, Target: -1, Weight: 0},
			},
		}
	}
	used := []bool{true, true}
	require.NoError(t, valid().Validate(used))

	ds := valid()
	ds.Instances[0].Values[1] = 3
	require.ErrorIs(t, ds.Validate(used), ErrBinOutOfRange)
	// an unused attribute is not checked
	require.NoError(t, ds.Validate([]bool{true, false}))

	ds = valid()
	ds.Instances[0].Values[0] = -2
	assert.False(t, ds.Instances[0].IsMissing(0))
	assert.True(t, ds.Instances[1].IsMissing(0))
	require.ErrorIs(t, ds.Validate(used), ErrBinOutOfRange)

	ds = valid()
	ds.Instances[0].Weight = -1
	require.Error(t, ds.Validate(used))

	ds = valid()
	ds.Instances[1].Target = math.NaN()
	require.Error(t, ds.Validate(used))

	ds = valid()
	ds.Instances[1].Values = []int{0}
	require.Error(t, ds.Validate(used))

	ds = valid()
	ds.Attributes[0].Bins = 0
	require.ErrorIs(t, ds.Validate(used), ErrMalformedAttribute)

	require.Error(t, valid().Validate([]bool{true}))
}
