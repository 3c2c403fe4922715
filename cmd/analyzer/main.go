package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"pairrank/internal/data"
	"pairrank/internal/interaction"
	"pairrank/internal/report"
	"pairrank/pkg/utils"
)

func main() {
	logger := utils.Logger()
	defer logger.Sync()

	in := flag.String("in", "data/interactions.tsv", "ranking written by cmd/fast")
	schemaPath := flag.String("r", "", "attribute schema, for pair labels")
	k := flag.Int("k", 20, "number of strongest pairs to chart")
	outImg := flag.String("out_img", "data/interactions.png", "PNG output")
	outCsv := flag.String("out_csv", "data/interactions_summary.csv", "CSV output")
	flag.Parse()

	pairs, err := report.ReadTSVFile(*in)
	if err != nil {
		logger.Fatal("Failed to read ranking", zap.String("path", *in), zap.Error(err))
	}
	if len(pairs) == 0 {
		logger.Fatal("Ranking is empty", zap.String("path", *in))
	}
	interaction.SortPairs(pairs)

	var attrs []data.Attribute
	if *schemaPath != "" {
		s, err := data.ReadSchema(*schemaPath)
		if err != nil {
			logger.Fatal("Failed to read schema", zap.Error(err))
		}
		attrs = s.Attributes
	}
	entries := report.Entries(pairs, attrs, *k)
	printTable(os.Stdout, entries)

	if err := writeSummary(*outCsv, entries); err != nil {
		logger.Warn("Failed to write summary CSV", zap.Error(err))
	}
	if err := plotTop(*outImg, entries); err != nil {
		logger.Warn("Failed to write PNG", zap.Error(err))
	} else {
		logger.Info("Interaction chart written", zap.String("png", *outImg), zap.String("csv", *outCsv), zap.Int("pairs", len(entries)))
	}
}

func label(e report.Entry) string {
	if e.Name1 != "" {
		return e.Name1 + "×" + e.Name2
	}
	return fmt.Sprintf("%d×%d", e.F1, e.F2)
}

func printTable(w io.Writer, entries []report.Entry) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Rank", "Pair", "Weight"})
	for i, e := range entries {
		tbl.Append([]string{strconv.Itoa(i + 1), label(e), strconv.FormatFloat(e.Weight, 'g', 6, 64)})
	}
	tbl.Render()
}

// writeSummary lists rank, pair and weight with the weight relative to the
// strongest pair.
func writeSummary(path string, entries []report.Entry) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"rank", "f1", "f2", "pair", "weight", "relative"}); err != nil {
		return err
	}
	best := entries[0].Weight
	for i, e := range entries {
		rel := 0.0
		switch {
		case math.IsInf(e.Weight, 1):
			rel = math.Inf(1)
		case best != 0 && !math.IsInf(best, 1):
			rel = e.Weight / best
		}
		rec := []string{
			strconv.Itoa(i + 1), strconv.Itoa(e.F1), strconv.Itoa(e.F2), label(e),
			strconv.FormatFloat(e.Weight, 'g', -1, 64), fmt.Sprintf("%.6f", rel),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func plotTop(path string, entries []report.Entry) error {
	p := plot.New()
	p.Title.Text = "FAST pairwise interactions"
	p.Y.Label.Text = "min RSS (lower = stronger)"

	// pairs without a split point have no bar
	var (
		vals  plotter.Values
		names []string
	)
	for _, e := range entries {
		if math.IsInf(e.Weight, 0) {
			continue
		}
		vals = append(vals, e.Weight)
		names = append(names, label(e))
	}
	if len(vals) == 0 {
		return fmt.Errorf("no finite weights to chart")
	}
	bars, err := plotter.NewBarChart(vals, vg.Points(14))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(0)
	p.Add(bars, plotter.NewGrid())
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.8
	p.X.Tick.Label.XAlign = -1
	p.X.Tick.Label.Color = color.Black

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	width := vg.Length(len(vals)) * 0.5 * vg.Inch
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	return p.Save(width, 4*vg.Inch, path)
}
