package main

import (
	"flag"
	"time"

	"go.uber.org/zap"

	"pairrank/internal/config"
	"pairrank/internal/data"
	"pairrank/internal/features"
	"pairrank/internal/interaction"
	"pairrank/internal/report"
	"pairrank/pkg/utils"
)

var (
	attPath      = flag.String("r", "", "attribute schema file (YAML)")
	datasetPath  = flag.String("d", "", "dataset path, one instance of bin indices per line")
	residualPath = flag.String("R", "", "residual path, text or .npy")
	outputPath   = flag.String("o", "", "output path")
	numThreads   = flag.Int("p", 1, "number of worker threads")
	format       = flag.String("format", "tsv", "output format: tsv|json")
	top          = flag.Int("top", 0, "write only the k strongest pairs (0 = all)")
	configPath   = flag.String("config", "", "run configuration (.yaml or .toml); explicit flags win")

	regen       = flag.Bool("regen", false, "generate a synthetic dataset at -r/-d/-R before ranking")
	n           = flag.Int("n", 10000, "number of synthetic instances")
	nAttrs      = flag.Int("attrs", 8, "number of synthetic attributes")
	nBins       = flag.Int("bins", 16, "bins per synthetic binned attribute")
	missingRate = flag.Float64("missing", 0.02, "synthetic missing-value rate")
	seed        = flag.Int64("seed", 1, "synthetic data seed")
)

func main() {
	logger := utils.Logger()
	defer logger.Sync()
	flag.Parse()

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	opts, err := config.Resolve(*configPath, flagOptions(), explicit)
	if err != nil {
		logger.Fatal("Failed to load config", zap.String("path", *configPath), zap.Error(err))
	}

	if *regen {
		if opts.AttributePath == "" {
			opts.AttributePath = "data/schema.yaml"
		}
		if opts.DatasetPath == "" {
			opts.DatasetPath = "data/synthetic.tsv"
		}
		if opts.ResidualPath == "" {
			opts.ResidualPath = "data/residuals.npy"
		}
		p := data.DefaultSyntheticParams()
		p.N, p.Attributes, p.Bins, p.MissingRate, p.Seed = *n, *nAttrs, *nBins, *missingRate, *seed
		p.Planted = [2]int{0, *nAttrs / 2}
		logger.Info("Generating synthetic dataset",
			zap.Int("n", p.N), zap.Int("attributes", p.Attributes), zap.Ints("planted", p.Planted[:]))
		ds, err := data.GenerateSynthetic(p)
		if err != nil {
			logger.Fatal("Failed to generate dataset", zap.Error(err))
		}
		if err := data.WriteSynthetic(ds, opts.AttributePath, opts.DatasetPath, opts.ResidualPath); err != nil {
			logger.Fatal("Failed to write synthetic dataset", zap.Error(err))
		}
	}

	if err := opts.Validate(); err != nil {
		flag.Usage()
		logger.Fatal("Invalid options", zap.Error(err))
	}

	schema, err := data.ReadSchema(opts.AttributePath)
	if err != nil {
		logger.Fatal("Failed to read attributes", zap.String("path", opts.AttributePath), zap.Error(err))
	}
	ds, err := data.ReadDatasetFile(opts.DatasetPath, schema)
	if err != nil {
		logger.Fatal("Failed to read dataset", zap.String("path", opts.DatasetPath), zap.Error(err))
	}
	logger.Info("Reading residuals", zap.String("path", opts.ResidualPath))
	residuals, err := data.ReadResiduals(opts.ResidualPath)
	if err != nil {
		logger.Fatal("Failed to read residuals", zap.Error(err))
	}
	if err := ds.SetTargets(residuals); err != nil {
		logger.Fatal("Residuals do not match dataset", zap.Error(err))
	}

	pairs := features.AllPairs(ds.NumAttributes())
	logger.Info("Running FAST",
		zap.Int("instances", ds.Len()),
		zap.Int("attributes", ds.NumAttributes()),
		zap.Int("pairs", len(pairs)),
		zap.Int("workers", opts.Workers),
	)
	start := time.Now()
	ranked, err := interaction.Rank(ds, pairs, interaction.Options{
		Workers:  opts.Workers,
		Observer: interaction.NewZapObserver(logger),
	})
	if err != nil {
		logger.Fatal("FAST failed", zap.Error(err))
	}
	logger.Info("FAST finished", zap.Duration("time", time.Since(start)))

	if err := report.WriteFile(opts.OutputPath, opts.Format, ranked, ds.Attributes, opts.Top); err != nil {
		logger.Fatal("Failed to write ranking", zap.String("path", opts.OutputPath), zap.Error(err))
	}
	if len(ranked) > 0 {
		best := ranked[0]
		logger.Info("Ranking saved",
			zap.String("path", opts.OutputPath),
			zap.String("strongest", ds.Attributes[best.F1].Name+" x "+ds.Attributes[best.F2].Name),
			zap.Float64("weight", best.Weight),
		)
	}
}

func flagOptions() config.Options {
	return config.Options{
		AttributePath: *attPath,
		DatasetPath:   *datasetPath,
		ResidualPath:  *residualPath,
		OutputPath:    *outputPath,
		Workers:       *numThreads,
		Format:        *format,
		Top:           *top,
	}
}
