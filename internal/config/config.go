package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Options configures one ranking run of cmd/fast.
type Options struct {
	AttributePath string `yaml:"attributes" toml:"attributes" validate:"required"`
	DatasetPath   string `yaml:"dataset" toml:"dataset" validate:"required"`
	ResidualPath  string `yaml:"residuals" toml:"residuals" validate:"required"`
	OutputPath    string `yaml:"output" toml:"output" validate:"required"`
	Workers       int    `yaml:"workers" toml:"workers" validate:"min=1,max=4096"`
	Format        string `yaml:"format" toml:"format" validate:"oneof=tsv json"`
	Top           int    `yaml:"top" toml:"top" validate:"min=0"`
}

func Default() Options {
	return Options{Workers: 1, Format: "tsv"}
}

// Load overlays the file at path onto Default. The decoder follows the
// extension: .yaml/.yml or .toml.
func Load(path string) (Options, error) {
	o := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return o, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &o)
	case ".toml":
		err = toml.Unmarshal(b, &o)
	default:
		return o, fmt.Errorf("config %s: unsupported extension", path)
	}
	if err != nil {
		return o, fmt.Errorf("config %s: %w", path, err)
	}
	return o, nil
}

// Overlay copies onto o the fields of src whose command-line flag name is in
// set: r, d, R, o, p, format and top.
func (o *Options) Overlay(src Options, set map[string]bool) {
	if set["r"] {
		o.AttributePath = src.AttributePath
	}
	if set["d"] {
		o.DatasetPath = src.DatasetPath
	}
	if set["R"] {
		o.ResidualPath = src.ResidualPath
	}
	if set["o"] {
		o.OutputPath = src.OutputPath
	}
	if set["p"] {
		o.Workers = src.Workers
	}
	if set["format"] {
		o.Format = src.Format
	}
	if set["top"] {
		o.Top = src.Top
	}
}

// Resolve merges a config file with flag values. Without a file the flags,
// defaults included, are the options. With one, only the explicitly set
// flags override the file.
func Resolve(path string, flags Options, explicit map[string]bool) (Options, error) {
	if path == "" {
		return flags, nil
	}
	o, err := Load(path)
	if err != nil {
		return o, err
	}
	o.Overlay(flags, explicit)
	return o, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}
