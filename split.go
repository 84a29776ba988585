package tsvchunk

import (
	"context"
	"fmt"
	"strings"

	"github.com/ab180/tsvchunk/engine"
	_ "github.com/ab180/tsvchunk/engine/local"
	"github.com/ab180/tsvchunk/metric"
	"github.com/ab180/tsvchunk/output"
	"github.com/creasty/defaults"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Config holds every setting of a split run.
type Config struct {
	IDColumn  string `mapstructure:"id_col"`
	InputPath string `mapstructure:"input_file" default:"shared/sample-data/sample.tsv"`
	OutputDir string `mapstructure:"output_dir" default:"shared/sample-output"`
	MaxRows   int    `mapstructure:"max_rows"`

	// Header writes a header line into each output file.
	Header bool `mapstructure:"header"`

	// InputHeader tells that the first line of the input holds column names.
	InputHeader bool `mapstructure:"input_header"`

	// Parallelism is a hint for engines and the number of shards written per chunk.
	// It never changes the content or the number of output files.
	Parallelism int `mapstructure:"num_proc" default:"1"`

	Engine    string `mapstructure:"engine" default:"local"`
	Order     Order  `mapstructure:"order" default:"engine"`
	Overwrite bool   `mapstructure:"overwrite"`
	Prefix    string `mapstructure:"prefix" default:"sample-part"`

	ManifestPath string `mapstructure:"manifest"`
	MetricsPath  string `mapstructure:"metrics_file"`

	MemoryLimitMB int64  `mapstructure:"memory_limit_mb"`
	TempDir       string `mapstructure:"temp_dir"`
}

func DefaultConfig() (c Config) {
	if err := defaults.Set(&c); err != nil {
		panic(err)
	}
	c.Header = true
	c.InputHeader = true
	c.Overwrite = true
	return
}

// Validate checks settings which can be checked before reading the input.
func (c Config) Validate() error {
	var problems []string
	if c.IDColumn == "" {
		problems = append(problems, "identifier column is required")
	}
	if c.InputPath == "" {
		problems = append(problems, "input file is required")
	}
	if c.OutputDir == "" {
		problems = append(problems, "output directory is required")
	}
	if c.MaxRows <= 0 {
		problems = append(problems, fmt.Sprintf("max rows must be positive, got %d", c.MaxRows))
	}
	if c.Parallelism <= 0 {
		problems = append(problems, fmt.Sprintf("parallelism must be positive, got %d", c.Parallelism))
	}
	if !lo.Contains(engine.Names(), c.Engine) {
		problems = append(problems, fmt.Sprintf("unknown engine %q (available: %s)", c.Engine, strings.Join(engine.Names(), ", ")))
	}
	if _, err := ParseOrder(string(c.Order)); err != nil {
		problems = append(problems, fmt.Sprintf("unknown order %q", c.Order))
	}
	if c.ManifestPath != "" {
		if _, err := manifestCodecOf(c.ManifestPath); err != nil {
			problems = append(problems, fmt.Sprintf("manifest %s must end with .json, .yaml or .yml", c.ManifestPath))
		}
	}
	if len(problems) > 0 {
		return errors.Wrap(ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// engineOptions copies the fields Config shares with engine.Options by name.
func (c Config) engineOptions() (engine.Options, error) {
	opts := engine.DefaultOptions()
	if err := copier.Copy(&opts, &c); err != nil {
		return opts, errors.Wrap(err, "copy engine options")
	}
	return opts, nil
}

func (c Config) sinkOptions() output.SinkOptions {
	opts := output.DefaultSinkOptions()
	opts.Dir = c.OutputDir
	opts.Prefix = c.Prefix
	opts.Header = c.Header
	opts.Overwrite = c.Overwrite
	opts.Shards = c.Parallelism
	return opts
}

// Split loads the input file with the configured engine and writes its rows
// into chunked output files.
func Split(ctx context.Context, c Config) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	order, _ := ParseOrder(string(c.Order))
	collectors := metric.NewCollectors()

	engineOpts, err := c.engineOptions()
	if err != nil {
		return nil, err
	}

	var result *Result
	err = engine.WithSession(ctx, c.Engine, engineOpts, func(e engine.Engine) error {
		table, err := e.Load(ctx, engine.Source{Path: c.InputPath, Header: c.InputHeader})
		if err != nil {
			return errors.WithMessagef(err, "load %s", c.InputPath)
		}
		sink := output.NewChunkSink(table.Columns(), c.sinkOptions())
		planner := NewPlanner(table, sink, c.IDColumn, c.MaxRows,
			WithOrder(order),
			WithCollectors(collectors),
		)
		result, err = planner.Run(ctx)
		return err
	})
	if err != nil {
		return result, err
	}

	if c.ManifestPath != "" {
		if err := WriteManifest(c.ManifestPath, result); err != nil {
			return result, err
		}
		log.Info().Str("path", c.ManifestPath).Msg("wrote manifest")
	}
	if c.MetricsPath != "" {
		if err := collectors.WriteToTextfile(c.MetricsPath); err != nil {
			return result, err
		}
		values, err := collectors.Values()
		if err != nil {
			return result, err
		}
		log.Info().Str("path", c.MetricsPath).Interface("metrics", values).Msg("wrote metrics")
	}
	return result, nil
}
