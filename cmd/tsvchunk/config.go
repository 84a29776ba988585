package main

import (
	"strings"

	"github.com/ab180/tsvchunk"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "TSVCHUNK"

// requiredKeys must be given by a flag, an environment variable or the config file.
var requiredKeys = []string{"id_col", "max_rows", "num_proc"}

func registerFlags(cmd *cobra.Command) {
	d := tsvchunk.DefaultConfig()

	f := cmd.Flags()
	f.String("id_col", "", "identifier column; rows sharing its value are kept in one file (required)")
	f.String("input_file", d.InputPath, "path of the input TSV file (.gz, .zst and .lz4 are decompressed)")
	f.String("output_dir", d.OutputDir, "directory to write output files into")
	f.Int("max_rows", 0, "maximum number of rows per output file (required)")
	f.String("header", "true", "write a header line into each output file (\"true\" case-insensitively, otherwise false)")
	f.Int("num_proc", d.Parallelism, "parallelism hint for the engine and the writers (required)")
	f.Bool("input_header", d.InputHeader, "the first line of the input holds column names")
	f.String("engine", d.Engine, "processing engine: local, duckdb or sqlite")
	f.String("order", string(d.Order), "order of groups: engine or sorted")
	f.Bool("overwrite", d.Overwrite, "replace existing output files")
	f.String("prefix", d.Prefix, "prefix of output file names")
	f.String("manifest", "", "write the file-to-group assignment into this .json or .yaml file")
	f.String("metrics_file", "", "write metrics into this file in Prometheus text format")
	f.Int64("memory_limit_mb", 0, "memory limit of the engine in megabytes, if supported")
	f.String("temp_dir", "", "directory for engine working files")

	cmd.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringP("log", "l", "info", "log level: trace, debug, info, warn, error")
}

// loadConfig merges flags, TSVCHUNK_* environment variables and the config file, in order of precedence.
func loadConfig(cmd *cobra.Command) (tsvchunk.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return tsvchunk.Config{}, errors.Wrap(err, "bind flags")
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return tsvchunk.Config{}, errors.Wrapf(tsvchunk.ErrInvalidConfig, "read config %s: %v", path, err)
		}
	}

	var missing []string
	for _, k := range requiredKeys {
		if !v.IsSet(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return tsvchunk.Config{}, errors.Wrapf(tsvchunk.ErrInvalidConfig, "required flag(s) %s not set", strings.Join(missing, ", "))
	}

	c := tsvchunk.DefaultConfig()
	c.IDColumn = v.GetString("id_col")
	c.InputPath = v.GetString("input_file")
	c.OutputDir = v.GetString("output_dir")
	c.MaxRows = v.GetInt("max_rows")
	c.Header = parseHeader(v.GetString("header"))
	c.Parallelism = v.GetInt("num_proc")
	c.InputHeader = v.GetBool("input_header")
	c.Engine = v.GetString("engine")
	c.Overwrite = v.GetBool("overwrite")
	c.Prefix = v.GetString("prefix")
	c.ManifestPath = v.GetString("manifest")
	c.MetricsPath = v.GetString("metrics_file")
	c.MemoryLimitMB = v.GetInt64("memory_limit_mb")
	c.TempDir = v.GetString("temp_dir")

	order, err := tsvchunk.ParseOrder(v.GetString("order"))
	if err != nil {
		return tsvchunk.Config{}, err
	}
	c.Order = order
	return c, c.Validate()
}

// parseHeader accepts "true" in any case as true. Anything else, including
// "true" surrounded by spaces, is false.
func parseHeader(s string) bool {
	return strings.ToLower(s) == "true"
}
