package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/ab180/tsvchunk"
	_ "github.com/ab180/tsvchunk/engine/duckdb"
	_ "github.com/ab180/tsvchunk/engine/sqlite"
	"github.com/ab180/tsvchunk/internal/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tsvchunk",
		Short: "Split a TSV file into chunks without splitting groups of an identifier column",
		Long: "tsvchunk splits a large tab-delimited file into smaller files. Rows sharing the value\n" +
			"of the identifier column are always written into the same file, and a file holds at most\n" +
			"max_rows rows unless a single group is larger than that.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSplit,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(tsvchunk.ErrInvalidConfig, err.Error())
	})
	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		levelStr, _ := c.Flags().GetString("log")
		level, err := zerolog.ParseLevel(levelStr)
		if err != nil {
			return errors.Wrapf(tsvchunk.ErrInvalidConfig, "log level %q", levelStr)
		}
		zerolog.SetGlobalLevel(level)
		return nil
	}
	registerFlags(cmd)
	return cmd
}

func runSplit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Debug().Interface("config", cfg).Msg("starting")

	result, err := tsvchunk.Split(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	log.Debug().Msgf("metrics:\n%s", result.Metrics)
	log.Info().
		Str("run_id", result.RunID).
		Int("files", len(result.Files)).
		Int("rows", result.TotalRows()).
		Str("output_dir", cfg.OutputDir).
		Msg("done")
	return nil
}

func setupLogger() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func run() int {
	setupLogger()
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		log.Debug().Msgf(format, args...)
	}))
	defer undo()
	if err != nil {
		log.Warn().Err(err).Msg("failed to set GOMAXPROCS")
	}

	ctx, cancel := util.ContextWithSignal(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "tsvchunk:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
