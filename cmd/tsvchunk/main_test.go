package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ab180/tsvchunk"
	"github.com/ab180/tsvchunk/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	return cmd.ExecuteContext(context.Background())
}

func writeInput(t *testing.T) string {
	return testutils.WriteTSV(t, t.TempDir(), "sample.tsv",
		"filename\tlabel",
		"a.wav\tx",
		"a.wav\ty",
		"b.wav\tz",
	)
}

func TestParseHeader(t *testing.T) {
	for s, expected := range map[string]bool{
		"true":  true,
		"TRUE":  true,
		"tRuE":  true,
		"True ": false,
		" true": false,
		"false": false,
		"1":     false,
		"yes":   false,
		"":      false,
	} {
		assert.Equal(t, expected, parseHeader(s), "%q", s)
	}
}

func TestRootCmd(t *testing.T) {
	t.Run("Splits", func(t *testing.T) {
		outDir := t.TempDir()
		manifest := filepath.Join(t.TempDir(), "plan.yaml")
		err := execute(t,
			"--id_col", "filename",
			"--input_file", writeInput(t),
			"--output_dir", outDir,
			"--max_rows", "2",
			"--num_proc", "2",
			"--header", "False",
			"--manifest", manifest,
		)
		require.NoError(t, err)

		assert.Equal(t, []string{"a.wav\tx", "a.wav\ty"}, testutils.ReadLines(t, filepath.Join(outDir, "sample-part_1.tsv")))
		assert.Equal(t, []string{"b.wav\tz"}, testutils.ReadLines(t, filepath.Join(outDir, "sample-part_2.tsv")))

		result, err := tsvchunk.ReadManifest(manifest)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a.wav": 1, "b.wav": 2}, result.Assignments())
	})

	t.Run("RequiresFlags", func(t *testing.T) {
		err := execute(t, "--input_file", writeInput(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, tsvchunk.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "id_col, max_rows, num_proc")
	})

	t.Run("RejectsNonIntegerMaxRows", func(t *testing.T) {
		err := execute(t, "--id_col", "filename", "--max_rows", "many", "--num_proc", "1")
		assert.ErrorIs(t, err, tsvchunk.ErrInvalidConfig)
	})

	t.Run("RejectsUnknownEngine", func(t *testing.T) {
		err := execute(t,
			"--id_col", "filename",
			"--input_file", writeInput(t),
			"--output_dir", t.TempDir(),
			"--max_rows", "2",
			"--num_proc", "1",
			"--engine", "spark",
		)
		assert.ErrorIs(t, err, tsvchunk.ErrInvalidConfig)
	})

	t.Run("ReportsUnknownColumn", func(t *testing.T) {
		err := execute(t,
			"--id_col", `"filename"`,
			"--input_file", writeInput(t),
			"--output_dir", t.TempDir(),
			"--max_rows", "2",
			"--num_proc", "1",
		)
		assert.ErrorIs(t, err, tsvchunk.ErrColumnNotFound)
	})

	t.Run("ReadsEnvAndConfigFile", func(t *testing.T) {
		outDir := t.TempDir()
		config := filepath.Join(t.TempDir(), "tsvchunk.yaml")
		require.NoError(t, os.WriteFile(config, []byte("id_col: filename\nmax_rows: 10\nprefix: chunk\n"), 0o644))
		t.Setenv("TSVCHUNK_NUM_PROC", "3")
		t.Setenv("TSVCHUNK_OUTPUT_DIR", outDir)

		err := execute(t, "--config", config, "--input_file", writeInput(t))
		require.NoError(t, err)

		lines := testutils.ReadLines(t, filepath.Join(outDir, "chunk_1.tsv"))
		assert.Len(t, lines, 4)
		assert.Equal(t, "filename\tlabel", lines[0])
	})
}
