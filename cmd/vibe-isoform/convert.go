package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-isoform/internal/loader"
	"github.com/inodb/vibe-isoform/internal/output"
)

func newConvertCmd(logger func() *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a table between supported formats",
		Long: `Load any supported table (.tsv, .txt, .csv, .gz, .parquet, .xlsx, .xls) and
write it as .tsv, .txt, .csv or .parquet. Converting a large expression
matrix to parquet makes later runs load it faster.`,
		Example: `  vibe-isoform convert counts.xlsx counts.parquet
  vibe-isoform convert counts.tsv.gz counts.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], args[1], logger())
		},
	}
}

func runConvert(inputPath, outputPath string, logger *zap.Logger) error {
	defer logger.Sync() //nolint:errcheck

	fl, err := loader.Open()
	if err != nil {
		return err
	}
	defer fl.Close()

	rel, err := fl.Load(inputPath)
	if err != nil {
		return err
	}
	logger.Debug("loaded table",
		zap.String("path", inputPath),
		zap.Int("rows", rel.NumRows()),
		zap.Int("columns", rel.NumCols()))

	if err := output.WriteFile(outputPath, rel, fl.Store()); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	var size string
	if stat, err := os.Stat(outputPath); err == nil {
		size = fmt.Sprintf("%.2f MB", float64(stat.Size())/(1024*1024))
	} else {
		size = "unknown"
	}
	logger.Info("conversion complete",
		zap.String("output", outputPath),
		zap.Int("rows", rel.NumRows()),
		zap.String("size", size))
	return nil
}
