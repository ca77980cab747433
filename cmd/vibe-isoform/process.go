package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-isoform/internal/expression"
	"github.com/inodb/vibe-isoform/internal/loader"
	"github.com/inodb/vibe-isoform/internal/output"
)

// Config keys for process flags.
const (
	keyMeasure            = "process.measure"
	keyCPM                = "process.cpm"
	keyRelativeAbundance  = "process.relative_abundance"
	keyGeneIDColumn       = "process.gene_id_column"
	keyTranscriptIDColumn = "process.transcript_id_column"
	keySampleIDColumn     = "process.sample_id_column"
	keyCacheDir           = "process.cache_dir"
)

func newProcessCmd(logger func() *zap.Logger) *cobra.Command {
	var (
		metadataPath string
		outputPath   string
		noGeneID     bool
	)
	defaults := expression.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "process <expression-file>",
		Short: "Reshape an expression matrix into a long table",
		Long: `Reshape a wide transcript expression matrix into a long table with one row
per transcript and sample. Supported inputs: .tsv, .txt, .csv (optionally
gzipped), .parquet, .xlsx and .xls.`,
		Example: `  vibe-isoform process counts.tsv
  vibe-isoform process --cpm --relative-abundance counts.tsv -o long.parquet
  vibe-isoform process --metadata samples.csv --sample-id-column sample counts.csv
  vibe-isoform process --no-gene-id --measure tpm tpm.tsv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := expression.Options{
				ExpressionPath:     args[0],
				MetadataPath:       metadataPath,
				MeasureName:        viper.GetString(keyMeasure),
				CPM:                viper.GetBool(keyCPM),
				RelativeAbundance:  viper.GetBool(keyRelativeAbundance),
				GeneIDColumn:       viper.GetString(keyGeneIDColumn),
				TranscriptIDColumn: viper.GetString(keyTranscriptIDColumn),
				SampleIDColumn:     viper.GetString(keySampleIDColumn),
			}
			if noGeneID {
				opts.GeneIDColumn = ""
			}
			return runProcess(opts, outputPath, viper.GetString(keyCacheDir), logger())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&metadataPath, "metadata", "", "Sample metadata file to left-join on the sample id column")
	flags.StringVarP(&outputPath, "output", "o", "", "Output file: .tsv, .txt, .csv or .parquet (default: stdout)")
	flags.BoolVar(&noGeneID, "no-gene-id", false, "The matrix has no gene id column")
	flags.String("measure", defaults.MeasureName, "Name of the expression value column")
	flags.Bool("cpm", defaults.CPM, "Add counts per million")
	flags.Bool("relative-abundance", defaults.RelativeAbundance, "Add relative transcript abundance within each gene")
	flags.String("gene-id-column", defaults.GeneIDColumn, "Gene identifier column")
	flags.String("transcript-id-column", defaults.TranscriptIDColumn, "Transcript identifier column")
	flags.String("sample-id-column", defaults.SampleIDColumn, "Sample identifier column in the output and the metadata")
	flags.String("cache-dir", "", "Directory for parquet copies of parsed input files (default: no cache)")
	cmd.MarkFlagsMutuallyExclusive("gene-id-column", "no-gene-id")

	bindings := map[string]string{
		keyMeasure:            "measure",
		keyCPM:                "cpm",
		keyRelativeAbundance:  "relative-abundance",
		keyGeneIDColumn:       "gene-id-column",
		keyTranscriptIDColumn: "transcript-id-column",
		keySampleIDColumn:     "sample-id-column",
		keyCacheDir:           "cache-dir",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func runProcess(opts expression.Options, outputPath, cacheDir string, logger *zap.Logger) error {
	defer logger.Sync() //nolint:errcheck

	fl, err := loader.Open()
	if err != nil {
		return err
	}
	defer fl.Close()
	fl.SetLogger(logger)
	fl.SetCacheDir(cacheDir)

	p := expression.NewPipeline(fl)
	p.SetLogger(logger)

	long, err := p.Process(opts)
	if err != nil {
		return err
	}

	if err := output.WriteFile(outputPath, long, fl.Store()); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if outputPath != "" && outputPath != "-" {
		logger.Info("wrote long table",
			zap.String("path", outputPath),
			zap.Int("rows", long.NumRows()),
			zap.Int("columns", long.NumCols()))
	}
	return nil
}
