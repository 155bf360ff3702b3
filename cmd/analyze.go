package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/claimsight/denials-cli/internal/engine"
	"github.com/claimsight/denials-cli/internal/ingest"
	"github.com/claimsight/denials-cli/internal/model"
	"github.com/claimsight/denials-cli/internal/store"
)

var (
	analyzeInput   string
	analyzeSheet   string
	analyzeOut     string
	analyzeDims    []string
	analyzeTopK    int
	analyzeMinVol  int
	analyzeWeights []float64
	analyzeRules   string
	analyzeNoSave  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a claims file for denial trends",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		records, err := readClaims(analyzeInput, analyzeSheet)
		if err != nil {
			return err
		}
		zap.L().Info("claims loaded",
			zap.String("input", analyzeInput),
			zap.Int("records", len(records)),
		)

		opts, err := engineOptions(cmd)
		if err != nil {
			return err
		}

		result, err := engine.Analyze(ctx, records, opts)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}
		result.RunID = uuid.New().String()

		if !analyzeNoSave && cfg.Store.Driver != "none" {
			if err := persistRun(ctx, result, analyzeInput); err != nil {
				zap.L().Warn("run not persisted", zap.Error(err))
			}
		}

		return writeResult(result, analyzeOut)
	},
}

// readClaims dispatches on file extension.
func readClaims(path, sheet string) ([]model.RawClaim, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ingest.ReadCSVFile(path)
	case ".xlsx":
		return ingest.ReadXLSXFile(path, sheet)
	default:
		return nil, eris.Errorf("unsupported input format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

// engineOptions builds engine options from config, then applies any flags
// the user set explicitly.
func engineOptions(cmd *cobra.Command) (engine.Options, error) {
	opts, err := engine.OptionsFromConfig(cfg.Engine, cfg.Payers)
	if err != nil {
		return engine.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("dimensions") {
		dims := make([]model.Dimension, 0, len(analyzeDims))
		for _, d := range analyzeDims {
			dims = append(dims, model.Dimension(strings.TrimSpace(d)))
		}
		opts.Dimensions = dims
	}
	if flags.Changed("top-k") {
		opts.TopK = analyzeTopK
	}
	if flags.Changed("min-volume") {
		opts.MinVolume = analyzeMinVol
	}
	if flags.Changed("weights") {
		if len(analyzeWeights) != 3 {
			return engine.Options{}, eris.New("--weights needs exactly three values: rate,count,amount")
		}
		opts.WeightDenialRate = analyzeWeights[0]
		opts.WeightCount = analyzeWeights[1]
		opts.WeightAmount = analyzeWeights[2]
	}
	if flags.Changed("rules") {
		catalog, err := engine.LoadCatalog(analyzeRules)
		if err != nil {
			return engine.Options{}, err
		}
		opts.Catalog = catalog
	}
	return opts, nil
}

func persistRun(ctx context.Context, result *model.AnalysisResult, source string) error {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil || st == nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	return st.SaveRun(ctx, &model.Run{
		ID:        result.RunID,
		Source:    filepath.Base(source),
		Status:    model.RunStatusComplete,
		Params:    result.Params,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	})
}

func writeResult(result *model.AnalysisResult, out string) error {
	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "create %s", out)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "claims file, .csv or .xlsx (required)")
	analyzeCmd.Flags().StringVar(&analyzeSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "write result JSON to file instead of stdout")
	analyzeCmd.Flags().StringSliceVar(&analyzeDims, "dimensions", nil, "dimensions to analyze (cpt, payer, provider)")
	analyzeCmd.Flags().IntVar(&analyzeTopK, "top-k", 0, "number of top trends per dimension")
	analyzeCmd.Flags().IntVar(&analyzeMinVol, "min-volume", 0, "minimum claim volume per group")
	analyzeCmd.Flags().Float64SliceVar(&analyzeWeights, "weights", nil, "severity weights: rate,count,amount (must sum to 1)")
	analyzeCmd.Flags().StringVar(&analyzeRules, "rules", "", "YAML rule catalog overriding the built-in rules")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "skip persisting the run")
	_ = analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}
