package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"goxtab/adapters/excel"
	"goxtab/domain/banner"
	"goxtab/domain/run"
	"goxtab/domain/survey"
	"goxtab/internal/config"
	"goxtab/internal/engine"
	apperrors "goxtab/internal/errors"
	"goxtab/internal/testkit"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "goxtab",
		Short: "Weighted crosstab and significance testing engine",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newInspectCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if remedy := apperrors.GetRemedy(err); remedy != "" {
			fmt.Fprintln(os.Stderr, "hint:", remedy)
		}
		os.Exit(1)
	}
}

// StudyFile is the on-disk shape of a prepared study: questionnaire,
// respondent records, optional weights, banner, optional config.
type StudyFile struct {
	Questions []survey.Question `json:"questions"`
	Records   []survey.Record   `json:"records"`
	Weights   survey.Weights    `json:"weights,omitempty"`
	Banner    banner.Spec       `json:"banner"`
	Config    *run.Config       `json:"config,omitempty"`
}

func newRunCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "run [study.json]",
		Short: "Tabulate a prepared study file and write the crosstab workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var study StudyFile
			if err := json.Unmarshal(raw, &study); err != nil {
				return apperrors.InvalidInput(fmt.Sprintf("study file is not valid JSON: %v", err))
			}

			cfg := defaultConfig()
			if study.Config != nil {
				cfg = *study.Config
			}

			return execute(cmd.Context(), study.Questions, survey.Dataset{Records: study.Records},
				study.Weights, study.Banner, cfg, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "crosstabs.xlsx", "report output path")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [study.json]",
		Short: "Profile a study file without tabulating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var study StudyFile
			if err := json.Unmarshal(raw, &study); err != nil {
				return apperrors.InvalidInput(fmt.Sprintf("study file is not valid JSON: %v", err))
			}

			data := survey.Dataset{Records: study.Records}
			fmt.Printf("respondents: %d\n", data.Len())
			fmt.Printf("questions: %d\n", len(study.Questions))
			fmt.Printf("banner entries: %d\n", len(study.Banner.Entries))
			if data.Len() == 0 {
				return nil
			}

			weights := study.Weights
			if weights == nil {
				weights = survey.Uniform(data.Len())
			}
			if diag, err := engine.DiagnoseWeights(weights); err == nil {
				fmt.Printf("weights: mean=%.3f sd=%.3f cv=%.3f range=[%.3f, %.3f] zeros=%d\n",
					diag.Mean, diag.StdDev, diag.CV, diag.Min, diag.Max, diag.ZeroCount)
				fmt.Printf("sample-wide design effect: %.3f\n", 1+diag.CV*diag.CV)
			}

			for _, q := range study.Questions {
				if q.Type == survey.TypeComposite {
					fmt.Printf("%-10s %-10s (derived)\n", q.Code, q.Type)
					continue
				}
				answered := answerCount(q, data)
				fmt.Printf("%-10s %-10s answered %d/%d (%.1f%%)\n",
					q.Code, q.Type, answered, data.Len(), 100*float64(answered)/float64(data.Len()))
			}
			return nil
		},
	}
}

// answerCount counts non-missing responses, reading grid sub-columns
// for rank and sub-coded multi questions.
func answerCount(q survey.Question, data survey.Dataset) int {
	n := 0
	for _, rec := range data.Records {
		switch q.Type {
		case survey.TypeRank, survey.TypeMulti:
			if rec.Has(string(q.Code)) {
				n++
				continue
			}
			for _, opt := range q.Options {
				if rec.Has(q.SubCode(opt.Code)) {
					n++
					break
				}
			}
		default:
			if rec.Has(string(q.Code)) {
				n++
			}
		}
	}
	return n
}

func newDemoCmd() *cobra.Command {
	var output string
	var seed int64
	var respondents int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the synthetic demo study end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			genCfg := testkit.DefaultSurveyConfig()
			genCfg.Seed = seed
			if respondents > 0 {
				genCfg.RespondentCount = respondents
			}
			gen := testkit.NewSurveyGenerator(genCfg)
			data, weights := gen.Generate()

			cfg := defaultConfig()
			cfg.OverallChiSquare = true

			return execute(cmd.Context(), gen.Questions(), data, weights, gen.BannerSpec(), cfg, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "demo_crosstabs.xlsx", "report output path")
	cmd.Flags().Int64Var(&seed, "seed", 42, "generator seed")
	cmd.Flags().IntVar(&respondents, "respondents", 0, "respondent count override")
	return cmd
}

// execute runs the engine and writes the workbook plus a console summary
func execute(ctx context.Context, questions []survey.Question, data survey.Dataset,
	weights survey.Weights, spec banner.Spec, cfg run.Config, output string) error {

	result, err := engine.Run(ctx, questions, data, weights, spec, cfg)
	if err != nil {
		return err
	}

	writer := excel.NewReportWriter()
	if err := writer.Write(ctx, result, output); err != nil {
		return err
	}

	fmt.Printf("status: %s\n", result.Summary.Status)
	fmt.Printf("questions tabulated: %d\n", result.Summary.QuestionsRun)
	for _, skip := range result.Summary.Skipped {
		fmt.Printf("skipped %s (%s): %s\n", skip.Question, skip.Reason, skip.Detail)
	}
	for _, warning := range result.Summary.Warnings {
		fmt.Printf("warning: %s\n", warning.Message)
	}
	fmt.Printf("report written to %s\n", output)
	return nil
}

// defaultConfig resolves engine defaults, honoring env overrides
func defaultConfig() run.Config {
	if cfg, err := config.Load(); err == nil {
		return cfg.Defaults
	}
	return run.DefaultConfig()
}
