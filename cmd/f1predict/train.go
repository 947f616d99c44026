package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/f1-predictor/internal/features"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/metrics"
	"github.com/yourusername/f1-predictor/internal/ml"
	"github.com/yourusername/f1-predictor/internal/models"
	"github.com/yourusername/f1-predictor/internal/practice"
	"github.com/yourusername/f1-predictor/internal/training"
)

// Seasons before the world championship are rejected.
const firstSeason = 1950

type trainOptions struct {
	seasons    []int
	outputData string
	inputData  []string
	modelsDir  string
}

// trainResult is one line of the training summary.
type trainResult struct {
	session models.SessionType
	rows    int
	status  string
	rmse    float64
	path    string
}

func newTrainCmd(a *App) *cobra.Command {
	opts := &trainOptions{}

	cmd := &cobra.Command{
		Use:   "train [seasons...]",
		Short: "Train the qualifying, sprint and race models",
		Long: `Builds a labelled feature set from completed weekends of the given seasons
and/or previously exported CSV files, then trains one model per session type.`,
		Example: "  f1predict train --seasons 2023 2024 --output-data features.csv\n  f1predict train --input-data 2023.csv --input-data 2024.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			seasons, err := parseSeasons(opts.seasons, args)
			if err != nil {
				return err
			}
			opts.seasons = seasons
			return runTrain(cmd, a, opts)
		},
	}

	cmd.Flags().IntSliceVar(&opts.seasons, "seasons", nil, "Seasons to build the training set from")
	cmd.Flags().StringVar(&opts.outputData, "output-data", "", "Write the training set to this CSV file")
	cmd.Flags().StringSliceVar(&opts.inputData, "input-data", nil, "Read training rows from CSV files instead of, or besides, the data source")
	cmd.Flags().StringVar(&opts.modelsDir, "models-dir", "", "Directory for model artifacts (default models.dir)")
	return cmd
}

// parseSeasons merges --seasons with positional seasons, keeping first-seen order.
func parseSeasons(flagged []int, args []string) ([]int, error) {
	all := append([]int(nil), flagged...)
	for _, arg := range args {
		season, err := strconv.Atoi(arg)
		if err != nil {
			return nil, models.ConfigurationErrorf("season %q is not a year", arg)
		}
		all = append(all, season)
	}

	seen := make(map[int]bool, len(all))
	out := make([]int, 0, len(all))
	maxSeason := time.Now().Year() + 1
	for _, season := range all {
		if season < firstSeason || season > maxSeason {
			return nil, models.ConfigurationErrorf("season %d is outside %d-%d", season, firstSeason, maxSeason)
		}
		if !seen[season] {
			seen[season] = true
			out = append(out, season)
		}
	}
	return out, nil
}

func runTrain(cmd *cobra.Command, a *App, opts *trainOptions) error {
	if len(opts.seasons) == 0 && len(opts.inputData) == 0 {
		return models.ConfigurationErrorf("give --seasons or --input-data")
	}
	ctx := cmd.Context()
	mlLog := logger.NewMLLogger(a.log)

	var rows []training.Row
	if len(opts.inputData) > 0 {
		imported, err := training.LoadCSV(opts.inputData...)
		if err != nil {
			return err
		}
		a.log.WithField("rows", len(imported)).Info("Training rows imported")
		rows = append(rows, imported...)
	}

	if len(opts.seasons) > 0 {
		src, err := a.Source()
		if err != nil {
			return err
		}
		predLog := logger.NewPredictionLogger(a.log)
		builder := training.NewBuilder(
			src,
			practice.NewAnalyzer(a.cfg.Practice),
			features.NewBuilder(a.cfg.Defaults, predLog),
			a.cfg.Stats,
			a.cfg.Defaults,
			mlLog,
		)
		built, err := builder.Build(ctx, opts.seasons)
		if err != nil {
			return err
		}
		rows = append(rows, built...)
	}

	if opts.outputData != "" {
		if err := training.SaveCSV(opts.outputData, rows); err != nil {
			return err
		}
		a.log.WithFields(logrus.Fields{"path": opts.outputData, "rows": len(rows)}).Info("Training set exported")
	}

	bank := a.Bank(opts.modelsDir)
	trainer := ml.NewTrainer(a.cfg.Training, mlLog)
	datasets := training.Datasets(rows)

	results := make([]trainResult, 0, len(ml.Sessions))
	trained := 0
	for _, session := range ml.Sessions {
		ds := datasets[session]
		res := trainResult{session: session, rows: len(ds.Rows)}

		model, err := trainer.Train(session, ds)
		switch {
		case errors.Is(err, ml.ErrInsufficientData):
			mlLog.LogTrainingSkipped(string(session), len(ds.Rows))
			metrics.RecordTrainingRun(string(session), "skipped")
			res.status = "skipped"
			results = append(results, res)
			continue
		case err != nil:
			metrics.RecordTrainingRun(string(session), "failure")
			return fmt.Errorf("failed to train %s model: %w", session, err)
		}

		res.path = bank.Path(session)
		if err := ml.Save(res.path, model); err != nil {
			metrics.RecordTrainingRun(string(session), "failure")
			return fmt.Errorf("failed to save %s model: %w", session, err)
		}
		metrics.RecordTrainingRun(string(session), "success")
		res.status = "trained"
		res.rmse = model.Info.Metrics["train_rmse"]
		results = append(results, res)
		trained++
	}

	writeTrainSummary(cmd.OutOrStdout(), results)
	if trained == 0 {
		return fmt.Errorf("no model trained from %d rows", len(rows))
	}
	return nil
}

func writeTrainSummary(w io.Writer, results []trainResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Session", "Rows", "Status", "Train RMSE", "Artifact"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	for _, r := range results {
		rmse, path := "-", "-"
		if r.status == "trained" {
			rmse = decimal.NewFromFloat(r.rmse).StringFixed(4)
			path = r.path
		}
		t.AppendRow(table.Row{r.session.Label(), r.rows, r.status, rmse, path})
	}
	t.Render()
}
