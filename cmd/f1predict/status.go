package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yourusername/f1-predictor/internal/ml"
	"github.com/yourusername/f1-predictor/internal/repository"
)

func newStatusCmd(a *App) *cobra.Command {
	var modelsDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show model artifacts and history store status",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			out := cmd.OutOrStdout()
			bank := a.Bank(modelsDir)
			fmt.Fprintf(out, "Models (%s):\n", bank.Dir())
			writeModelStatus(out, bank)

			fmt.Fprintf(out, "History store (%s): %s\n", a.cfg.Storage.Driver, historyStatus(ctx, a))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelsDir, "models-dir", "", "Directory of model artifacts (default models.dir)")
	return cmd
}

func writeModelStatus(w io.Writer, bank *ml.Bank) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Session", "Version", "Trained", "Seasons", "Rows", "Train RMSE"})

	trained := make(map[string]bool)
	for _, info := range bank.Info() {
		trained[string(info.Session)] = true
		rmse := "-"
		if v, ok := info.GetMetric("train_rmse"); ok {
			rmse = decimal.NewFromFloat(v).StringFixed(4)
		}
		t.AppendRow(table.Row{
			info.Session.Label(),
			info.Version,
			info.TrainedAt.UTC().Format("2006-01-02 15:04"),
			fmt.Sprint(info.Seasons),
			info.Rows,
			rmse,
		})
	}
	for _, session := range ml.Sessions {
		if !trained[string(session)] {
			t.AppendRow(table.Row{session.Label(), "missing", "-", "-", "-", "-"})
		}
	}
	t.Render()
}

func historyStatus(ctx context.Context, a *App) string {
	repo, err := a.History(ctx)
	if errors.Is(err, repository.ErrStorageDisabled) {
		return "disabled"
	}
	if err != nil {
		return "unavailable: " + err.Error()
	}
	if err := repo.Ping(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	runs, err := repo.List(ctx, repository.Filter{Limit: 1})
	if err != nil {
		return "unavailable: " + err.Error()
	}
	if len(runs) == 0 {
		return "ok, no runs recorded"
	}
	return fmt.Sprintf("ok, last run %s at %s", eventLabel(runs[0]), runs[0].CreatedAt.UTC().Format(time.RFC3339))
}
