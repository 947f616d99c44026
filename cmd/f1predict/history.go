package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/yourusername/f1-predictor/internal/models"
	"github.com/yourusername/f1-predictor/internal/pipeline"
	"github.com/yourusername/f1-predictor/internal/repository"
)

type historyOptions struct {
	season int
	round  int
	limit  int
	id     string
}

func newHistoryCmd(a *App) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "List recorded prediction runs",
		Example: "  f1predict history --season 2024 --limit 5\n  f1predict history --id 3f1c2a9e-...",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, a, opts)
		},
	}

	cmd.Flags().IntVar(&opts.season, "season", 0, "Only runs of this season")
	cmd.Flags().IntVar(&opts.round, "round", 0, "Only runs of this round")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum number of runs listed")
	cmd.Flags().StringVar(&opts.id, "id", "", "Print the full report of one run")
	return cmd
}

func runHistory(cmd *cobra.Command, a *App, opts *historyOptions) error {
	if opts.limit < 0 || opts.season < 0 || opts.round < 0 {
		return models.ConfigurationErrorf("--season, --round and --limit cannot be negative")
	}
	ctx := cmd.Context()

	repo, err := a.History(ctx)
	if errors.Is(err, repository.ErrStorageDisabled) {
		return models.ConfigurationErrorf("history needs storage.driver sqlite or postgres")
	}
	if err != nil {
		return err
	}

	if opts.id != "" {
		id, err := uuid.Parse(opts.id)
		if err != nil {
			return models.ConfigurationErrorf("invalid run id %q", opts.id)
		}
		run, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		pipeline.WriteReport(cmd.OutOrStdout(), run)
		return nil
	}

	runs, err := repo.List(ctx, repository.Filter{Season: opts.season, Round: opts.round, Limit: opts.limit})
	if err != nil {
		return err
	}
	writeHistory(cmd.OutOrStdout(), runs)
	return nil
}

func writeHistory(w io.Writer, runs []*models.PredictionRun) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Run", "Created", "Event", "Session", "Winner", "Weather", "Driver"})
	for _, run := range runs {
		kind := run.Session.Label()
		if run.IsReplay() {
			kind = "Result"
		}
		driver := run.DriverFilter
		if driver == "" {
			driver = "all"
		}
		t.AppendRow(table.Row{
			run.ID.String()[:8],
			run.CreatedAt.UTC().Format("2006-01-02 15:04"),
			eventLabel(run),
			kind,
			run.Winner(),
			string(run.WeatherSource),
			driver,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Runs", len(runs)})
	t.Render()
}

func eventLabel(run *models.PredictionRun) string {
	return fmt.Sprintf("%d R%d %s", run.Season, run.Round, run.EventName)
}
