package pipeline

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/yourusername/f1-predictor/internal/models"
)

const notAvailable = "N/A"

// WriteReport renders a run as a table. Nothing is written for a nil run.
func WriteReport(w io.Writer, run *models.PredictionRun) {
	if run == nil {
		return
	}

	if run.IsReplay() {
		fmt.Fprintf(w, "%d R%d %s: final classification\n", run.Season, run.Round, run.EventName)
	} else {
		fmt.Fprintf(w, "%d R%d %s: %s prediction (weather %s, rain %s)\n",
			run.Season, run.Round, run.EventName, run.Session.Label(),
			run.WeatherSource, decimal.NewFromFloat(run.RainProbability).StringFixed(2))
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Pos", "Driver", "Quali", "Sprint", ScoreHeader(run)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, r := range run.Results {
		t.AppendRow(table.Row{
			r.Rank,
			r.Driver,
			FormatPosition(r.QualifyingPosition),
			FormatPosition(r.SprintPosition),
			FormatScore(r.Score),
		})
	}
	t.Render()
}

// ScoreHeader names the score column: the predicted session, or points for a replay.
func ScoreHeader(run *models.PredictionRun) string {
	if run.IsReplay() {
		return "Points"
	}
	return run.Session.Label() + " Score"
}

// FormatPosition renders a 1-based position as "P3", or N/A when unknown.
func FormatPosition(pos int) string {
	if pos <= 0 {
		return notAvailable
	}
	return fmt.Sprintf("P%d", pos)
}

// FormatScore renders a score with four decimals.
func FormatScore(score float64) string {
	return decimal.NewFromFloat(score).StringFixed(4)
}
