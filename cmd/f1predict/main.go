// Command f1predict predicts Formula 1 session outcomes from practice pace,
// driver history and the weekend forecast.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/f1-predictor/internal/models"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type globalOptions struct {
	configFile string
	envFile    string
}

func newRootCmd(a *App) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "f1predict",
		Short:         "Predict Formula 1 qualifying, sprint and race outcomes",
		Long:          `Trains per-session ranking models and predicts the next session of a race weekend.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.Load(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to a dotenv file")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return models.ConfigurationErrorf("%v", err)
	})

	rootCmd.AddCommand(
		newTrainCmd(a),
		newPredictCmd(a),
		newHistoryCmd(a),
		newWatchCmd(a),
		newStatusCmd(a),
	)
	return rootCmd
}

// run executes one command line and releases everything it opened.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &App{}
	defer a.Close()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
