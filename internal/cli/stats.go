package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"futur-genie-quiz/internal/app"
	"futur-genie-quiz/internal/config"
	"futur-genie-quiz/internal/logging"
	"github.com/spf13/cobra"
)

// NewStatsCmd prints aggregate results of a quiz as JSON.
func NewStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats QUIZ_ID",
		Short: "Summarize stored submissions of a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), *configPath, args[0], cmd.OutOrStdout())
		},
	}
}

func runStats(ctx context.Context, configPath, quizID string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage == "memory" {
		return fmt.Errorf("memory storage keeps no submissions between runs")
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()

	submissions, err := backend.lister.ListSubmissions(ctx, quizID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(app.Summarize(quizID, submissions))
}
