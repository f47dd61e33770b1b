package cli

import (
	"context"
	"fmt"

	"futur-genie-quiz/internal/config"
	"futur-genie-quiz/internal/logging"
	"github.com/spf13/cobra"
)

// NewAssignCmd grants respondents access to a quiz. Use "*" to open it to everyone.
func NewAssignCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "assign QUIZ_ID RESPONDENT_ID...",
		Short: "Assign a quiz to respondents",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(cmd.Context(), *configPath, args[0], args[1:])
		},
	}
}

func runAssign(ctx context.Context, configPath, quizID string, respondentIDs []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
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
	if backend.assign == nil {
		return fmt.Errorf("storage %q does not keep assignments", cfg.Storage)
	}
	if err := backend.assign.Assign(ctx, quizID, respondentIDs...); err != nil {
		return err
	}
	log.WithField("quiz_id", quizID).WithField("respondents", len(respondentIDs)).Info("quiz assigned")
	return nil
}
