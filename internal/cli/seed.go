package cli

import (
	"context"
	"fmt"

	"futur-genie-quiz/internal/config"
	"futur-genie-quiz/internal/infra/memory"
	"futur-genie-quiz/internal/logging"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads quiz fixtures into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load quizzes from a YAML fixture file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "fixture file (defaults to quiz.fixtures)")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	if file == "" {
		file = cfg.Quiz.Fixtures
	}
	if file == "" {
		return fmt.Errorf("no fixture file given")
	}
	fixtures, err := memory.LoadQuizFile(file)
	if err != nil {
		return err
	}

	if cfg.Storage == "postgres" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}
	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()
	if backend.saver == nil {
		return fmt.Errorf("storage %q cannot be seeded", cfg.Storage)
	}

	for _, quiz := range fixtures.Quizzes() {
		if err := backend.saver.SaveQuiz(ctx, quiz); err != nil {
			return err
		}
		log.WithField("quiz_id", quiz.ID).WithField("questions", len(quiz.Questions)).Info("quiz seeded")
	}
	return nil
}
