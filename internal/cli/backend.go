package cli

import (
	"context"
	"fmt"

	"futur-genie-quiz/internal/app"
	"futur-genie-quiz/internal/config"
	"futur-genie-quiz/internal/domain"
	"futur-genie-quiz/internal/infra/memory"
	"futur-genie-quiz/internal/infra/postgres"
	"futur-genie-quiz/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"
)

type quizSaver interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

type assigner interface {
	Assign(ctx context.Context, quizID string, respondentIDs ...string) error
}

// backend bundles the collaborators of the configured storage.
type backend struct {
	loader memory.QuizLoader
	sink   app.SubmissionSink
	lister app.SubmissionLister
	policy app.AccessPolicy
	saver  quizSaver
	assign assigner
	close  func()
}

func openBackend(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*backend, error) {
	b := &backend{close: func() {}}

	switch cfg.Storage {
	case "postgres":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		sink := postgres.NewSubmissionSink(pool)
		policy := postgres.NewAssignmentPolicy(pool)
		loader := postgres.NewQuizLoader(pool)
		b.loader, b.saver = loader, loader
		b.sink, b.lister = sink, sink
		b.policy, b.assign = policy, policy
		b.close = pool.Close
	case "sqlite":
		store, err := sqlite.NewStore(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLite.Path, err)
		}
		b.loader, b.saver = store, store
		b.sink, b.lister = store, store
		b.policy, b.assign = store, store
		b.close = func() { _ = store.Close() }
	default:
		loader, err := fixtureLoader(cfg)
		if err != nil {
			return nil, err
		}
		store := memory.NewSubmissionStore()
		b.loader = loader
		b.sink, b.lister = store, store
		b.policy = memory.NewStaticPolicy(cfg.Access.Assignments)
		if !cfg.Access.Open && len(cfg.Access.Assignments) == 0 {
			log.Warn("access is closed and no assignments are configured; no quiz can be started")
		}
	}

	if cfg.Access.Open {
		b.policy = memory.OpenPolicy{}
	}
	return b, nil
}

func fixtureLoader(cfg config.Config) (*memory.StaticQuizLoader, error) {
	if cfg.Quiz.Fixtures == "" {
		return memory.NewStaticQuizLoader(sampleQuizzes()), nil
	}
	loader, err := memory.LoadQuizFile(cfg.Quiz.Fixtures)
	if err != nil {
		return nil, fmt.Errorf("load quiz fixtures: %w", err)
	}
	return loader, nil
}

// sampleQuizzes is served when no fixture file is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Calcul mental",
			Level: "CE1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "Combien font 2 + 2 ?",
					Choices: []domain.Choice{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4"},
						{ID: "o3", Text: "5"},
					},
					AnswerKeys: []string{"o2"},
				},
				{
					ID:     "q2",
					Prompt: "Quels nombres sont pairs ?",
					Choices: []domain.Choice{
						{ID: "o1", Text: "2"},
						{ID: "o2", Text: "7"},
						{ID: "o3", Text: "10"},
					},
					AnswerKeys:  []string{"o1", "o3"},
					Explanation: "Un nombre pair se divise par 2.",
				},
			},
		},
	}
}
