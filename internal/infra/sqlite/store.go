package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"futur-genie-quiz/internal/domain"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Store keeps quizzes, submissions and assignments in a single SQLite file.
// Used for local runs and small deployments without Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			respondent_id TEXT NOT NULL,
			answers_json TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			completed_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quiz_assignments (
			quiz_id TEXT NOT NULL,
			respondent_id TEXT NOT NULL,
			PRIMARY KEY (quiz_id, respondent_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_quiz_completed ON submissions(quiz_id, completed_at_unix);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// classify marks lock contention as retryable.
func classify(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return domain.NewTransientError(err)
	}
	return err
}
