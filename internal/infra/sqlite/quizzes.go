package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"futur-genie-quiz/internal/domain"
)

func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM quizzes WHERE id = ?`, quizID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", classify(err))
	}
	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	if quiz.ID == "" {
		return errors.New("quiz id is required")
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO quizzes (id, data, updated_at_unix) VALUES (?, ?, ?)`,
		quiz.ID, string(data), time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", quiz.ID, classify(err))
	}
	return nil
}

// CanTake allows respondents listed in quiz_assignments, or everyone when
// the quiz is assigned to "*".
func (s *Store) CanTake(ctx context.Context, respondentID, quizID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM quiz_assignments WHERE quiz_id = ? AND respondent_id IN (?, '*')`,
		quizID, respondentID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup assignment: %w", classify(err))
	}
	return n > 0, nil
}

func (s *Store) Assign(ctx context.Context, quizID string, respondentIDs ...string) error {
	for _, respondentID := range respondentIDs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO quiz_assignments (quiz_id, respondent_id) VALUES (?, ?)`,
			quizID, respondentID); err != nil {
			return fmt.Errorf("assign %s to %s: %w", quizID, respondentID, classify(err))
		}
	}
	return nil
}
