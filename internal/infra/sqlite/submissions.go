package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"futur-genie-quiz/internal/domain"
)

// Submit stores a submission once; INSERT OR IGNORE makes resends no-ops.
func (s *Store) Submit(ctx context.Context, sub domain.Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO submissions
		 (id, quiz_id, respondent_id, answers_json, score, total, duration_seconds, completed_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.QuizID, sub.RespondentID, string(answers), sub.Score, sub.Total, sub.DurationSeconds, sub.CompletedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert submission %s: %w", sub.ID, classify(err))
	}
	return nil
}

func (s *Store) ListSubmissions(ctx context.Context, quizID string) ([]domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quiz_id, respondent_id, answers_json, score, total, duration_seconds, completed_at_unix
		 FROM submissions WHERE quiz_id = ? ORDER BY completed_at_unix`,
		quizID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var (
			sub         domain.Submission
			answers     string
			completedAt int64
		)
		if err := rows.Scan(&sub.ID, &sub.QuizID, &sub.RespondentID, &answers, &sub.Score, &sub.Total, &sub.DurationSeconds, &completedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers of %s: %w", sub.ID, err)
		}
		sub.CompletedAt = time.Unix(0, completedAt).UTC()
		out = append(out, sub)
	}
	return out, rows.Err()
}
