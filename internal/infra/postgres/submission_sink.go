package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"futur-genie-quiz/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SubmissionSink stores completed attempts. Re-sending a submission with the
// same ID leaves the stored row untouched.
type SubmissionSink struct {
	pool *pgxpool.Pool
}

func NewSubmissionSink(pool *pgxpool.Pool) *SubmissionSink {
	return &SubmissionSink{pool: pool}
}

func (s *SubmissionSink) Submit(ctx context.Context, sub domain.Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (id, quiz_id, respondent_id, answers, score, total, duration_seconds, completed_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		sub.ID, sub.QuizID, sub.RespondentID, string(answers), sub.Score, sub.Total, sub.DurationSeconds, sub.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert submission %s: %w", sub.ID, classify(err))
	}
	return nil
}

func (s *SubmissionSink) ListSubmissions(ctx context.Context, quizID string) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, quiz_id, respondent_id, answers, score, total, duration_seconds, completed_at
		 FROM submissions WHERE quiz_id = $1 ORDER BY completed_at`,
		quizID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", classify(err))
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var (
			sub     domain.Submission
			answers []byte
		)
		if err := rows.Scan(&sub.ID, &sub.QuizID, &sub.RespondentID, &answers, &sub.Score, &sub.Total, &sub.DurationSeconds, &sub.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &sub.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers of %s: %w", sub.ID, err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
