package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Everyone is the respondent id that opens a quiz to all respondents.
const Everyone = "*"

// AssignmentPolicy allows a respondent to take the quizzes assigned to them
// (or assigned to Everyone) in quiz_assignments.
type AssignmentPolicy struct {
	pool *pgxpool.Pool
}

func NewAssignmentPolicy(pool *pgxpool.Pool) *AssignmentPolicy {
	return &AssignmentPolicy{pool: pool}
}

func (p *AssignmentPolicy) CanTake(ctx context.Context, respondentID, quizID string) (bool, error) {
	var allowed bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM quiz_assignments
			WHERE quiz_id = $1 AND respondent_id IN ($2, $3)
		)`,
		quizID, respondentID, Everyone).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("lookup assignment: %w", classify(err))
	}
	return allowed, nil
}

// Assign grants respondents access to a quiz. Existing assignments are kept.
func (p *AssignmentPolicy) Assign(ctx context.Context, quizID string, respondentIDs ...string) error {
	for _, respondentID := range respondentIDs {
		_, err := p.pool.Exec(ctx,
			`INSERT INTO quiz_assignments (quiz_id, respondent_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			quizID, respondentID)
		if err != nil {
			return fmt.Errorf("assign %s to %s: %w", quizID, respondentID, classify(err))
		}
	}
	return nil
}
