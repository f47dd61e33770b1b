package memory

import (
	"context"
	"sort"
	"sync"

	"futur-genie-quiz/internal/domain"
)

// SubmissionStore keeps submissions in process. A repeated submission ID is ignored.
type SubmissionStore struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{submissions: make(map[string]domain.Submission)}
}

func (s *SubmissionStore) Submit(_ context.Context, submission domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[submission.ID]; ok {
		return nil
	}
	s.submissions[submission.ID] = submission
	return nil
}

// ListSubmissions returns the quiz's submissions oldest first.
func (s *SubmissionStore) ListSubmissions(_ context.Context, quizID string) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for _, sub := range s.submissions {
		if sub.QuizID == quizID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	return out, nil
}

func (s *SubmissionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.submissions)
}
