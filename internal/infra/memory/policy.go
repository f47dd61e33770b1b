package memory

import "context"

// OpenPolicy lets every respondent take every quiz.
type OpenPolicy struct{}

func (OpenPolicy) CanTake(context.Context, string, string) (bool, error) {
	return true, nil
}

// StaticPolicy allows respondents to take the quizzes assigned to them.
type StaticPolicy struct {
	assignments map[string]map[string]struct{}
}

// NewStaticPolicy takes a map of quiz id to respondent ids.
func NewStaticPolicy(assignments map[string][]string) *StaticPolicy {
	p := &StaticPolicy{assignments: make(map[string]map[string]struct{}, len(assignments))}
	for quizID, respondents := range assignments {
		set := make(map[string]struct{}, len(respondents))
		for _, respondentID := range respondents {
			set[respondentID] = struct{}{}
		}
		p.assignments[quizID] = set
	}
	return p
}

func (p *StaticPolicy) CanTake(_ context.Context, respondentID, quizID string) (bool, error) {
	_, ok := p.assignments[quizID][respondentID]
	return ok, nil
}
