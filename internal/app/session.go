package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"futur-genie-quiz/internal/domain"
	"github.com/google/uuid"
)

// Session drives one respondent through one attempt of a quiz.
// Sessions share no state with each other; the mutex only serializes the
// respondent's own actions against the boundary calls.
type Session struct {
	id           string
	respondentID string
	now          func() time.Time

	mu           sync.Mutex
	status       domain.Status
	busy         bool
	quiz         domain.Quiz
	index        int
	furthest     int
	answers      map[string][]string
	correctness  map[string]bool
	startedAt    time.Time
	lastActivity time.Time
	// submission is built once by Complete and reused on retry.
	submission *domain.Submission
}

func NewSession(id, respondentID string) *Session {
	return newSessionWithClock(id, respondentID, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, respondentID string, now func() time.Time) *Session {
	return newSessionWithClock(id, respondentID, now)
}

func newSessionWithClock(id, respondentID string, now func() time.Time) *Session {
	return &Session{
		id:           id,
		respondentID: respondentID,
		now:          now,
		status:       domain.StatusNotStarted,
		lastActivity: now(),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) RespondentID() string { return s.respondentID }

// Begin checks permission, fetches the quiz and starts the attempt.
// The session is busy while the quiz is being fetched.
func (s *Session) Begin(ctx context.Context, quizzes QuizRepository, quizID string, allowed bool) error {
	s.mu.Lock()
	if err := s.checkStartableLocked(allowed); err != nil {
		s.mu.Unlock()
		return err
	}
	s.busy = true
	s.mu.Unlock()

	quiz, err := quizzes.GetQuiz(ctx, quizID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if s.status == domain.StatusAborted {
		return domain.ErrSessionAborted
	}
	if err != nil {
		return err
	}
	return s.startLocked(quiz)
}

// Start begins the attempt with an already loaded quiz.
func (s *Session) Start(quiz domain.Quiz, allowed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStartableLocked(allowed); err != nil {
		return err
	}
	return s.startLocked(quiz)
}

func (s *Session) checkStartableLocked(allowed bool) error {
	if s.busy {
		return domain.ErrBusy
	}
	if s.status != domain.StatusNotStarted {
		return domain.ErrInvalidTransition
	}
	if !allowed {
		return domain.ErrPermissionDenied
	}
	return nil
}

func (s *Session) startLocked(quiz domain.Quiz) error {
	if len(quiz.Questions) == 0 {
		return domain.ErrInvalidQuiz
	}
	seen := make(map[string]struct{}, len(quiz.Questions))
	for _, question := range quiz.Questions {
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: duplicate question %q", domain.ErrInvalidQuiz, question.ID)
		}
		seen[question.ID] = struct{}{}
	}
	now := s.now()
	s.quiz = quiz
	s.status = domain.StatusInProgress
	s.index = 0
	s.furthest = 0
	s.answers = make(map[string][]string, len(quiz.Questions))
	s.correctness = make(map[string]bool, len(quiz.Questions))
	s.startedAt = now
	s.lastActivity = now
	return nil
}

// RecordAnswer stores the answer for the current question and scores it.
// A question can be answered once per attempt.
func (s *Session) RecordAnswer(questionID string, choiceIDs []string) (domain.AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return domain.AnswerResult{}, domain.ErrBusy
	}
	if s.status != domain.StatusInProgress {
		return domain.AnswerResult{}, domain.ErrInvalidTransition
	}
	if _, answered := s.answers[questionID]; answered {
		return domain.AnswerResult{}, domain.ErrAlreadyAnswered
	}
	question := s.quiz.Questions[s.index]
	if question.ID != questionID {
		return domain.AnswerResult{}, domain.ErrNotCurrentQuestion
	}

	selected := uniqueSorted(choiceIDs)
	if len(selected) == 0 {
		return domain.AnswerResult{}, domain.ErrEmptyAnswer
	}
	for _, choiceID := range selected {
		if !question.HasChoice(choiceID) {
			return domain.AnswerResult{}, domain.ErrChoiceNotFound
		}
	}

	correct := MatchesAnswerKeys(selected, question.AnswerKeys)
	s.answers[questionID] = selected
	s.correctness[questionID] = correct
	s.moveForwardLocked()

	return domain.AnswerResult{
		QuestionID:  questionID,
		Correct:     correct,
		AnswerKeys:  append([]string(nil), question.AnswerKeys...),
		Explanation: question.Explanation,
		Index:       s.index,
		Status:      s.status,
	}, nil
}

// Advance skips to the next question without answering.
func (s *Session) Advance() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return s.index, domain.ErrBusy
	}
	if s.status != domain.StatusInProgress {
		return s.index, domain.ErrInvalidTransition
	}
	s.moveForwardLocked()
	return s.index, nil
}

func (s *Session) moveForwardLocked() {
	s.lastActivity = s.now()
	if s.index+1 >= len(s.quiz.Questions) {
		s.status = domain.StatusAwaitingConfirmation
		return
	}
	s.index++
	if s.index > s.furthest {
		s.furthest = s.index
	}
}

// GoTo moves to a question that was already reached.
func (s *Session) GoTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return domain.ErrBusy
	}
	if s.status != domain.StatusInProgress && s.status != domain.StatusAwaitingConfirmation {
		return domain.ErrInvalidTransition
	}
	if index < 0 || index >= len(s.quiz.Questions) {
		return domain.ErrOutOfRange
	}
	if index > s.furthest {
		return domain.ErrNotVisited
	}
	s.index = index
	s.status = domain.StatusInProgress
	s.lastActivity = s.now()
	return nil
}

// Finish ends the attempt early; remaining questions count as incorrect.
func (s *Session) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return domain.ErrBusy
	}
	if s.status != domain.StatusInProgress {
		return domain.ErrInvalidTransition
	}
	s.status = domain.StatusAwaitingConfirmation
	s.lastActivity = s.now()
	return nil
}

// ComputeScore counts correct answers. Unanswered questions count as incorrect.
func (s *Session) ComputeScore() domain.Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreLocked()
}

func (s *Session) scoreLocked() domain.Score {
	score := 0
	for _, correct := range s.correctness {
		if correct {
			score++
		}
	}
	return domain.Score{Score: score, Total: len(s.quiz.Questions)}
}

// Complete builds the submission and hands it to the sink. After a failure
// the same submission is sent again on the next call.
func (s *Session) Complete(ctx context.Context, respondentID string, sink SubmissionSink, retry RetryPolicy) (domain.Submission, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return domain.Submission{}, domain.ErrBusy
	}
	if respondentID != s.respondentID {
		s.mu.Unlock()
		return domain.Submission{}, domain.ErrRespondentMismatch
	}
	switch s.status {
	case domain.StatusAwaitingConfirmation:
		submission := s.buildSubmissionLocked()
		s.submission = &submission
	case domain.StatusFailed:
	default:
		s.mu.Unlock()
		return domain.Submission{}, domain.ErrInvalidTransition
	}
	s.status = domain.StatusSubmitting
	s.busy = true
	submission := *s.submission
	s.mu.Unlock()

	err := submitWithRetry(ctx, sink, submission, retry)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.lastActivity = s.now()
	if s.status == domain.StatusAborted {
		return submission, domain.ErrSessionAborted
	}
	if err != nil {
		s.status = domain.StatusFailed
		return submission, err
	}
	s.status = domain.StatusCompleted
	return submission, nil
}

func (s *Session) buildSubmissionLocked() domain.Submission {
	now := s.now()
	answers := make(map[string][]string, len(s.answers))
	for questionID, choices := range s.answers {
		answers[questionID] = append([]string(nil), choices...)
	}
	score := s.scoreLocked()
	return domain.Submission{
		ID:              uuid.NewString(),
		QuizID:          s.quiz.ID,
		RespondentID:    s.respondentID,
		Answers:         answers,
		Score:           score.Score,
		Total:           score.Total,
		DurationSeconds: int(now.Sub(s.startedAt) / time.Second),
		CompletedAt:     now.UTC(),
	}
}

// Exit abandons the attempt. It never waits for an in-flight call.
func (s *Session) Exit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		if s.status == domain.StatusAborted {
			return nil
		}
		return domain.ErrInvalidTransition
	}
	s.status = domain.StatusAborted
	s.busy = false
	s.answers = nil
	s.correctness = nil
	s.submission = nil
	s.lastActivity = s.now()
	return nil
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Elapsed returns whole seconds since start. Once a submission exists the
// duration is frozen at the submission's value.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Session) elapsedLocked() int {
	if s.submission != nil {
		return s.submission.DurationSeconds
	}
	if s.startedAt.IsZero() {
		return 0
	}
	return int(s.now().Sub(s.startedAt) / time.Second)
}

// Quiz returns the respondent-facing view of the loaded quiz.
func (s *Session) Quiz() domain.PublicQuiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz.Public()
}

// State returns a snapshot safe to hand to callers.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(map[string][]string, len(s.answers))
	for questionID, choices := range s.answers {
		answers[questionID] = append([]string(nil), choices...)
	}
	correctness := make(map[string]bool, len(s.correctness))
	for questionID, correct := range s.correctness {
		correctness[questionID] = correct
	}
	state := domain.SessionState{
		SessionID:      s.id,
		QuizID:         s.quiz.ID,
		RespondentID:   s.respondentID,
		Status:         s.status,
		Busy:           s.busy,
		Index:          s.index,
		Furthest:       s.furthest,
		Total:          len(s.quiz.Questions),
		Answers:        answers,
		Correctness:    correctness,
		ElapsedSeconds: s.elapsedLocked(),
		Score:          s.scoreLocked(),
	}
	if s.submission != nil {
		submission := *s.submission
		state.Submission = &submission
	}
	return state
}

// MatchesAnswerKeys reports whether selected is exactly the answer key set.
// Subsets and supersets are wholly incorrect.
func MatchesAnswerKeys(selected, answerKeys []string) bool {
	got := uniqueSorted(selected)
	want := uniqueSorted(answerKeys)
	if len(got) == 0 || len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
