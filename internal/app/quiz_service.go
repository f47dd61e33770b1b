package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"futur-genie-quiz/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
	List() []*Session
}

// QuizRepository is the quiz content provider. Questions come back in display order.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SubmissionSink persists completed attempts. Implementations must treat a
// repeated submission ID as a no-op and wrap retryable failures in
// domain.TransientError.
type SubmissionSink interface {
	Submit(ctx context.Context, submission domain.Submission) error
}

// SubmissionLister reads persisted submissions back for statistics.
type SubmissionLister interface {
	ListSubmissions(ctx context.Context, quizID string) ([]domain.Submission, error)
}

// AccessPolicy decides whether a respondent may take a quiz.
type AccessPolicy interface {
	CanTake(ctx context.Context, respondentID, quizID string) (bool, error)
}

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	sink     SubmissionSink
	policy   AccessPolicy
	retry    RetryPolicy
	log      logrus.FieldLogger
	now      func() time.Time
	newID    func() string
}

type Option func(*QuizService)

func WithRetryPolicy(retry RetryPolicy) Option {
	return func(s *QuizService) { s.retry = retry }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *QuizService) { s.log = log }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, sink SubmissionSink, policy AccessPolicy, opts ...Option) *QuizService {
	s := &QuizService{
		sessions: store,
		quizzes:  quizzes,
		sink:     sink,
		policy:   policy,
		retry:    NoRetry,
		log:      logrus.StandardLogger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a new session for the respondent and loads the quiz into it.
// Nothing is kept when the quiz cannot be started.
func (s *QuizService) Start(ctx context.Context, quizID, respondentID string) (domain.SessionState, domain.PublicQuiz, error) {
	allowed, err := s.policy.CanTake(ctx, respondentID, quizID)
	if err != nil {
		return domain.SessionState{}, domain.PublicQuiz{}, fmt.Errorf("check access: %w", err)
	}

	session := newSessionWithClock(s.newID(), respondentID, s.now)
	s.sessions.Save(session)
	if err := session.Begin(ctx, s.quizzes, quizID, allowed); err != nil {
		s.sessions.Delete(session.ID())
		s.log.WithFields(logrus.Fields{
			"quiz_id":       quizID,
			"respondent_id": respondentID,
		}).WithError(err).Info("quiz session not started")
		return domain.SessionState{}, domain.PublicQuiz{}, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id":    session.ID(),
		"quiz_id":       quizID,
		"respondent_id": respondentID,
	}).Info("quiz session started")
	return session.State(), session.Quiz(), nil
}

// Answer records the respondent's choices for the current question.
func (s *QuizService) Answer(_ context.Context, sessionID, respondentID, questionID string, choiceIDs []string) (domain.AnswerResult, error) {
	session, err := s.session(sessionID, respondentID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	result, err := session.RecordAnswer(questionID, choiceIDs)
	if errors.Is(err, domain.ErrAlreadyAnswered) {
		s.log.WithFields(logrus.Fields{
			"session_id":  sessionID,
			"question_id": questionID,
		}).Debug("duplicate answer ignored")
	}
	return result, err
}

func (s *QuizService) Advance(_ context.Context, sessionID, respondentID string) (domain.SessionState, error) {
	session, err := s.session(sessionID, respondentID)
	if err != nil {
		return domain.SessionState{}, err
	}
	if _, err := session.Advance(); err != nil {
		return session.State(), err
	}
	return session.State(), nil
}

func (s *QuizService) GoTo(_ context.Context, sessionID, respondentID string, index int) (domain.SessionState, error) {
	session, err := s.session(sessionID, respondentID)
	if err != nil {
		return domain.SessionState{}, err
	}
	if err := session.GoTo(index); err != nil {
		return session.State(), err
	}
	return session.State(), nil
}

func (s *QuizService) Finish(_ context.Context, sessionID, respondentID string) (domain.SessionState, error) {
	session, err := s.session(sessionID, respondentID)
	if err != nil {
		return domain.SessionState{}, err
	}
	if err := session.Finish(); err != nil {
		return session.State(), err
	}
	return session.State(), nil
}

func (s *QuizService) Score(_ context.Context, sessionID, respondentID string) (domain.Score, error) {
	session, err := s.session(sessionID, respondentID)
	if err != nil {
		return domain.Score{}, err
	}
	return session.ComputeScore(), nil
}

func (s *QuizService) State(_ context.Context, sessionID, respondentID string) (domain.SessionState, error) {
	session, err := s.session(sessionID, respondentID)
	if err != nil {
		return domain.SessionState{}, err
	}
	return session.State(), nil
}

// Complete submits the attempt. On failure the session keeps the submission
// so a later call resends it unchanged.
func (s *QuizService) Complete(ctx context.Context, sessionID, respondentID string) (domain.Submission, error) {
	session, err := s.session(sessionID, respondentID)
	if err != nil {
		return domain.Submission{}, err
	}
	submission, err := session.Complete(ctx, respondentID, s.sink, s.retry)
	fields := logrus.Fields{
		"session_id":    sessionID,
		"quiz_id":       submission.QuizID,
		"submission_id": submission.ID,
	}
	switch {
	case err == nil:
		s.log.WithFields(fields).WithField("score", submission.Score).Info("submission stored")
	case errors.Is(err, domain.ErrSessionAborted):
		s.log.WithFields(fields).Info("submission finished after exit, result discarded")
	case !domain.IsLocal(err):
		s.log.WithFields(fields).WithError(err).Warn("submission failed")
	}
	return submission, err
}

// Exit abandons the session and forgets it.
func (s *QuizService) Exit(_ context.Context, sessionID, respondentID string) error {
	session, err := s.session(sessionID, respondentID)
	if err != nil {
		return err
	}
	if err := session.Exit(); err != nil {
		return err
	}
	s.sessions.Delete(sessionID)
	s.log.WithField("session_id", sessionID).Info("quiz session aborted")
	return nil
}

// EvictIdle aborts and removes sessions with no activity for longer than idle.
// Sessions with an outstanding call are left alone.
func (s *QuizService) EvictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	evicted := 0
	for _, session := range s.sessions.List() {
		if session.Busy() || !session.LastActivity().Before(cutoff) {
			continue
		}
		_ = session.Exit()
		s.sessions.Delete(session.ID())
		evicted++
	}
	return evicted
}

// RunJanitor evicts idle sessions every interval until ctx is done.
// A non-positive interval or idle timeout disables eviction.
func (s *QuizService) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		s.log.WithFields(logrus.Fields{
			"interval": interval,
			"idle":     idle,
		}).Warn("idle session janitor disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(idle); n > 0 {
				s.log.WithField("evicted", n).Info("idle quiz sessions evicted")
			}
		}
	}
}

func (s *QuizService) session(sessionID, respondentID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.RespondentID() != respondentID {
		return nil, domain.ErrRespondentMismatch
	}
	return session, nil
}
