package app_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"futur-genie-quiz/internal/app"
	"futur-genie-quiz/internal/domain"
	"futur-genie-quiz/internal/infra/memory"
	"github.com/sirupsen/logrus"
)

func TestServiceAttemptFlow(t *testing.T) {
	ctx := context.Background()
	service, store, sink := newTestService(memory.OpenPolicy{})

	state, quiz, err := service.Start(ctx, "arith", "student-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state.Status != domain.StatusInProgress || state.Total != 3 || len(quiz.Questions) != 3 {
		t.Fatalf("unexpected start state %+v", state)
	}
	if _, ok := store.Get(state.SessionID); !ok {
		t.Fatalf("expected session to be stored")
	}

	for _, answer := range []struct {
		questionID string
		choices    []string
	}{{"q1", []string{"4"}}, {"q2", []string{"6"}}, {"q3", []string{"8"}}} {
		if _, err := service.Answer(ctx, state.SessionID, "student-1", answer.questionID, answer.choices); err != nil {
			t.Fatalf("answer %s: %v", answer.questionID, err)
		}
	}

	score, err := service.Score(ctx, state.SessionID, "student-1")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != (domain.Score{Score: 2, Total: 3}) {
		t.Fatalf("unexpected score %+v", score)
	}

	sub, err := service.Complete(ctx, state.SessionID, "student-1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	stored, _ := sink.ListSubmissions(ctx, "arith")
	if len(stored) != 1 || stored[0].ID != sub.ID || stored[0].RespondentID != "student-1" {
		t.Fatalf("unexpected stored submissions %+v", stored)
	}

	review, err := service.State(ctx, state.SessionID, "student-1")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if review.Status != domain.StatusCompleted || review.Submission == nil {
		t.Fatalf("expected completed session kept for review, got %+v", review)
	}
}

func TestServiceStartFailuresLeaveNoSession(t *testing.T) {
	ctx := context.Background()

	service, store, _ := newTestService(memory.NewStaticPolicy(map[string][]string{"arith": {"student-1"}}))
	if _, _, err := service.Start(ctx, "arith", "student-2"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if _, _, err := service.Start(ctx, "missing", "student-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := service.Start(ctx, "empty", "student-1"); !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected invalid quiz, got %v", err)
	}
	if n := len(store.List()); n != 0 {
		t.Fatalf("expected no sessions after failed starts, got %d", n)
	}
}

func TestServiceRejectsOtherRespondent(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(memory.OpenPolicy{})

	state, _, err := service.Start(ctx, "arith", "student-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Answer(ctx, state.SessionID, "student-2", "q1", []string{"4"}); !errors.Is(err, domain.ErrRespondentMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if _, err := service.State(ctx, "unknown", "student-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestServiceExitDiscardsSession(t *testing.T) {
	ctx := context.Background()
	service, store, sink := newTestService(memory.OpenPolicy{})

	state, _, _ := service.Start(ctx, "arith", "student-1")
	_, _ = service.Answer(ctx, state.SessionID, "student-1", "q1", []string{"4"})
	if err := service.Exit(ctx, state.SessionID, "student-1"); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if _, ok := store.Get(state.SessionID); ok {
		t.Fatalf("expected session removed after exit")
	}
	if sink.Len() != 0 {
		t.Fatalf("exit must not create a submission")
	}
}

func TestEvictIdle(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := memory.NewSessionStore()
	service := app.NewQuizService(store, quizRepo(), memory.NewSubmissionStore(), memory.OpenPolicy{},
		app.WithClock(clock.Now), app.WithLogger(quietLogger()))

	idle, _, _ := service.Start(ctx, "arith", "student-1")
	clock.Advance(20 * time.Minute)
	active, _, _ := service.Start(ctx, "arith", "student-2")

	if n := service.EvictIdle(15 * time.Minute); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, ok := store.Get(idle.SessionID); ok {
		t.Fatalf("idle session must be evicted")
	}
	if _, ok := store.Get(active.SessionID); !ok {
		t.Fatalf("active session must be kept")
	}
}

func TestRunJanitorStopsWithContext(t *testing.T) {
	service, _, _ := newTestService(memory.OpenPolicy{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		service.RunJanitor(ctx, time.Millisecond, time.Minute)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("janitor did not stop")
	}
}

func TestRunJanitorReturnsOnNonPositiveInterval(t *testing.T) {
	service, _, _ := newTestService(memory.OpenPolicy{})
	done := make(chan struct{})
	go func() {
		service.RunJanitor(context.Background(), 0, time.Minute)
		service.RunJanitor(context.Background(), -time.Second, time.Minute)
		service.RunJanitor(context.Background(), time.Second, 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("janitor must return when misconfigured")
	}
}

func TestSummarize(t *testing.T) {
	stats := app.Summarize("arith", []domain.Submission{
		{RespondentID: "u1", Score: 3, Total: 3, DurationSeconds: 60},
		{RespondentID: "u1", Score: 2, Total: 3, DurationSeconds: 120},
		{RespondentID: "u2", Score: 0, Total: 3, DurationSeconds: 30},
	})
	if stats.Attempts != 3 || stats.Respondents != 2 || stats.PerfectCount != 1 {
		t.Fatalf("unexpected counts %+v", stats)
	}
	if stats.BestPercent != 100 || stats.WorstPercent != 0 {
		t.Fatalf("unexpected extremes %+v", stats)
	}
	if stats.AverageDuration != 70 {
		t.Fatalf("expected average duration 70, got %v", stats.AverageDuration)
	}
	if empty := app.Summarize("none", nil); empty.Attempts != 0 || empty.WorstPercent != 0 {
		t.Fatalf("unexpected empty stats %+v", empty)
	}
}

func newTestService(policy app.AccessPolicy) (*app.QuizService, *memory.SessionStore, *memory.SubmissionStore) {
	store := memory.NewSessionStore()
	sink := memory.NewSubmissionStore()
	service := app.NewQuizService(store, quizRepo(), sink, policy, app.WithLogger(quietLogger()))
	return service, store, sink
}

func quizRepo() *memory.QuizRepository {
	return memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"arith": arithmeticQuiz(),
		"empty": {ID: "empty"},
	}), 5*time.Minute)
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
