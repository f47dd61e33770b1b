package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTransientUnwrapsChains(t *testing.T) {
	err := fmt.Errorf("submit: %w", NewTransientError(errors.New("connection reset")))
	if !IsTransient(err) {
		t.Fatalf("expected wrapped transient error to be detected")
	}
	if IsTransient(errors.New("constraint violation")) {
		t.Fatalf("plain error must not be transient")
	}
	if NewTransientError(nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}

func TestIsLocal(t *testing.T) {
	if !IsLocal(fmt.Errorf("answer q1: %w", ErrAlreadyAnswered)) {
		t.Fatalf("expected already answered to be local")
	}
	if IsLocal(ErrQuizNotFound) {
		t.Fatalf("provider errors cross the engine boundary")
	}
	if IsLocal(NewTransientError(errors.New("timeout"))) {
		t.Fatalf("sink errors cross the engine boundary")
	}
}

func TestPublicQuizHidesAnswerKeys(t *testing.T) {
	quiz := Quiz{
		ID: "quiz-1",
		Questions: []Question{
			{ID: "q1", Prompt: "2+2", Choices: []Choice{{ID: "4"}, {ID: "5"}}, AnswerKeys: []string{"4"}},
			{ID: "q2", Prompt: "even", Choices: []Choice{{ID: "2"}, {ID: "3"}, {ID: "4"}}, AnswerKeys: []string{"2", "4"}},
		},
	}
	public := quiz.Public()
	if len(public.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(public.Questions))
	}
	if public.Questions[0].Multiple || !public.Questions[1].Multiple {
		t.Fatalf("unexpected multiple flags: %+v", public.Questions)
	}
}

func TestScorePercent(t *testing.T) {
	if got := (Score{Score: 2, Total: 3}).Percent(); got != 66 {
		t.Fatalf("expected 66, got %d", got)
	}
	if got := (Score{}).Percent(); got != 0 {
		t.Fatalf("expected 0 for empty quiz, got %d", got)
	}
}
