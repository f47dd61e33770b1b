package memory

import (
	"testing"

	"futur-genie-quiz/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	store.Save(app.NewSession("s1", "student-1"))
	session, ok := store.Get("s1")
	if !ok {
		t.Fatalf("expected session present")
	}
	if session.RespondentID() != "student-1" {
		t.Fatalf("unexpected respondent %q", session.RespondentID())
	}
	if got := len(store.List()); got != 1 {
		t.Fatalf("expected 1 session listed, got %d", got)
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}
