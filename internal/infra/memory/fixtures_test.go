package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const fixtureYAML = `
quizzes:
  - id: fractions-cm1
    title: Les fractions
    level: CM1
    questions:
      - id: q1
        prompt: Combien font 1/2 + 1/4 ?
        choices:
          - {id: a, text: 3/4}
          - {id: b, text: 2/6}
        answer_keys: [a]
        explanation: 1/2 = 2/4
`

func TestLoadQuizFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizzes.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loader, err := LoadQuizFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	quiz, err := loader.LoadQuiz(context.Background(), "fractions-cm1")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if quiz.Level != "CM1" || len(quiz.Questions) != 1 {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	q := quiz.Questions[0]
	if len(q.AnswerKeys) != 1 || q.AnswerKeys[0] != "a" || q.Explanation == "" {
		t.Fatalf("unexpected question: %+v", q)
	}
}

func TestParseQuizFixturesRejectsDuplicates(t *testing.T) {
	data := []byte("quizzes:\n  - id: a\n  - id: a\n")
	if _, err := ParseQuizFixtures(data); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
