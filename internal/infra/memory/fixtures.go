package memory

import (
	"context"
	"fmt"
	"os"

	"futur-genie-quiz/internal/domain"
	"gopkg.in/yaml.v3"
)

// StaticQuizLoader is a loader backed by an in-memory map (fixtures, tests, demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// Quizzes returns the loaded quizzes in no particular order.
func (l *StaticQuizLoader) Quizzes() []domain.Quiz {
	out := make([]domain.Quiz, 0, len(l.quizzes))
	for _, quiz := range l.quizzes {
		out = append(out, quiz)
	}
	return out
}

type fixtureFile struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// LoadQuizFile reads a YAML fixture file of the form
//
//	quizzes:
//	  - id: fractions-cm1
//	    title: Les fractions
//	    questions:
//	      - id: q1
//	        prompt: ...
//	        choices: [{id: a, text: ...}]
//	        answer_keys: [a]
func LoadQuizFile(path string) (*StaticQuizLoader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQuizFixtures(data)
}

func ParseQuizFixtures(data []byte) (*StaticQuizLoader, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse quiz fixtures: %w", err)
	}
	quizzes := make(map[string]domain.Quiz, len(file.Quizzes))
	for _, quiz := range file.Quizzes {
		if quiz.ID == "" {
			return nil, fmt.Errorf("parse quiz fixtures: quiz without id")
		}
		if _, dup := quizzes[quiz.ID]; dup {
			return nil, fmt.Errorf("parse quiz fixtures: duplicate quiz %q", quiz.ID)
		}
		quizzes[quiz.ID] = quiz
	}
	return NewStaticQuizLoader(quizzes), nil
}
