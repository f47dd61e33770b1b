package domain

import "time"

// Choice is one selectable answer of a question.
type Choice struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question models a multiple-choice question. A question may have several
// answer keys; a response is correct only when it selects exactly those keys.
type Question struct {
	ID          string   `json:"id" yaml:"id"`
	Prompt      string   `json:"prompt" yaml:"prompt"`
	Choices     []Choice `json:"choices" yaml:"choices"`
	AnswerKeys  []string `json:"answerKeys" yaml:"answer_keys"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation"`
}

// HasChoice reports whether choiceID is one of the question's choices.
func (q Question) HasChoice(choiceID string) bool {
	for _, c := range q.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

// Quiz is an ordered list of questions. Questions are already in display order.
type Quiz struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Level       string     `json:"level,omitempty" yaml:"level"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// PublicQuestion is what a respondent sees before answering.
type PublicQuestion struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Choices []Choice `json:"choices"`
	// Multiple tells the client to render checkboxes instead of radios.
	Multiple bool `json:"multiple"`
}

// PublicQuiz strips answer keys and explanations from a quiz.
type PublicQuiz struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Level       string           `json:"level,omitempty"`
	Questions   []PublicQuestion `json:"questions"`
}

func (q Quiz) Public() PublicQuiz {
	questions := make([]PublicQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		questions = append(questions, PublicQuestion{
			ID:       question.ID,
			Prompt:   question.Prompt,
			Choices:  question.Choices,
			Multiple: len(question.AnswerKeys) > 1,
		})
	}
	return PublicQuiz{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Level:       q.Level,
		Questions:   questions,
	}
}

// Status is a session's position in the attempt lifecycle.
type Status string

const (
	StatusNotStarted           Status = "not_started"
	StatusInProgress           Status = "in_progress"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusSubmitting           Status = "submitting"
	StatusCompleted            Status = "completed"
	StatusFailed               Status = "failed"
	StatusAborted              Status = "aborted"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

// Score is the number of correctly answered questions out of the total.
type Score struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// Percent returns the rounded-down percentage of correct answers.
func (s Score) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return s.Score * 100 / s.Total
}

// Submission is the immutable record of a completed attempt.
type Submission struct {
	ID              string              `json:"id"`
	QuizID          string              `json:"quizId"`
	RespondentID    string              `json:"respondentId"`
	Answers         map[string][]string `json:"answers"`
	Score           int                 `json:"score"`
	Total           int                 `json:"total"`
	DurationSeconds int                 `json:"durationSeconds"`
	CompletedAt     time.Time           `json:"completedAt"`
}

// AnswerResult summarizes the outcome of a recorded answer.
type AnswerResult struct {
	QuestionID  string   `json:"questionId"`
	Correct     bool     `json:"correct"`
	AnswerKeys  []string `json:"answerKeys"`
	Explanation string   `json:"explanation,omitempty"`
	// Index is the current question index after the answer was recorded.
	Index  int    `json:"index"`
	Status Status `json:"status"`
}

// SessionState is a read-only snapshot of a session.
type SessionState struct {
	SessionID      string              `json:"sessionId"`
	QuizID         string              `json:"quizId"`
	RespondentID   string              `json:"respondentId"`
	Status         Status              `json:"status"`
	Busy           bool                `json:"busy"`
	Index          int                 `json:"index"`
	Furthest       int                 `json:"furthest"`
	Total          int                 `json:"total"`
	Answers        map[string][]string `json:"answers"`
	Correctness    map[string]bool     `json:"correctness"`
	ElapsedSeconds int                 `json:"elapsedSeconds"`
	Score          Score               `json:"score"`
	Submission     *Submission         `json:"submission,omitempty"`
}

// QuizStats aggregates the submissions of one quiz.
type QuizStats struct {
	QuizID          string  `json:"quizId"`
	Attempts        int     `json:"attempts"`
	Respondents     int     `json:"respondents"`
	AverageScore    float64 `json:"averageScore"`
	AveragePercent  float64 `json:"averagePercent"`
	BestPercent     int     `json:"bestPercent"`
	WorstPercent    int     `json:"worstPercent"`
	PerfectCount    int     `json:"perfectCount"`
	AverageDuration float64 `json:"averageDurationSeconds"`
}
