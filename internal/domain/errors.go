package domain

import "errors"

var (
	// ErrInvalidQuiz is returned when a quiz has no questions.
	ErrInvalidQuiz = errors.New("quiz has no questions")
	// ErrPermissionDenied is returned when the respondent may not take the quiz.
	ErrPermissionDenied = errors.New("respondent is not allowed to take this quiz")
	// ErrAlreadyAnswered is returned when a question is answered twice in one attempt.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrOutOfRange indicates navigation outside the question list.
	ErrOutOfRange = errors.New("question index out of range")
	// ErrNotVisited indicates navigation to a question that was never reached.
	ErrNotVisited = errors.New("question not reached yet")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrNotCurrentQuestion is returned when answering a question other than the current one.
	ErrNotCurrentQuestion = errors.New("question is not the current question")
	ErrEmptyAnswer        = errors.New("at least one choice must be selected")
	ErrChoiceNotFound     = errors.New("choice not found")
	// ErrBusy is returned while a quiz fetch or a submission is outstanding.
	ErrBusy = errors.New("session is busy")
	// ErrInvalidTransition is returned when an operation is not allowed in the current status.
	ErrInvalidTransition = errors.New("operation not allowed in current session status")
	// ErrSessionAborted is returned when the respondent exited while a call was in flight.
	ErrSessionAborted     = errors.New("session aborted")
	ErrRespondentMismatch = errors.New("session belongs to another respondent")
)

// TransientError marks a retryable failure of an external collaborator.
type TransientError struct {
	Err error
}

func NewTransientError(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err, or any error it wraps, is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsLocal reports whether err is a validation error resolved inside the engine.
// Local errors never reach a persistence layer.
func IsLocal(err error) bool {
	for _, target := range []error{
		ErrInvalidQuiz,
		ErrPermissionDenied,
		ErrAlreadyAnswered,
		ErrOutOfRange,
		ErrNotVisited,
		ErrNotCurrentQuestion,
		ErrEmptyAnswer,
		ErrChoiceNotFound,
		ErrBusy,
		ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
