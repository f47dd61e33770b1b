package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"futur-genie-quiz/internal/app"
	"futur-genie-quiz/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type WSHandler struct {
	service  *app.QuizService
	log      logrus.FieldLogger
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		service:  service,
		log:      log,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string   `json:"questionId" validate:"required"`
	ChoiceIDs  []string `json:"choiceIds" validate:"required,min=1,dive,required"`
}

type gotoPayload struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type startedPayload struct {
	State domain.SessionState `json:"state"`
	Quiz  domain.PublicQuiz   `json:"quiz"`
}

type completedPayload struct {
	Submission domain.Submission    `json:"submission"`
	State      *domain.SessionState `json:"state,omitempty"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets. Each connection drives one
// quiz session; closing the connection abandons a session that was not completed.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state, quiz, err := h.service.Start(ctx, quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
		return
	}
	sessionID := state.SessionID
	log := h.log.WithFields(logrus.Fields{"session_id": sessionID, "respondent_id": userID})

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	var inflight sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				// keep draining so producers never block on a dead connection
				for range send {
				}
				return
			}
		}
	}()

	fail := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: toErrorPayload(err)}
	}

	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{State: state, Quiz: quiz}}

	exited := false
	for !exited {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := h.decode(inbound.Payload, &payload); err != nil {
				fail(err)
				continue
			}
			result, err := h.service.Answer(ctx, sessionID, userID, payload.QuestionID, payload.ChoiceIDs)
			if err != nil {
				fail(err)
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: result}
		case "advance":
			st, err := h.service.Advance(ctx, sessionID, userID)
			if err != nil {
				fail(err)
				continue
			}
			send <- outboundMessage[any]{Type: "state", Payload: st}
		case "goto":
			var payload gotoPayload
			if err := h.decode(inbound.Payload, &payload); err != nil {
				fail(err)
				continue
			}
			st, err := h.service.GoTo(ctx, sessionID, userID, *payload.Index)
			if err != nil {
				fail(err)
				continue
			}
			send <- outboundMessage[any]{Type: "state", Payload: st}
		case "finish":
			st, err := h.service.Finish(ctx, sessionID, userID)
			if err != nil {
				fail(err)
				continue
			}
			send <- outboundMessage[any]{Type: "state", Payload: st}
		case "state":
			st, err := h.service.State(ctx, sessionID, userID)
			if err != nil {
				fail(err)
				continue
			}
			send <- outboundMessage[any]{Type: "state", Payload: st}
		case "score":
			score, err := h.service.Score(ctx, sessionID, userID)
			if err != nil {
				fail(err)
				continue
			}
			send <- outboundMessage[any]{Type: "score", Payload: score}
		case "complete":
			// Submission may retry for a while; keep reading so the respondent can still exit.
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				submission, err := h.service.Complete(ctx, sessionID, userID)
				if errors.Is(err, domain.ErrSessionAborted) {
					return
				}
				if err != nil {
					fail(err)
					return
				}
				payload := completedPayload{Submission: submission}
				if st, err := h.service.State(ctx, sessionID, userID); err == nil {
					payload.State = &st
				} else {
					log.WithError(err).Debug("state after completion unavailable")
				}
				send <- outboundMessage[any]{Type: "completed", Payload: payload}
			}()
		case "exit":
			if err := h.service.Exit(ctx, sessionID, userID); err != nil {
				fail(err)
				continue
			}
			send <- outboundMessage[any]{Type: "aborted", Payload: map[string]string{"sessionId": sessionID}}
			exited = true
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "unsupported", Message: "unsupported message type"}}
		}
	}

	if !exited {
		h.abandon(ctx, sessionID, userID, log)
	}
	cancel()
	inflight.Wait()
	close(send)
	<-writerDone
}

// abandon aborts a session whose connection went away. Completed sessions are
// left for the janitor.
func (h *WSHandler) abandon(ctx context.Context, sessionID, userID string, log logrus.FieldLogger) {
	st, err := h.service.State(ctx, sessionID, userID)
	if err != nil || st.Status.Terminal() {
		return
	}
	if err := h.service.Exit(ctx, sessionID, userID); err != nil {
		log.WithError(err).Debug("abandon session")
		return
	}
	log.Info("connection closed, quiz session abandoned")
}

var errInvalidPayload = errors.New("invalid payload")

func (h *WSHandler) decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errInvalidPayload
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errInvalidPayload
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &payloadError{field: verrs[0].Field(), tag: verrs[0].Tag()}
		}
		return errInvalidPayload
	}
	return nil
}

type payloadError struct {
	field string
	tag   string
}

func (e *payloadError) Error() string {
	return "invalid payload: " + e.field + " failed " + e.tag
}

func (e *payloadError) Unwrap() error { return errInvalidPayload }

var errorCodes = []struct {
	err  error
	code string
}{
	{errInvalidPayload, "invalid_payload"},
	{domain.ErrInvalidQuiz, "invalid_quiz"},
	{domain.ErrPermissionDenied, "permission_denied"},
	{domain.ErrQuizNotFound, "quiz_not_found"},
	{domain.ErrAlreadyAnswered, "already_answered"},
	{domain.ErrOutOfRange, "out_of_range"},
	{domain.ErrNotVisited, "not_visited"},
	{domain.ErrNotCurrentQuestion, "not_current_question"},
	{domain.ErrEmptyAnswer, "empty_answer"},
	{domain.ErrChoiceNotFound, "choice_not_found"},
	{domain.ErrBusy, "busy"},
	{domain.ErrInvalidTransition, "invalid_transition"},
	{domain.ErrSessionNotFound, "session_not_found"},
	{domain.ErrRespondentMismatch, "respondent_mismatch"},
}

func toErrorPayload(err error) errorPayload {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return errorPayload{Code: c.code, Message: err.Error()}
		}
	}
	if domain.IsTransient(err) {
		return errorPayload{Code: "unavailable", Message: "service temporarily unavailable, try again"}
	}
	return errorPayload{Code: "internal", Message: "internal error"}
}
