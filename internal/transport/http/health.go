package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LiveCounter reports how many quiz sessions are in progress across instances.
type LiveCounter interface {
	CountLive(ctx context.Context) (int, error)
}

type healthPayload struct {
	Status       string `json:"status"`
	LiveSessions *int   `json:"liveSessions,omitempty"`
}

// HealthHandler answers /healthz. Without a counter it only reports status.
// A failing counter degrades the answer but keeps the status code at 200.
func HealthHandler(counter LiveCounter, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := healthPayload{Status: "ok"}
		if counter != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			n, err := counter.CountLive(ctx)
			cancel()
			if err != nil {
				log.WithError(err).Warn("count live sessions")
				payload.Status = "degraded"
			} else {
				payload.LiveSessions = &n
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}
}
