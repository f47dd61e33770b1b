package redis

import (
	"context"
	"sync"
	"time"

	"futur-genie-quiz/internal/app"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SessionStore keeps sessions in process and publishes a liveness marker per
// session in Redis so operators and other instances can see who is mid-attempt.
// Marker: SET quiz:session:{sessionID} {respondentID} EX ttl.
// Session state itself never leaves the process.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		log:      log,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Save(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(session.ID()), session.RespondentID(), s.ttl).Err(); err != nil {
		s.log.WithError(err).WithField("session_id", session.ID()).Warn("session marker write failed")
	}
}

// Get returns a live session and refreshes its marker.
func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		s.touch(session)
	}
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) List() []*app.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

// CountLive counts session markers across all instances sharing the Redis.
func (s *SessionStore) CountLive(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "quiz:session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

// touch extends the marker, writing it again if it already expired.
func (s *SessionStore) touch(session *app.Session) {
	ctx := context.Background()
	refreshed, err := s.client.Expire(ctx, s.key(session.ID()), s.ttl).Result()
	if err != nil {
		s.log.WithError(err).WithField("session_id", session.ID()).Debug("session marker refresh failed")
		return
	}
	if !refreshed {
		_ = s.client.Set(ctx, s.key(session.ID()), session.RespondentID(), s.ttl).Err()
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
