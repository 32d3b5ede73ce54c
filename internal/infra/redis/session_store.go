package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions themselves stay in-process; the state machine and broadcast
//     fan-out are per-coordinator by design.
//   - Redis marks session liveness, so dashboards and sibling services can
//     see which quizzes are running.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[int64]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[int64]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(quiz domain.Quiz) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[quiz.ID]; ok {
		return session
	}
	session := app.NewSession(quiz)
	s.sessions[quiz.ID] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(quiz.ID), "1", s.ttl).Err()
	return session
}

func (s *SessionStore) Get(quizID int64) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[quizID]
	return session, ok
}

func (s *SessionStore) Delete(quizID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, quizID)
	_ = s.client.Del(context.Background(), s.key(quizID)).Err()
}

func (s *SessionStore) key(quizID int64) string {
	return fmt.Sprintf("quiz:session:%d", quizID)
}
