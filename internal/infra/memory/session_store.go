package memory

import (
	"sync"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// SessionStore is the in-memory implementation of app.SessionRepository.
// Sessions are exclusive in-process state; there is no cross-session
// coordination, so a plain map under one lock is enough.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
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
}
