package memory

import (
	"context"
	"strconv"
	"sync"

	"live-quiz-service/internal/domain"
)

// UserStore is the in-memory account store used when postgres is not
// configured.
type UserStore struct {
	mu      sync.RWMutex
	nextID  int64
	byEmail map[string]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{byEmail: make(map[string]domain.User)}
}

func (s *UserStore) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return domain.User{}, domain.ErrEmailTaken
	}
	s.nextID++
	user.ID = strconv.FormatInt(s.nextID, 10)
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *UserStore) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}
