package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

// QuizStore keeps quiz definitions in memory. It backs the CRUD routes when
// postgres is not configured and doubles as the loader behind the caches.
type QuizStore struct {
	mu      sync.RWMutex
	nextID  int64
	quizzes map[int64]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[int64]domain.Quiz)}
}

// Put seeds a quiz with a fixed ID (demos and tests).
func (s *QuizStore) Put(quiz domain.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	if quiz.ID > s.nextID {
		s.nextID = quiz.ID
	}
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	quiz.ID = s.nextID
	for i := range quiz.Questions {
		quiz.Questions[i].ID = int64(i + 1)
	}
	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *QuizStore) AddQuestion(_ context.Context, quizID int64, question domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Question{}, domain.ErrQuizNotFound
	}
	question.ID = nextQuestionID(quiz.Questions)
	quiz.Questions = append(quiz.Questions, question)
	s.quizzes[quizID] = quiz
	return question, nil
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return s.LoadQuiz(ctx, quizID)
}

// LoadQuiz implements the loader interface consumed by the quiz caches.
func (s *QuizStore) LoadQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func nextQuestionID(questions []domain.Question) int64 {
	var max int64
	for _, q := range questions {
		if q.ID > max {
			max = q.ID
		}
	}
	return max + 1
}
