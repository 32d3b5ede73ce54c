package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// QuizStore persists quiz definitions as JSONB rows. The id column is
// authoritative; the blob carries title and questions.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	for i := range quiz.Questions {
		quiz.Questions[i].ID = int64(i + 1)
	}
	data, err := json.Marshal(quizDocument{Title: quiz.Title, Questions: quiz.Questions})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal quiz: %w", err)
	}
	err = s.pool.QueryRow(ctx, `INSERT INTO quizzes (data) VALUES ($1::jsonb) RETURNING id`, data).Scan(&quiz.ID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) AddQuestion(ctx context.Context, quizID int64, question domain.Question) (domain.Question, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Question{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1 FOR UPDATE`, quizID).Scan(&raw)
	if err == pgx.ErrNoRows {
		return domain.Question{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load quiz: %w", err)
	}

	var doc quizDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal quiz: %w", err)
	}

	var maxID int64
	for _, q := range doc.Questions {
		if q.ID > maxID {
			maxID = q.ID
		}
	}
	question.ID = maxID + 1
	doc.Questions = append(doc.Questions, question)

	data, err := json.Marshal(doc)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal quiz: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE quizzes SET data=$1::jsonb WHERE id=$2`, data, quizID); err != nil {
		return domain.Question{}, fmt.Errorf("update quiz: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Question{}, fmt.Errorf("commit: %w", err)
	}
	return question, nil
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return s.LoadQuiz(ctx, quizID)
}

// LoadQuiz implements the loader interface consumed by the quiz caches.
func (s *QuizStore) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if err == pgx.ErrNoRows {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var doc quizDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return domain.Quiz{ID: quizID, Title: doc.Title, Questions: doc.Questions}, nil
}

type quizDocument struct {
	Title     string            `json:"title"`
	Questions []domain.Question `json:"questions"`
}
