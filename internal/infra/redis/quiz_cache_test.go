package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

func TestQuizCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := memory.NewQuizStore()
	store.Put(sampleQuiz())
	loader := &countingLoader{QuizLoader: store}
	cache := NewQuizCache(client, loader, time.Minute)

	quiz, err := cache.GetQuiz(context.Background(), 1)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Title != "Node.js Basics" || len(quiz.Questions) != 1 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:1") {
		t.Fatalf("expected quiz cached in redis")
	}

	// Second call should hit the redis blob, loader not incremented.
	again, err := cache.GetQuiz(context.Background(), 1)
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if again.Questions[0].CorrectOptionIndex != 0 {
		t.Fatalf("cached quiz lost scoring data: %+v", again.Questions[0])
	}
}

func TestQuizCachePropagatesNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewQuizCache(client, memory.NewQuizStore(), time.Minute)

	if _, err := cache.GetQuiz(context.Background(), 42); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    1,
		Title: "Node.js Basics",
		Questions: []domain.Question{
			{ID: 1, Text: "What is Node.js?", Options: []string{"Runtime", "Framework", "Library"}, CorrectOptionIndex: 0},
		},
	}
}
