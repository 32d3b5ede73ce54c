package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	_ = store.GetOrCreate(domain.Quiz{ID: 1, Title: "Quiz"})
	if !mr.Exists("quiz:session:1") {
		t.Fatalf("expected redis key to be set")
	}
	if _, ok := store.Get(1); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete(1)
	if mr.Exists("quiz:session:1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get(1); ok {
		t.Fatalf("expected session removed")
	}
}
