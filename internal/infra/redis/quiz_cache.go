package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizCache caches whole quiz definitions in Redis (JSON blob per quiz,
// SET quiz:{quizID} with TTL) and falls back to the loader on a miss.
// Concurrent misses collapse into one load via singleflight.
type QuizCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizCache(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	key := c.key(quizID)

	if quiz, ok := c.fromCache(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if quiz, ok := c.fromCache(ctx, key); ok {
			return quiz, nil
		}

		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		if data, err := json.Marshal(quiz); err == nil {
			// best-effort; a failed cache write only costs a reload
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) fromCache(ctx context.Context, key string) (domain.Quiz, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (c *QuizCache) key(quizID int64) string {
	return fmt.Sprintf("quiz:%d", quizID)
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
