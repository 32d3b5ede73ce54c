package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizCache caches quizzes with TTL to avoid repeated store hits. Concurrent
// misses for the same quiz collapse into a single load.
type QuizCache struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(loader QuizLoader, ttl time.Duration) *QuizCache {
	return &QuizCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedQuiz),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.quiz, nil
		}
		c.mu.RUnlock()

		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		c.mu.Lock()
		c.cache[quizID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
