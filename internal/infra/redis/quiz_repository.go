package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"classdeck-quiz-service/internal/domain"
)

// QuizLoader fetches authored quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches the full authored quiz document in Redis and falls
// back to a loader on cache miss.
// Stored as: SET quiz:{quizID}:doc {json} with TTL.
//
// The whole document is cached (not just answer keys) because session
// creation needs prompts, time limits, and option lists to build the
// student-safe projection.
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	// rndMu guards rnd: singleflight serializes per key only, so fills for
	// different quizzes can run concurrently.
	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	key := r.docKey(quizID)

	if raw, err := r.client.Get(ctx, key).Result(); err == nil && raw != "" {
		var quiz domain.Quiz
		if err := json.Unmarshal([]byte(raw), &quiz); err == nil {
			return quiz, nil
		}
		// Corrupt cache entry: fall through and refill.
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Result(); err == nil && raw != "" {
			var quiz domain.Quiz
			if err := json.Unmarshal([]byte(raw), &quiz); err == nil {
				return quiz, nil
			}
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		data, err := json.Marshal(quiz)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("marshal quiz: %w", err)
		}
		_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) docKey(quizID string) string {
	return "quiz:" + quizID + ":doc"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	jitter := r.rnd.Int63n(jitterMax + 1)
	r.rndMu.Unlock()
	return r.ttl + time.Duration(jitter)
}
