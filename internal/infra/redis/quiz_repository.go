package redis

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizwizz-play/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (REST backend, Postgres, ...).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches whole quiz documents in Redis and falls back to a loader on a
// miss. Documents live at quiz:{quizID}:doc; play needs every option and explanation,
// so nothing is projected away.
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
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
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("load quiz %s: %w", quizID, err)
		}
		// best-effort: a failed write only costs a reload
		_ = r.store(ctx, quiz, r.ttlWithJitter())
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// TemporaryTTL bounds how long a temporary quiz outlives the sessions playing it.
const TemporaryTTL = 6 * time.Hour

// RegisterTemporary stores quiz under its own id for TemporaryTTL, so a retry
// quiz is visible to every instance sharing the Redis.
func (r *QuizRepository) RegisterTemporary(ctx context.Context, quiz domain.Quiz) error {
	return r.store(ctx, quiz, TemporaryTTL)
}

// ForgetTemporary drops the cached document of quizID.
func (r *QuizRepository) ForgetTemporary(ctx context.Context, quizID string) error {
	if err := r.client.Del(ctx, r.docKey(quizID)).Err(); err != nil {
		return fmt.Errorf("forget quiz %s: %w", quizID, err)
	}
	return nil
}

func (r *QuizRepository) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, r.docKey(quizID)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) store(ctx context.Context, quiz domain.Quiz, ttl time.Duration) error {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("encode quiz %s: %w", quiz.ID, err)
	}
	if err := r.client.Set(ctx, r.docKey(quiz.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache quiz %s: %w", quiz.ID, err)
	}
	return nil
}

func (r *QuizRepository) docKey(quizID string) string {
	return "quiz:" + quizID + ":doc"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
