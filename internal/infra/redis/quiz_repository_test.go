package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/gap"
	"quizwizz-play/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)

	first, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1:doc") {
		t.Fatalf("expected cached document")
	}
	if ttl := mr.TTL("quiz:quiz-1:doc"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	second, _ := repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	// the cached copy must still be playable as a gap question
	if !gap.IsGapQuestion(second.Questions[1]) || second.Questions[1].Explanation != first.Questions[1].Explanation {
		t.Fatalf("gap question lost in cache: %+v", second.Questions[1])
	}
}

func TestQuizRepositoryMissingQuiz(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuizRepository(newClient(mr), memory.NewStaticQuizLoader(nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "nope"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestRegisterTemporaryExpiresEventually(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(nil)}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)
	retry := sampleQuiz()
	retry.ID = "quiz-1-failed"
	if err := repo.RegisterTemporary(context.Background(), retry); err != nil {
		t.Fatalf("register: %v", err)
	}
	if ttl := mr.TTL("quiz:quiz-1-failed:doc"); ttl != TemporaryTTL {
		t.Fatalf("expected temporary ttl %s, got %s", TemporaryTTL, ttl)
	}
	if _, err := repo.GetQuiz(context.Background(), "quiz-1-failed"); err != nil || loader.calls != 0 {
		t.Fatalf("expected temporary quiz from redis, err=%v calls=%d", err, loader.calls)
	}
	if err := repo.ForgetTemporary(context.Background(), "quiz-1-failed"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if mr.Exists("quiz:quiz-1-failed:doc") {
		t.Fatalf("expected document removed")
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	enc := gap.Encode([]domain.GapGroup{{
		Options:     []domain.GapOption{{Label: "Paris", IsCorrect: true}, {Label: "Rome"}},
		Explanation: "Capital of France",
	}})
	return domain.Quiz{
		ID:   "quiz-1",
		Name: "Geography",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "What is 2 + 2?",
				Options: []domain.Option{
					{Text: "3", IsCorrect: false, Index: 0},
					{Text: "4", IsCorrect: true, Index: 1},
				},
			},
			{
				ID:          "q2",
				Text:        "_ is the capital of France.",
				Options:     enc.Options,
				Explanation: enc.Explanations,
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
