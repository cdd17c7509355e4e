package poll

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"

	"quizwizz-play/internal/domain"
)

// QuizLister is satisfied by the backend client.
type QuizLister interface {
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
}

// QuizList keeps the latest catalog and calls onChange only when its content
// differs from the previous load.
type QuizList struct {
	src      QuizLister
	onChange func([]domain.QuizSummary)

	mu          sync.Mutex
	quizzes     []domain.QuizSummary
	fingerprint uint64
	loaded      bool
}

func NewQuizList(src QuizLister, onChange func([]domain.QuizSummary)) *QuizList {
	return &QuizList{src: src, onChange: onChange}
}

func (l *QuizList) Task() Task {
	return Task{Name: "quizzes", Run: l.Refresh}
}

func (l *QuizList) Refresh(ctx context.Context) error {
	quizzes, err := l.src.ListQuizzes(ctx)
	if err != nil {
		return fmt.Errorf("list quizzes: %w", err)
	}
	raw, err := json.Marshal(quizzes)
	if err != nil {
		return fmt.Errorf("fingerprint quizzes: %w", err)
	}
	sum := xxh3.Hash(raw)

	l.mu.Lock()
	changed := !l.loaded || sum != l.fingerprint
	l.quizzes, l.fingerprint, l.loaded = quizzes, sum, true
	l.mu.Unlock()

	if changed && l.onChange != nil {
		l.onChange(quizzes)
	}
	return nil
}

// Quizzes returns the last loaded catalog.
func (l *QuizList) Quizzes() []domain.QuizSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.QuizSummary(nil), l.quizzes...)
}
