package app

import (
	"context"
	"log"
	"sync"
	"time"

	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/prefs"
)

// ResultHistory appends finished results to durable storage.
type ResultHistory interface {
	SaveResult(ctx context.Context, userID string, result domain.Result) error
}

// HistoryReader lists a user's past results, newest first.
type HistoryReader interface {
	History(ctx context.Context, userID string, limit int) ([]domain.ResultRecord, error)
}

// ResultRecorder is the results collaborator: it stores the score in the user's score
// book and, when configured, in the result history. The session is already over when
// it runs, so failures are only logged.
//
// One score book is kept per user, so sessions of the same user finishing together
// write through the same book.
type ResultRecorder struct {
	store   prefs.Store
	history ResultHistory
	timeout time.Duration

	mu    sync.Mutex
	books map[string]*prefs.ScoreBook
}

// NewResultRecorder builds a recorder. history may be nil.
func NewResultRecorder(store prefs.Store, history ResultHistory, timeout time.Duration) *ResultRecorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ResultRecorder{store: store, history: history, timeout: timeout, books: make(map[string]*prefs.ScoreBook)}
}

func (r *ResultRecorder) HandleResult(userID string, result domain.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if r.store != nil {
		book, err := r.scoreBook(ctx, userID)
		if err != nil {
			log.Printf("open score book for %s: %v", userID, err)
		} else if err := book.Record(ctx, result.QuizID, result.Score); err != nil {
			log.Printf("record score %s/%s: %v", userID, result.QuizID, err)
		}
	}
	if r.history != nil {
		if err := r.history.SaveResult(ctx, userID, result); err != nil {
			log.Printf("save result %s/%s: %v", userID, result.QuizID, err)
		}
	}
}

func (r *ResultRecorder) scoreBook(ctx context.Context, userID string) (*prefs.ScoreBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if book, ok := r.books[userID]; ok {
		return book, nil
	}
	book, err := prefs.OpenScoreBook(ctx, r.store, userID)
	if err != nil {
		return nil, err
	}
	r.books[userID] = book
	return book, nil
}
