package prefs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Score is the best-known score for a quiz. TakenAt is in Unix milliseconds.
type Score struct {
	Value   int   `json:"value"`
	TakenAt int64 `json:"takenAt"`
}

// ScoreBook caches the last score per quiz and writes every change through to the
// store.
type ScoreBook struct {
	store Store
	key   string
	now   func() time.Time

	mu     sync.RWMutex
	scores map[string]Score
}

// OpenScoreBook loads the stored scores for scope. Unreadable data starts an empty
// book; only store failures are returned.
func OpenScoreBook(ctx context.Context, store Store, scope string) (*ScoreBook, error) {
	b := &ScoreBook{
		store:  store,
		key:    Scoped(ScoresKey, scope),
		now:    time.Now,
		scores: make(map[string]Score),
	}
	raw, ok, err := store.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	if ok {
		b.scores = parseScores(b.key, raw)
	}
	return b, nil
}

// parseScores accepts both {"quiz":{"value":80,"takenAt":...}} and the older
// {"quiz":80} layout.
func parseScores(key string, raw []byte) map[string]Score {
	out := make(map[string]Score)
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("prefs: discarding unreadable %s: %v", key, err)
		return out
	}
	for quizID, entry := range entries {
		var score Score
		if err := json.Unmarshal(entry, &score); err == nil {
			out[quizID] = score
			continue
		}
		var bare float64
		if err := json.Unmarshal(entry, &bare); err == nil {
			out[quizID] = Score{Value: int(bare)}
		}
	}
	return out
}

// Record stores score as the latest result of quizID. Stores that implement Updater
// merge it into what is stored right now, so concurrent writers of other quizzes are
// kept. Otherwise the book's lock orders writers sharing this book.
func (b *ScoreBook) Record(ctx context.Context, quizID string, score int) error {
	entry := Score{Value: score, TakenAt: b.now().UnixMilli()}

	if u, ok := b.store.(Updater); ok {
		var merged map[string]Score
		_, err := u.Update(ctx, b.key, func(current []byte, ok bool) ([]byte, error) {
			merged = make(map[string]Score)
			if ok {
				merged = parseScores(b.key, current)
			}
			merged[quizID] = entry
			return json.Marshal(merged)
		})
		if err != nil {
			return fmt.Errorf("save scores: %w", err)
		}
		b.mu.Lock()
		b.scores = merged
		b.mu.Unlock()
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.scores[quizID] = entry
	raw, err := json.Marshal(b.scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	if err := b.store.Set(ctx, b.key, raw); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}
	return nil
}

// Watch follows writes to the book's key, made through this process or another one
// sharing the store, until ctx ends. onChange, when set, gets a copy after every
// reload.
func (b *ScoreBook) Watch(ctx context.Context, onChange func(map[string]Score)) error {
	updates, cancel, err := b.store.Subscribe(ctx, b.key)
	if err != nil {
		return fmt.Errorf("watch scores: %w", err)
	}
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-updates:
			if !ok {
				return nil
			}
			scores := parseScores(b.key, raw)
			b.mu.Lock()
			b.scores = scores
			b.mu.Unlock()
			if onChange != nil {
				onChange(b.All())
			}
		}
	}
}

func (b *ScoreBook) Get(quizID string) (Score, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	score, ok := b.scores[quizID]
	return score, ok
}

// All returns a copy of every stored score.
func (b *ScoreBook) All() map[string]Score {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Score, len(b.scores))
	for k, v := range b.scores {
		out[k] = v
	}
	return out
}
