package prefs_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/infra/memory"
	"quizwizz-play/internal/prefs"
)

func TestScoreBookNormalizesLegacyValues(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	_ = store.Set(ctx, prefs.ScoresKey, []byte(`{"old":80,"new":{"value":55,"takenAt":1700000000000},"junk":"x"}`))

	book, err := prefs.OpenScoreBook(ctx, store, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s, ok := book.Get("old"); !ok || s.Value != 80 {
		t.Fatalf("legacy score not normalized: %+v", s)
	}
	if s, ok := book.Get("new"); !ok || s.Value != 55 || s.TakenAt != 1700000000000 {
		t.Fatalf("current score not kept: %+v", s)
	}
	if _, ok := book.Get("junk"); ok {
		t.Fatalf("junk entry should be dropped")
	}
}

func TestScoreBookWritesThrough(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	updates, cancel, _ := store.Subscribe(ctx, prefs.Scoped(prefs.ScoresKey, "u1"))
	defer cancel()

	book, err := prefs.OpenScoreBook(ctx, store, "u1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := book.Record(ctx, "quiz-1", 90); err != nil {
		t.Fatalf("record: %v", err)
	}
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatalf("expected write-through notification")
	}

	reopened, _ := prefs.OpenScoreBook(ctx, store, "u1")
	if s, ok := reopened.Get("quiz-1"); !ok || s.Value != 90 || s.TakenAt == 0 {
		t.Fatalf("score not persisted: %+v", s)
	}
	if other, _ := prefs.OpenScoreBook(ctx, store, "u2"); len(other.All()) != 0 {
		t.Fatalf("scores must be scoped per user")
	}
}

func TestConcurrentRecordsKeepEveryScore(t *testing.T) {
	ctx := context.Background()
	stores := map[string]prefs.Store{
		"updater": memory.NewKVStore(),
		"plain":   plainStore{memory.NewKVStore()},
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			// two books opened before either write: both start from an empty map
			first, _ := prefs.OpenScoreBook(ctx, store, "u1")
			second, _ := prefs.OpenScoreBook(ctx, store, "u1")
			if name == "plain" {
				second = first
			}

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				book := first
				if i%2 == 1 {
					book = second
				}
				wg.Add(1)
				go func(book *prefs.ScoreBook, quizID string) {
					defer wg.Done()
					if err := book.Record(ctx, quizID, 50); err != nil {
						t.Errorf("record %s: %v", quizID, err)
					}
				}(book, fmt.Sprintf("quiz-%d", i))
			}
			wg.Wait()

			reopened, _ := prefs.OpenScoreBook(ctx, store, "u1")
			if got := len(reopened.All()); got != 20 {
				t.Fatalf("expected 20 stored scores, got %d: %v", got, reopened.All())
			}
		})
	}
}

func TestScoreBookWatchSeesOtherWriters(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store := memory.NewKVStore()

	watcher, _ := prefs.OpenScoreBook(ctx, store, "u1")
	writer, _ := prefs.OpenScoreBook(ctx, store, "u1")

	seen := make(chan map[string]prefs.Score, 16)
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx, func(m map[string]prefs.Score) {
		select {
		case seen <- m:
		default:
		}
	}) }()

	// the watch subscribes asynchronously, so keep writing until it reports
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := writer.Record(ctx, "quiz-9", 70); err != nil {
			t.Fatalf("record: %v", err)
		}
		select {
		case m := <-seen:
			if m["quiz-9"].Value != 70 {
				t.Fatalf("unexpected update %v", m)
			}
			if s, ok := watcher.Get("quiz-9"); !ok || s.Value != 70 {
				t.Fatalf("watching book not refreshed: %+v", s)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("watch: %v", err)
			}
			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatalf("watching book never saw the other writer")
		}
	}
}

func TestThemeWatchFollowsToggle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store := memory.NewKVStore()

	watcher, _ := prefs.OpenTheme(ctx, store, "")
	seen := make(chan string, 16)
	go func() { _ = watcher.Watch(ctx, func(v string) {
		select {
		case seen <- v:
		default:
		}
	}) }()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := store.Set(ctx, prefs.ThemeKey, []byte(prefs.ThemeLight)); err != nil {
			t.Fatalf("set: %v", err)
		}
		select {
		case v := <-seen:
			if v != prefs.ThemeLight || watcher.Current() != prefs.ThemeLight {
				t.Fatalf("expected light, got %s / %s", v, watcher.Current())
			}
			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatalf("theme watch never fired")
		}
	}
}

// plainStore hides the memory store's Update so the book takes its fallback path.
type plainStore struct {
	kv *memory.KVStore
}

func (s plainStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.kv.Get(ctx, key)
}

func (s plainStore) Set(ctx context.Context, key string, value []byte) error {
	return s.kv.Set(ctx, key, value)
}

func (s plainStore) Subscribe(ctx context.Context, key string) (<-chan []byte, func(), error) {
	return s.kv.Subscribe(ctx, key)
}

func TestCorruptStoreStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	_ = store.Set(ctx, prefs.ScoresKey, []byte(`{not json`))
	_ = store.Set(ctx, prefs.ReactionsKey, []byte(`[1,2]`))

	book, err := prefs.OpenScoreBook(ctx, store, "")
	if err != nil || len(book.All()) != 0 {
		t.Fatalf("expected empty book, got %v, %v", book, err)
	}
	reactions, err := prefs.OpenReactions(ctx, store, &reactionAPIStub{}, "")
	if err != nil {
		t.Fatalf("open reactions: %v", err)
	}
	if _, ok := reactions.Get("any"); ok {
		t.Fatalf("expected empty reactions")
	}
}

func TestThemeToggle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()

	theme, err := prefs.OpenTheme(ctx, store, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if theme.Current() != prefs.ThemeDark {
		t.Fatalf("expected dark default, got %s", theme.Current())
	}
	if next, err := theme.Toggle(ctx); err != nil || next != prefs.ThemeLight {
		t.Fatalf("toggle = %s, %v", next, err)
	}
	reopened, _ := prefs.OpenTheme(ctx, store, "")
	if reopened.Current() != prefs.ThemeLight {
		t.Fatalf("theme not persisted")
	}
	if next, _ := reopened.Toggle(ctx); next != prefs.ThemeDark {
		t.Fatalf("expected toggle back to dark, got %s", next)
	}
}

func TestReactionsLegacyAndRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	_ = store.Set(ctx, prefs.ReactionsKey, []byte(`{"a":"like","b":{"value":"dislike","reactedAt":5},"c":"meh","d":{"userReaction":"like","likes":3,"dislikes":1,"reactedAt":9}}`))

	api := &reactionAPIStub{counts: domain.ReactionCounts{Likes: 4, Dislikes: 1}}
	reactions, err := prefs.OpenReactions(ctx, store, api, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if r, ok := reactions.Get("a"); !ok || r.UserReaction != prefs.ReactionLike || r.ReactedAt == 0 {
		t.Fatalf("bare legacy value not upgraded: %+v", r)
	}
	if r, ok := reactions.Get("b"); !ok || r.UserReaction != prefs.ReactionDislike || r.ReactedAt != 5 {
		t.Fatalf("legacy object not upgraded: %+v", r)
	}
	if _, ok := reactions.Get("c"); ok {
		t.Fatalf("unknown value should be dropped")
	}
	if r, _ := reactions.Get("d"); r.Likes != 3 {
		t.Fatalf("current entry not kept: %+v", r)
	}

	r, err := reactions.Record(ctx, "d", "", prefs.ReactionLike)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if api.endpoint != prefs.ReactionLike || api.previous != prefs.ReactionLike || api.current != "" {
		t.Fatalf("undo should call the previous endpoint, got %+v", api)
	}
	if r.UserReaction != "" || r.Likes != 4 {
		t.Fatalf("unexpected cached reaction %+v", r)
	}

	if _, err := reactions.Record(ctx, "d", "", ""); !errors.Is(err, domain.ErrInvalidReaction) {
		t.Fatalf("expected invalid reaction, got %v", err)
	}

	api.err = errors.New("offline")
	if _, err := reactions.Record(ctx, "a", prefs.ReactionDislike, prefs.ReactionLike); err == nil {
		t.Fatalf("expected api error")
	}
	if r, _ := reactions.Get("a"); r.UserReaction != prefs.ReactionLike {
		t.Fatalf("failed call must not change the cache: %+v", r)
	}
}

type reactionAPIStub struct {
	counts   domain.ReactionCounts
	err      error
	endpoint string
	previous string
	current  string
}

func (s *reactionAPIStub) React(_ context.Context, _ string, endpoint, previous, current string) (domain.ReactionCounts, error) {
	s.endpoint, s.previous, s.current = endpoint, previous, current
	if s.err != nil {
		return domain.ReactionCounts{}, s.err
	}
	return s.counts, nil
}
