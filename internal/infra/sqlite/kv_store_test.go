package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quizwizz-play/internal/prefs"
)

func TestKVStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "prefs.db") + "?_pragma=busy_timeout(5000)"

	store, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	theme, err := prefs.OpenTheme(ctx, store, "")
	if err != nil {
		t.Fatalf("open theme: %v", err)
	}
	if _, err := theme.Toggle(ctx); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v2" {
		t.Fatalf("get = %q, %v, %v", got, ok, err)
	}
	if _, ok, _ := reopened.Get(ctx, "missing"); ok {
		t.Fatalf("expected miss")
	}
	theme, _ = prefs.OpenTheme(ctx, reopened, "")
	if theme.Current() != prefs.ThemeLight {
		t.Fatalf("expected persisted light theme, got %s", theme.Current())
	}
}

func TestKVStoreNotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, "file:"+filepath.Join(t.TempDir(), "n.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ch, cancel, _ := store.Subscribe(ctx, prefs.ThemeKey)
	defer cancel()
	if err := store.Set(ctx, prefs.ThemeKey, []byte("light")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v := <-ch; string(v) != "light" {
		t.Fatalf("unexpected notification %q", v)
	}
}

func TestKVStoreUpdateMergesScoreBooks(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, "file:"+filepath.Join(t.TempDir(), "u.db")+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	first, _ := prefs.OpenScoreBook(ctx, store, "")
	second, _ := prefs.OpenScoreBook(ctx, store, "")
	if err := first.Record(ctx, "quiz-a", 80); err != nil {
		t.Fatalf("record a: %v", err)
	}
	// second was opened before quiz-a existed
	if err := second.Record(ctx, "quiz-b", 50); err != nil {
		t.Fatalf("record b: %v", err)
	}

	reopened, _ := prefs.OpenScoreBook(ctx, store, "")
	if a, ok := reopened.Get("quiz-a"); !ok || a.Value != 80 {
		t.Fatalf("quiz-a lost: %v", reopened.All())
	}
	if b, ok := reopened.Get("quiz-b"); !ok || b.Value != 50 {
		t.Fatalf("quiz-b lost: %v", reopened.All())
	}
}

func TestKVStoreSubscriptionEndsWithContext(t *testing.T) {
	store, err := Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "c.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx, cancelCtx := context.WithCancel(context.Background())
	ch, cancel, _ := store.Subscribe(ctx, prefs.ThemeKey)
	defer cancel()
	cancelCtx()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed subscription")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscription outlived its context")
	}
}
