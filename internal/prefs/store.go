// Package prefs keeps the user's local preferences (scores, theme, reactions) behind a
// small key/value port so that callers never touch storage directly.
package prefs

import (
	"context"
	"sync"
)

const (
	ScoresKey    = "quizwizz:scores"
	ThemeKey     = "quizwizz:theme"
	ReactionsKey = "quizwizz:reactions"
)

// Store is the storage port: get/set raw values and watch a key for writes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Subscribe(ctx context.Context, key string) (<-chan []byte, func(), error)
}

// Updater is implemented by stores that can read, change and write one key without
// another writer slipping in between. fn gets the current value (ok is false when the
// key is missing) and returns the value to store.
type Updater interface {
	Update(ctx context.Context, key string, fn func(current []byte, ok bool) ([]byte, error)) ([]byte, error)
}

// Scoped returns key narrowed to one user; an empty scope keeps the shared key.
func Scoped(key, scope string) string {
	if scope == "" {
		return key
	}
	return key + ":" + scope
}

// Fanout distributes written values to per-key watchers. Stores without native
// notifications embed it.
type Fanout struct {
	mu       sync.Mutex
	watchers map[string]map[chan []byte]struct{}
}

// Subscribe registers a watcher for key. The watcher is dropped and its channel closed
// when cancel is called or ctx ends.
func (f *Fanout) Subscribe(ctx context.Context, key string) (<-chan []byte, func()) {
	ch := make(chan []byte, 8)

	f.mu.Lock()
	if f.watchers == nil {
		f.watchers = make(map[string]map[chan []byte]struct{})
	}
	if f.watchers[key] == nil {
		f.watchers[key] = make(map[chan []byte]struct{})
	}
	f.watchers[key][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.watchers[key]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.watchers, key)
			}
		}
		f.mu.Unlock()
	}
	stop := context.AfterFunc(ctx, cancel)
	return ch, func() {
		stop()
		cancel()
	}
}

// Publish hands value to every watcher of key, dropping the oldest queued value for
// slow watchers.
func (f *Fanout) Publish(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.watchers[key] {
		v := append([]byte(nil), value...)
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}
