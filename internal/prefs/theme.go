package prefs

import (
	"context"
	"fmt"
	"sync"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme is the persisted light/dark switch. Anything but "light" reads as dark.
type Theme struct {
	store Store
	key   string

	mu    sync.Mutex
	value string
}

func OpenTheme(ctx context.Context, store Store, scope string) (*Theme, error) {
	t := &Theme{store: store, key: Scoped(ThemeKey, scope), value: ThemeDark}
	raw, ok, err := store.Get(ctx, t.key)
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}
	if ok {
		t.value = parseTheme(raw)
	}
	return t, nil
}

func parseTheme(raw []byte) string {
	if string(raw) == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

func (t *Theme) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Toggle flips the theme, saves it and returns the new value.
func (t *Theme) Toggle(ctx context.Context) (string, error) {
	t.mu.Lock()
	next := ThemeLight
	if t.value == ThemeLight {
		next = ThemeDark
	}
	t.value = next
	t.mu.Unlock()

	if err := t.store.Set(ctx, t.key, []byte(next)); err != nil {
		return next, fmt.Errorf("save theme: %w", err)
	}
	return next, nil
}

// Watch follows theme writes until ctx ends; onChange may be nil.
func (t *Theme) Watch(ctx context.Context, onChange func(string)) error {
	updates, cancel, err := t.store.Subscribe(ctx, t.key)
	if err != nil {
		return fmt.Errorf("watch theme: %w", err)
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
			value := parseTheme(raw)
			t.mu.Lock()
			t.value = value
			t.mu.Unlock()
			if onChange != nil {
				onChange(value)
			}
		}
	}
}
