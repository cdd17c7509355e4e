package prefs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"quizwizz-play/internal/domain"
)

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// ReactionAPI posts a reaction change to the backend and returns the new counts.
type ReactionAPI interface {
	React(ctx context.Context, quizID, endpoint, previous, current string) (domain.ReactionCounts, error)
}

// Reaction is the cached reaction state for one quiz. An empty UserReaction means the
// user has no reaction.
type Reaction struct {
	UserReaction string `json:"userReaction"`
	Likes        int    `json:"likes"`
	Dislikes     int    `json:"dislikes"`
	ReactedAt    int64  `json:"reactedAt"`
}

// Reactions caches the user's like/dislike per quiz.
type Reactions struct {
	store Store
	api   ReactionAPI
	key   string
	now   func() time.Time

	mu        sync.RWMutex
	reactions map[string]Reaction
}

func OpenReactions(ctx context.Context, store Store, api ReactionAPI, scope string) (*Reactions, error) {
	r := &Reactions{
		store:     store,
		api:       api,
		key:       Scoped(ReactionsKey, scope),
		now:       time.Now,
		reactions: make(map[string]Reaction),
	}
	raw, ok, err := store.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("load reactions: %w", err)
	}
	if ok {
		r.reactions = parseReactions(r.key, raw, r.now())
	}
	return r, nil
}

// parseReactions keeps current entries, upgrades {"value":"like"} objects and bare
// "like"/"dislike" strings, and drops everything else.
func parseReactions(key string, raw []byte, now time.Time) map[string]Reaction {
	out := make(map[string]Reaction)
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("prefs: discarding unreadable %s: %v", key, err)
		return out
	}
	for quizID, entry := range entries {
		var bare string
		if err := json.Unmarshal(entry, &bare); err == nil {
			if bare == ReactionLike || bare == ReactionDislike {
				out[quizID] = Reaction{UserReaction: bare, ReactedAt: now.UnixMilli()}
			}
			continue
		}
		var obj struct {
			Reaction
			Value *string `json:"value"`
		}
		if err := json.Unmarshal(entry, &obj); err != nil {
			continue
		}
		if obj.Value != nil && obj.UserReaction == "" {
			obj.UserReaction = *obj.Value
		}
		switch obj.UserReaction {
		case ReactionLike, ReactionDislike, "":
			out[quizID] = obj.Reaction
		}
	}
	return out
}

// Record sends the change from previous to current (either may be empty) and caches the
// counts the backend returns. Switching to no reaction undoes previous.
func (r *Reactions) Record(ctx context.Context, quizID, current, previous string) (Reaction, error) {
	endpoint := previous
	if current == ReactionLike || current == ReactionDislike {
		endpoint = current
	}
	if quizID == "" || (endpoint != ReactionLike && endpoint != ReactionDislike) {
		return Reaction{}, domain.ErrInvalidReaction
	}

	counts, err := r.api.React(ctx, quizID, endpoint, previous, current)
	if err != nil {
		return Reaction{}, fmt.Errorf("react to %s: %w", quizID, err)
	}

	reaction := Reaction{
		UserReaction: current,
		Likes:        counts.Likes,
		Dislikes:     counts.Dislikes,
		ReactedAt:    r.now().UnixMilli(),
	}
	r.mu.Lock()
	r.reactions[quizID] = reaction
	raw, err := json.Marshal(r.reactions)
	r.mu.Unlock()
	if err != nil {
		return reaction, fmt.Errorf("encode reactions: %w", err)
	}
	if err := r.store.Set(ctx, r.key, raw); err != nil {
		return reaction, fmt.Errorf("save reactions: %w", err)
	}
	return reaction, nil
}

func (r *Reactions) Get(quizID string) (Reaction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reaction, ok := r.reactions[quizID]
	return reaction, ok
}
