package poll

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"quizwizz-play/internal/domain"
)

// InboxSource is the slice of the backend client the inbox needs.
type InboxSource interface {
	Messages(ctx context.Context) ([]domain.Message, error)
	Conversation(ctx context.Context, userID int) ([]domain.Message, error)
	MarkRead(ctx context.Context, messageID int) error
	ReceivedShares(ctx context.Context) ([]domain.QuizShare, error)
}

// InboxState is what the badge counters show.
type InboxState struct {
	UnreadCount    int         `json:"unreadCount"`
	UnreadBySender map[int]int `json:"unreadBySender"`
	UnviewedShares int         `json:"unviewedShares"`
}

// Inbox tracks unread messages and unviewed quiz shares for one user.
type Inbox struct {
	src      InboxSource
	userID   int
	onChange func(InboxState)

	mu    sync.Mutex
	state InboxState
}

// NewInbox builds an inbox for userID. onChange may be nil.
func NewInbox(src InboxSource, userID int, onChange func(InboxState)) *Inbox {
	return &Inbox{
		src:      src,
		userID:   userID,
		onChange: onChange,
		state:    InboxState{UnreadBySender: map[int]int{}},
	}
}

// Task exposes Refresh to a Poller.
func (i *Inbox) Task() Task {
	return Task{Name: "inbox", Run: i.Refresh}
}

// Refresh reloads both counters. A failing half keeps its previous value.
func (i *Inbox) Refresh(ctx context.Context) error {
	var errs *multierror.Error
	if err := i.refreshMessages(ctx); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := i.refreshShares(ctx); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func (i *Inbox) refreshMessages(ctx context.Context) error {
	msgs, err := i.src.Messages(ctx)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	bySender := make(map[int]int)
	count := 0
	for _, msg := range msgs {
		if msg.Recipient.ID != i.userID || msg.IsRead {
			continue
		}
		count++
		bySender[msg.Sender.ID]++
	}
	i.update(func(s *InboxState) {
		s.UnreadCount = count
		s.UnreadBySender = bySender
	})
	return nil
}

func (i *Inbox) refreshShares(ctx context.Context) error {
	shares, err := i.src.ReceivedShares(ctx)
	if err != nil {
		return fmt.Errorf("load shares: %w", err)
	}
	unviewed := 0
	for _, share := range shares {
		if !share.IsViewed {
			unviewed++
		}
	}
	i.update(func(s *InboxState) { s.UnviewedShares = unviewed })
	return nil
}

// MarkConversationRead marks every unread message from senderID as read, then
// refreshes the message counters.
func (i *Inbox) MarkConversationRead(ctx context.Context, senderID int) error {
	msgs, err := i.src.Conversation(ctx, senderID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	for _, msg := range msgs {
		if msg.Recipient.ID != i.userID || msg.IsRead {
			continue
		}
		if err := i.src.MarkRead(ctx, msg.ID); err != nil {
			return fmt.Errorf("mark message %d: %w", msg.ID, err)
		}
	}
	return i.refreshMessages(ctx)
}

// State returns a copy of the current counters.
func (i *Inbox) State() InboxState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return copyState(i.state)
}

func (i *Inbox) update(fn func(*InboxState)) {
	i.mu.Lock()
	fn(&i.state)
	snapshot := copyState(i.state)
	i.mu.Unlock()

	if i.onChange != nil {
		i.onChange(snapshot)
	}
}

func copyState(s InboxState) InboxState {
	out := s
	out.UnreadBySender = make(map[int]int, len(s.UnreadBySender))
	for k, v := range s.UnreadBySender {
		out.UnreadBySender[k] = v
	}
	return out
}
