// Package poll runs best-effort refresh tasks at a fixed interval. The backend has
// no push channel, so unread counters and the quiz list are kept fresh this way.
package poll

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Task is one named refresh step.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Poller runs its tasks once immediately and then on every interval tick.
type Poller struct {
	interval time.Duration
	tasks    []Task
}

func New(interval time.Duration, tasks ...Task) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{interval: interval, tasks: tasks}
}

// Tick runs every task once. One failing task does not stop the others; the
// failures come back together.
func (p *Poller) Tick(ctx context.Context) error {
	var errs *multierror.Error
	for _, task := range p.tasks {
		if err := task.Run(ctx); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", task.Name, err))
		}
	}
	return errs.ErrorOrNil()
}

// Run ticks until ctx is cancelled. Tick failures are logged and the next tick
// proceeds as usual.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Tick(ctx); err != nil && ctx.Err() == nil {
			log.Printf("poll tick failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
