package play

import "time"

type taskKey int

const (
	taskAdvance taskKey = iota
	taskFeedback
	taskNotice
)

type scheduledTask struct {
	seq   uint64
	timer Timer
}

// scheduler owns the engine's delayed tasks. It is not safe for concurrent use; the
// engine calls it with its own lock held, including from inside fired callbacks.
//
// A callback receives the generation and sequence it was armed with and must claim
// them before touching state: a task that was cancelled, rescheduled or armed in an
// earlier session generation fails the claim.
type scheduler struct {
	clock Clock
	gen   uint64
	seq   uint64
	tasks map[taskKey]scheduledTask
}

func newScheduler(clock Clock) *scheduler {
	return &scheduler{
		clock: clock,
		tasks: make(map[taskKey]scheduledTask),
	}
}

func (s *scheduler) schedule(key taskKey, d time.Duration, fn func(gen, seq uint64)) {
	s.cancel(key)
	s.seq++
	gen, seq := s.gen, s.seq
	timer := s.clock.AfterFunc(d, func() { fn(gen, seq) })
	s.tasks[key] = scheduledTask{seq: seq, timer: timer}
}

func (s *scheduler) claim(key taskKey, gen, seq uint64) bool {
	task, ok := s.tasks[key]
	if !ok || gen != s.gen || task.seq != seq {
		return false
	}
	delete(s.tasks, key)
	return true
}

func (s *scheduler) pending(key taskKey) bool {
	_, ok := s.tasks[key]
	return ok
}

func (s *scheduler) cancel(key taskKey) {
	if task, ok := s.tasks[key]; ok {
		task.timer.Stop()
		delete(s.tasks, key)
	}
}

func (s *scheduler) cancelAll() {
	for key := range s.tasks {
		s.cancel(key)
	}
}

// reset cancels everything and starts a new session generation.
func (s *scheduler) reset() {
	s.cancelAll()
	s.gen++
}
