// Package play drives one playthrough of a quiz: answering, reveal, advance and the
// final score handed to the results page.
package play

import (
	"math"
	"sort"
	"sync"

	"quizwizz-play/internal/domain"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for delayed tasks.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithDelays overrides the default timings.
func WithDelays(d Delays) Option {
	return func(e *Engine) { e.delays = d }
}

// WithResultSink registers the results collaborator. It is called once per finished
// session, outside the engine lock.
func WithResultSink(sink func(domain.Result)) Option {
	return func(e *Engine) { e.sink = sink }
}

// Engine is the play state machine for a single session. All methods are safe for
// concurrent use; timer callbacks are serialized with caller actions.
type Engine struct {
	mu     sync.Mutex
	clock  Clock
	delays Delays
	sink   func(domain.Result)
	sched  *scheduler

	quiz      domain.Quiz
	questions []question
	mode      Mode
	phase     Phase
	current   int

	selected      int
	selectedSet   map[int]bool
	gapSelection  map[int]int
	disabled      map[int]bool
	verified      map[int]bool
	verifiedGaps  map[int]bool
	transient     map[int]bool
	transientGaps map[int]bool
	tryAgain      bool

	wrong    map[string]bool
	wrongIDs []string
	answers  map[string]domain.Answer
	attempts map[string][]domain.Answer
	result   *domain.Result
	pending  *domain.Result

	subscribers map[chan Snapshot]struct{}
	closed      bool
}

// New returns an idle engine; call Load to start a session.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:       systemClock{},
		delays:      DefaultDelays(),
		subscribers: make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sched = newScheduler(e.clock)
	e.resetSessionLocked()
	return e
}

// Load starts a new session on a private copy of quiz, discarding any previous session
// and its pending timers. An empty quiz finishes immediately with score 0.
func (e *Engine) Load(quiz domain.Quiz) {
	e.do(func() bool {
		if e.closed {
			return false
		}
		e.sched.reset()
		e.resetSessionLocked()

		e.quiz = cloneQuiz(quiz)
		e.questions = make([]question, len(e.quiz.Questions))
		for i, q := range e.quiz.Questions {
			e.questions[i] = prepare(q)
		}
		e.mode = quizMode(e.questions)

		if len(e.questions) == 0 {
			e.finishLocked()
			return true
		}
		e.phase = PhaseAnswering
		return true
	})
}

// Select picks a classic option: replaces the selection in single mode, toggles it in
// multi mode. Disabled and verified options cannot be changed. It reports whether the
// selection changed.
func (e *Engine) Select(optionIndex int) bool {
	var ok bool
	e.do(func() bool {
		ok = e.selectLocked(optionIndex)
		return ok
	})
	return ok
}

func (e *Engine) selectLocked(optionIndex int) bool {
	q, ok := e.currentLocked()
	if !ok || e.phase != PhaseAnswering || q.kind != KindClassic {
		return false
	}
	if !q.options[optionIndex] || e.disabled[optionIndex] {
		return false
	}
	if e.mode == ModeSingle {
		if e.selected == optionIndex {
			return false
		}
		e.selected = optionIndex
		return true
	}
	if e.verified[optionIndex] {
		return false
	}
	if e.selectedSet[optionIndex] {
		delete(e.selectedSet, optionIndex)
	} else {
		e.selectedSet[optionIndex] = true
	}
	return true
}

// SelectGap picks optionIndex for gapIndex on a gap question. The option must belong to
// that gap and the gap must not be verified yet.
func (e *Engine) SelectGap(gapIndex, optionIndex int) bool {
	var ok bool
	e.do(func() bool {
		q, found := e.currentLocked()
		if !found || e.phase != PhaseAnswering || q.kind != KindGap {
			return false
		}
		if g, belongs := q.optionGap[optionIndex]; !belongs || g != gapIndex {
			return false
		}
		if e.verifiedGaps[gapIndex] {
			return false
		}
		if cur, set := e.gapSelection[gapIndex]; set && cur == optionIndex {
			return false
		}
		e.gapSelection[gapIndex] = optionIndex
		ok = true
		return true
	})
	return ok
}

// Submit evaluates the current selection. Incomplete selections are ignored.
func (e *Engine) Submit() Outcome {
	var out Outcome
	e.do(func() bool {
		out = e.submitLocked()
		return out != OutcomeIgnored
	})
	return out
}

// Choose selects and submits in one step. Only pure single-answer quizzes use it.
func (e *Engine) Choose(optionIndex int) Outcome {
	var out Outcome
	e.do(func() bool {
		q, ok := e.currentLocked()
		if !ok || e.phase != PhaseAnswering || q.kind != KindClassic || e.mode != ModeSingle {
			return false
		}
		if !q.options[optionIndex] || e.disabled[optionIndex] {
			return false
		}
		e.selected = optionIndex
		out = e.submitLocked()
		return true
	})
	return out
}

// Continue leaves a revealed question, cancelling any pending auto-advance.
func (e *Engine) Continue() bool {
	var ok bool
	e.do(func() bool {
		if e.phase != PhaseRevealed {
			return false
		}
		e.advanceLocked()
		ok = true
		return true
	})
	return ok
}

// Quit abandons the session. Nothing is kept and no result is handed off.
func (e *Engine) Quit() {
	e.do(func() bool {
		if e.phase == PhaseQuit {
			return false
		}
		e.sched.reset()
		e.resetSessionLocked()
		e.phase = PhaseQuit
		return true
	})
}

// Result returns the final result once the session is terminal.
func (e *Engine) Result() (domain.Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseTerminal || e.result == nil {
		return domain.Result{}, false
	}
	return cloneResult(*e.result), true
}

// Close quits and closes every subscription. The engine ignores later calls.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.sched.reset()
	e.resetSessionLocked()
	e.phase = PhaseQuit
	e.closed = true
	for ch := range e.subscribers {
		delete(e.subscribers, ch)
		close(ch)
	}
}

// do runs fn under the lock, broadcasts when fn reports a change and delivers a
// pending result to the sink after unlocking.
func (e *Engine) do(fn func() bool) {
	e.mu.Lock()
	if fn() {
		e.broadcastLocked()
	}
	pending := e.pending
	e.pending = nil
	sink := e.sink
	e.mu.Unlock()

	if pending != nil && sink != nil {
		sink(*pending)
	}
}

func (e *Engine) currentLocked() (*question, bool) {
	if e.current < 0 || e.current >= len(e.questions) {
		return nil, false
	}
	return &e.questions[e.current], true
}

func (e *Engine) modeOf(q *question) Mode {
	if q.kind == KindGap {
		return ModeGap
	}
	return e.mode
}

func (e *Engine) canSubmitLocked() bool {
	q, ok := e.currentLocked()
	if !ok || e.phase != PhaseAnswering {
		return false
	}
	switch e.modeOf(q) {
	case ModeGap:
		if len(q.gaps) == 0 {
			return false
		}
		for _, g := range q.gaps {
			if _, set := e.gapSelection[g]; !set {
				return false
			}
		}
		return true
	case ModeMulti:
		return len(e.selectedSet) > 0
	default:
		return e.selected >= 0
	}
}

func (e *Engine) submitLocked() Outcome {
	if !e.canSubmitLocked() {
		return OutcomeIgnored
	}
	q, _ := e.currentLocked()
	id := q.src.ID

	switch e.modeOf(q) {
	case ModeSingle:
		answer := domain.SingleAnswer(e.selected)
		if e.selected == q.correctIndex {
			return e.revealLocked(q, answer)
		}
		e.recordWrongLocked(id, answer)
		e.disabled[e.selected] = true
		e.selected = -1

	case ModeMulti:
		picked := setKeys(e.selectedSet)
		answer := domain.MultiAnswer(picked)
		if equalInts(picked, q.correctSet) {
			return e.revealLocked(q, answer)
		}
		e.recordWrongLocked(id, answer)
		e.transient = make(map[int]bool)
		for _, idx := range picked {
			if q.correct[idx] {
				e.verified[idx] = true
			} else {
				e.transient[idx] = true
			}
		}
		e.selectedSet = make(map[int]bool, len(e.verified))
		for idx := range e.verified {
			e.selectedSet[idx] = true
		}
		e.armFeedbackLocked()

	case ModeGap:
		answer := domain.GapAnswer(e.gapSelection)
		allRight := true
		for _, g := range q.gaps {
			if !q.correct[e.gapSelection[g]] {
				allRight = false
				break
			}
		}
		if allRight {
			return e.revealLocked(q, answer)
		}
		e.recordWrongLocked(id, answer)
		e.transient = make(map[int]bool)
		e.transientGaps = make(map[int]bool)
		for _, g := range q.gaps {
			idx := e.gapSelection[g]
			if q.correct[idx] {
				e.verifiedGaps[g] = true
				continue
			}
			e.transientGaps[g] = true
			e.transient[idx] = true
			delete(e.gapSelection, g)
		}
		e.armFeedbackLocked()
	}

	e.tryAgain = true
	e.sched.schedule(taskNotice, e.delays.Notice, func(gen, seq uint64) {
		e.do(func() bool {
			if !e.sched.claim(taskNotice, gen, seq) {
				return false
			}
			e.tryAgain = false
			return true
		})
	})
	return OutcomeIncorrect
}

func (e *Engine) recordWrongLocked(id string, answer domain.Answer) {
	e.attempts[id] = append(e.attempts[id], answer)
	if !e.wrong[id] {
		e.wrong[id] = true
		e.wrongIDs = append(e.wrongIDs, id)
	}
}

func (e *Engine) armFeedbackLocked() {
	e.sched.schedule(taskFeedback, e.delays.Feedback, func(gen, seq uint64) {
		e.do(func() bool {
			if !e.sched.claim(taskFeedback, gen, seq) {
				return false
			}
			e.transient = make(map[int]bool)
			e.transientGaps = make(map[int]bool)
			return true
		})
	})
}

func (e *Engine) revealLocked(q *question, answer domain.Answer) Outcome {
	e.answers[q.src.ID] = answer
	e.phase = PhaseRevealed
	e.tryAgain = false
	e.transient = make(map[int]bool)
	e.transientGaps = make(map[int]bool)
	e.sched.cancel(taskFeedback)
	e.sched.cancel(taskNotice)

	if !q.explained {
		e.sched.schedule(taskAdvance, e.delays.Advance, func(gen, seq uint64) {
			e.do(func() bool {
				if !e.sched.claim(taskAdvance, gen, seq) {
					return false
				}
				if e.phase != PhaseRevealed {
					return false
				}
				e.advanceLocked()
				return true
			})
		})
	}
	return OutcomeCorrect
}

func (e *Engine) advanceLocked() {
	e.sched.cancelAll()
	e.resetQuestionLocked()
	if e.current+1 >= len(e.questions) {
		e.finishLocked()
		return
	}
	e.current++
	e.phase = PhaseAnswering
}

func (e *Engine) finishLocked() {
	total := len(e.questions)
	score := 0
	if total > 0 {
		score = int(math.Round(float64(total-len(e.wrongIDs)) / float64(total) * 100))
	}
	res := domain.Result{
		QuizID:            e.quiz.ID,
		Score:             score,
		WrongQuestionIDs:  append([]string{}, e.wrongIDs...),
		Answers:           e.answers,
		IncorrectAttempts: e.attempts,
	}
	e.result = &res
	e.phase = PhaseTerminal
	handoff := cloneResult(res)
	e.pending = &handoff
}

func (e *Engine) resetQuestionLocked() {
	e.selected = -1
	e.selectedSet = make(map[int]bool)
	e.gapSelection = make(map[int]int)
	e.disabled = make(map[int]bool)
	e.verified = make(map[int]bool)
	e.verifiedGaps = make(map[int]bool)
	e.transient = make(map[int]bool)
	e.transientGaps = make(map[int]bool)
	e.tryAgain = false
}

func (e *Engine) resetSessionLocked() {
	e.quiz = domain.Quiz{}
	e.questions = nil
	e.mode = ModeSingle
	e.phase = PhaseIdle
	e.current = 0
	e.wrong = make(map[string]bool)
	e.wrongIDs = nil
	e.answers = make(map[string]domain.Answer)
	e.attempts = make(map[string][]domain.Answer)
	e.result = nil
	e.pending = nil
	e.resetQuestionLocked()
}

func cloneResult(r domain.Result) domain.Result {
	out := r
	out.WrongQuestionIDs = append([]string{}, r.WrongQuestionIDs...)
	out.Answers = make(map[string]domain.Answer, len(r.Answers))
	for k, v := range r.Answers {
		out.Answers[k] = v
	}
	out.IncorrectAttempts = make(map[string][]domain.Answer, len(r.IncorrectAttempts))
	for k, v := range r.IncorrectAttempts {
		out.IncorrectAttempts[k] = append([]domain.Answer(nil), v...)
	}
	return out
}

func setKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
