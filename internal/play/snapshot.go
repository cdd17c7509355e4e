package play

import (
	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/gap"
)

// Snapshot is a read-only rendering of the engine state.
type Snapshot struct {
	QuizID     string         `json:"quizId"`
	QuizName   string         `json:"quizName"`
	Phase      Phase          `json:"phase"`
	Index      int            `json:"index"`
	Total      int            `json:"total"`
	Question   *QuestionView  `json:"question,omitempty"`
	TryAgain   bool           `json:"tryAgain"`
	Processing bool           `json:"processing"`
	CanSubmit  bool           `json:"canSubmit"`
	Result     *domain.Result `json:"result,omitempty"`
}

type QuestionView struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	ImageURL string       `json:"imageUrl,omitempty"`
	Kind     Kind         `json:"kind"`
	Mode     Mode         `json:"mode"`
	Options  []OptionView `json:"options,omitempty"`
	Segments []string     `json:"segments,omitempty"`
	Gaps     []GapView    `json:"gaps,omitempty"`
	// Explanation is only filled once the question is revealed.
	Explanation string `json:"explanation,omitempty"`
}

type OptionView struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Selected  bool   `json:"selected"`
	Disabled  bool   `json:"disabled"`
	Verified  bool   `json:"verified"`
	Incorrect bool   `json:"incorrect"`
	Correct   bool   `json:"correct"`
}

type GapView struct {
	Gap         int          `json:"gap"`
	Options     []OptionView `json:"options"`
	Selection   *int         `json:"selection,omitempty"`
	Verified    bool         `json:"verified"`
	Incorrect   bool         `json:"incorrect"`
	Explanation string       `json:"explanation,omitempty"`
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state change, starting
// with the current one. Slow readers only see the latest state. The caller must invoke
// the returned cancel function.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	ch <- e.snapshotLocked()
	e.subscribers[ch] = struct{}{}
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

func (e *Engine) broadcastLocked() {
	snap := e.snapshotLocked()
	for ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		QuizID:     e.quiz.ID,
		QuizName:   e.quiz.Name,
		Phase:      e.phase,
		Index:      e.current,
		Total:      len(e.questions),
		TryAgain:   e.tryAgain,
		Processing: e.sched.pending(taskAdvance),
		CanSubmit:  e.canSubmitLocked(),
	}
	if e.phase == PhaseTerminal && e.result != nil {
		res := cloneResult(*e.result)
		snap.Result = &res
	}
	if e.phase != PhaseAnswering && e.phase != PhaseRevealed {
		return snap
	}
	q, ok := e.currentLocked()
	if !ok {
		return snap
	}
	revealed := e.phase == PhaseRevealed
	view := &QuestionView{
		ID:       q.src.ID,
		Text:     q.src.Text,
		ImageURL: q.src.ImageURL,
		Kind:     q.kind,
		Mode:     e.modeOf(q),
	}

	if q.kind == KindGap {
		view.Segments = append([]string(nil), q.segments...)
		for _, g := range q.gaps {
			gv := GapView{
				Gap:       g,
				Verified:  e.verifiedGaps[g],
				Incorrect: e.transientGaps[g],
			}
			if idx, set := e.gapSelection[g]; set {
				sel := idx
				gv.Selection = &sel
			}
			if revealed {
				gv.Explanation = q.notes[g]
			}
			for _, entry := range q.gapGroups[g] {
				gv.Options = append(gv.Options, e.gapOptionView(q, g, entry, revealed))
			}
			view.Gaps = append(view.Gaps, gv)
		}
		snap.Question = view
		return snap
	}

	for _, opt := range q.src.Options {
		selected := e.selectedSet[opt.Index]
		if e.mode == ModeSingle {
			selected = e.selected == opt.Index
		}
		view.Options = append(view.Options, OptionView{
			Index:     opt.Index,
			Text:      gap.StripMarker(opt.Text),
			ImageURL:  opt.ImageURL,
			Selected:  selected,
			Disabled:  e.disabled[opt.Index],
			Verified:  e.verified[opt.Index],
			Incorrect: e.transient[opt.Index],
			Correct:   revealed && q.correct[opt.Index],
		})
	}
	if revealed {
		view.Explanation = q.src.Explanation
	}
	snap.Question = view
	return snap
}

func (e *Engine) gapOptionView(q *question, g int, entry gap.Entry, revealed bool) OptionView {
	idx, set := e.gapSelection[g]
	selected := set && idx == entry.OptionIndex
	return OptionView{
		Index:     entry.OptionIndex,
		Text:      entry.Label,
		ImageURL:  entry.ImageURL,
		Selected:  selected,
		Verified:  selected && e.verifiedGaps[g],
		Incorrect: e.transient[entry.OptionIndex],
		Correct:   revealed && q.correct[entry.OptionIndex],
	}
}
