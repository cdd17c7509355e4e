package play

import (
	"sort"
	"strings"

	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/gap"
)

// Kind is decided once per question when a quiz is loaded.
type Kind int

const (
	KindClassic Kind = iota
	KindGap
)

func (k Kind) String() string {
	if k == KindGap {
		return "gap"
	}
	return "classic"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Mode is the answering affordance for a question.
type Mode int

const (
	ModeSingle Mode = iota
	ModeMulti
	ModeGap
)

func (m Mode) String() string {
	switch m {
	case ModeMulti:
		return "multi"
	case ModeGap:
		return "gap"
	default:
		return "single"
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAnswering
	PhaseRevealed
	PhaseTerminal
	PhaseQuit
)

func (p Phase) String() string {
	switch p {
	case PhaseAnswering:
		return "answering"
	case PhaseRevealed:
		return "revealed"
	case PhaseTerminal:
		return "terminal"
	case PhaseQuit:
		return "quit"
	default:
		return "idle"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Outcome reports what a submission did.
type Outcome int

const (
	// OutcomeIgnored means nothing was evaluated: wrong phase or incomplete selection.
	OutcomeIgnored Outcome = iota
	OutcomeIncorrect
	OutcomeCorrect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeCorrect:
		return "correct"
	default:
		return "ignored"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// question is a quiz question prepared for play.
type question struct {
	src          domain.Question
	kind         Kind
	correct      map[int]bool
	correctSet   []int
	correctIndex int
	options      map[int]bool

	gaps      []int
	gapGroups map[int][]gap.Entry
	optionGap map[int]int
	notes     map[int]string
	segments  []string

	explained bool
}

func prepare(q domain.Question) question {
	p := question{
		src:          q,
		kind:         KindClassic,
		correct:      make(map[int]bool, len(q.Options)),
		options:      make(map[int]bool, len(q.Options)),
		correctIndex: -1,
	}
	for _, opt := range q.Options {
		p.options[opt.Index] = true
		if opt.IsCorrect {
			p.correct[opt.Index] = true
			if p.correctIndex < 0 {
				p.correctIndex = opt.Index
			}
		}
	}
	for idx := range p.correct {
		p.correctSet = append(p.correctSet, idx)
	}
	sort.Ints(p.correctSet)

	if gap.IsGapQuestion(q) {
		p.kind = KindGap
		p.gapGroups = gap.GroupByGap(q.Options)
		p.gaps = gap.SortedGaps(p.gapGroups)
		p.optionGap = make(map[int]int)
		for g, entries := range p.gapGroups {
			for _, entry := range entries {
				p.optionGap[entry.OptionIndex] = g
			}
		}
		p.notes = make(map[int]string)
		for g, note := range gap.ParseExplanations(q.Explanation) {
			if strings.TrimSpace(note) != "" {
				p.notes[g] = note
			}
		}
		p.segments = gap.Segments(q.Text)
		p.explained = len(p.notes) > 0
		return p
	}
	p.explained = strings.TrimSpace(q.Explanation) != ""
	return p
}

// quizMode is multi when any question has more than one correct option or is a gap
// question; a quiz is single-answer only when none qualifies.
func quizMode(questions []question) Mode {
	for _, q := range questions {
		if q.kind == KindGap || len(q.correctSet) > 1 {
			return ModeMulti
		}
	}
	return ModeSingle
}

func cloneQuiz(quiz domain.Quiz) domain.Quiz {
	out := quiz
	out.Tags = append([]string(nil), quiz.Tags...)
	out.Questions = make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.Options = append([]domain.Option(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}
