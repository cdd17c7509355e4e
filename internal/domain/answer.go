package domain

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// AnswerKind tells which shape an Answer carries.
type AnswerKind int

const (
	AnswerSingle AnswerKind = iota
	AnswerMulti
	AnswerGap
)

// Answer is the per-question answer value handed to the results page: a single option
// index, a set of option indices, or gap index -> selected global option index.
type Answer struct {
	Kind   AnswerKind
	Option int
	Set    []int
	Gaps   map[int]int
}

// SingleAnswer builds a single-answer value.
func SingleAnswer(option int) Answer {
	return Answer{Kind: AnswerSingle, Option: option}
}

// MultiAnswer builds a multi-answer value. The set is copied and sorted.
func MultiAnswer(set []int) Answer {
	cp := append([]int{}, set...)
	sort.Ints(cp)
	return Answer{Kind: AnswerMulti, Set: cp}
}

// GapAnswer builds a gap answer value. The map is copied.
func GapAnswer(gaps map[int]int) Answer {
	cp := make(map[int]int, len(gaps))
	for k, v := range gaps {
		cp[k] = v
	}
	return Answer{Kind: AnswerGap, Gaps: cp}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerMulti:
		if a.Set == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Set)
	case AnswerGap:
		out := make(map[string]int, len(a.Gaps))
		for k, v := range a.Gaps {
			out[strconv.Itoa(k)] = v
		}
		return json.Marshal(out)
	default:
		return json.Marshal(a.Option)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty answer")
	}
	switch trimmed[0] {
	case '[':
		var set []int
		if err := json.Unmarshal(trimmed, &set); err != nil {
			return fmt.Errorf("decode multi answer: %w", err)
		}
		*a = MultiAnswer(set)
	case '{':
		var raw map[string]int
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("decode gap answer: %w", err)
		}
		gaps := make(map[int]int, len(raw))
		for k, v := range raw {
			n, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("decode gap answer: bad gap %q", k)
			}
			gaps[n] = v
		}
		*a = Answer{Kind: AnswerGap, Gaps: gaps}
	default:
		var n int
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("decode single answer: %w", err)
		}
		*a = SingleAnswer(n)
	}
	return nil
}
