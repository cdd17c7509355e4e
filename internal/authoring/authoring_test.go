package authoring

import (
	"errors"
	"strings"
	"testing"

	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/gap"
)

func TestValidateClassicOrder(t *testing.T) {
	cases := []struct {
		name  string
		draft Draft
		want  string
	}{
		{"no text", Draft{Type: TypeBasic, Text: "  "}, "Question text is not filled in"},
		{"one option", Draft{Type: TypeBasic, Text: "Q", Options: []DraftOption{{Text: "a", IsCorrect: true}}}, "Please add at least 2 options"},
		{"no correct", Draft{Type: TypeBasic, Text: "Q", Options: []DraftOption{{Text: ""}, {Text: "b"}}}, "No correct answer is chosen"},
		{"blank option", Draft{Type: TypeBasic, Text: "Q", Options: []DraftOption{{Text: "a", IsCorrect: true}, {Text: " "}}}, "An option text is not filled in"},
		{"unknown type", Draft{Type: "essay", Text: "Q"}, "Unknown question type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Validate(tc.draft); got.Valid || got.Error != tc.want {
				t.Fatalf("got %+v, want %q", got, tc.want)
			}
		})
	}
	ok := Draft{Type: TypeBasic, Text: "Q", Options: []DraftOption{{Text: "a", IsCorrect: true}, {Text: "b"}}}
	if got := Validate(ok); !got.Valid {
		t.Fatalf("expected valid, got %+v", got)
	}
}

func TestValidateGapUsesCodecRules(t *testing.T) {
	d := Draft{Type: TypeFillGap, Text: "The sky is ___ and grass is ___"}
	d.SyncGaps()
	if len(d.Gaps) != 2 || len(d.Gaps[0].Options) != 2 {
		t.Fatalf("expected two gaps with two blank options, got %+v", d.Gaps)
	}
	if got := Validate(d); got.Error != "Gap 1 has an option without text" {
		t.Fatalf("unexpected validation %+v", got)
	}
	if got := Validate(Draft{Type: TypeFillGap}); got.Error != "Question text is not filled in" {
		t.Fatalf("text check must run first, got %+v", got)
	}
}

func TestBuildQuizEncodesGaps(t *testing.T) {
	meta := Metadata{Name: " Colors ", Author: "ann", Tags: []string{" art", "art", "", "nature"}}
	drafts := []Draft{
		{Type: TypeBasic, Text: "Pick red", Explanation: " red is red ", Options: []DraftOption{{Text: "red", IsCorrect: true}, {Text: "blue"}}},
		{Type: TypeFillGap, Text: "Sky is ___", Gaps: []DraftGap{{
			Explanation: "look up",
			Options:     []DraftOption{{Text: "blue", IsCorrect: true}, {Text: "green"}},
		}}},
	}
	payload, err := BuildQuiz(meta, drafts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if payload.Name != "Colors" || strings.Join(payload.Tags, ",") != "art,nature" {
		t.Fatalf("unexpected metadata %+v", payload)
	}
	if payload.Questions[0].ID != "q1" || payload.Questions[1].ID != "q2" || payload.Questions[1].Order != 1 {
		t.Fatalf("unexpected ids %+v", payload.Questions)
	}
	if payload.Questions[0].Explanation != "red is red" || payload.Questions[0].Options[1].Index != 1 {
		t.Fatalf("unexpected classic question %+v", payload.Questions[0])
	}
	g := payload.Questions[1]
	if !gap.IsGapQuestion(g) || g.Options[0].Text != "__G0__blue" || g.Explanation != `{"0":"look up"}` {
		t.Fatalf("unexpected gap question %+v", g)
	}

	back := FromQuestion(g)
	if back.Type != TypeFillGap || len(back.Gaps) != 1 || back.Gaps[0].Explanation != "look up" || back.Gaps[0].Options[0].Text != "blue" {
		t.Fatalf("round trip to draft lost data: %+v", back)
	}
}

func TestBuildQuizRejects(t *testing.T) {
	_, err := BuildQuiz(Metadata{Name: "n", Author: "a"}, nil)
	if !errors.Is(err, domain.ErrInvalidQuiz) || !strings.Contains(err.Error(), "Please add at least one question.") {
		t.Fatalf("expected empty quiz error, got %v", err)
	}
	_, err = BuildQuiz(Metadata{Author: "a"}, []Draft{{Type: TypeBasic}})
	if err == nil || !strings.Contains(err.Error(), "No quiz name") {
		t.Fatalf("expected name error, got %v", err)
	}
	_, err = BuildQuiz(Metadata{Name: "n", Author: "a"}, []Draft{{Type: TypeBasic, Text: "Q"}})
	if err == nil || !strings.Contains(err.Error(), "question 1: Please add at least 2 options") {
		t.Fatalf("expected question error, got %v", err)
	}
}

func TestHasUnsavedContent(t *testing.T) {
	if (Draft{Type: TypeBasic, Options: []DraftOption{{}, {}}}).HasUnsavedContent() {
		t.Fatalf("blank draft has nothing to lose")
	}
	if !(Draft{Type: TypeFillGap, Gaps: []DraftGap{{Options: []DraftOption{{Text: "x"}}}}}).HasUnsavedContent() {
		t.Fatalf("gap option text counts as content")
	}
	if !(Draft{Options: []DraftOption{{ImageURL: "http://img"}}}).HasUnsavedContent() {
		t.Fatalf("option image counts as content")
	}
}

func TestLoadDocument(t *testing.T) {
	src := `
name: Capitals
author: ann
tags: [geo]
questions:
  - text: Capital of France?
    options:
      - text: Paris
        correct: true
      - text: Rome
  - type: fill_gap
    text: Berlin is in ___
    gaps:
      - options:
          - text: Germany
            correct: true
          - text: Spain
`
	doc, err := LoadDocument(strings.NewReader(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Name != "Capitals" || len(doc.Questions) != 2 || doc.Questions[0].Type != TypeBasic {
		t.Fatalf("unexpected document %+v", doc)
	}
	if _, err := doc.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := LoadDocument(strings.NewReader("name: x\nbogus: 1\n")); err == nil {
		t.Fatalf("unknown fields should be rejected")
	}
}
