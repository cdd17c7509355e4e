package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quizwizz-play/internal/app"
	"quizwizz-play/internal/authoring"
	"quizwizz-play/internal/config"
	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/infra/memory"
	"quizwizz-play/internal/poll"
	"quizwizz-play/internal/prefs"
)

func explainedQuiz() domain.Quiz {
	q := func(id string, correct int) domain.Question {
		opts := []domain.Option{{Text: "a", Index: 0}, {Text: "b", Index: 1}}
		opts[correct].IsCorrect = true
		return domain.Question{ID: id, Text: "Pick " + opts[correct].Text, Explanation: "because", Options: opts}
	}
	return domain.Quiz{ID: "t", Name: "Terminal", Questions: []domain.Question{q("q1", 1), q("q2", 0)}}
}

func TestPlayInTerminal(t *testing.T) {
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{"t": explainedQuiz()}), time.Minute)
	store := memory.NewSessionStore()
	service := app.NewPlayService(store, quizRepo, nil)

	in := strings.NewReader("0\n1\nc\n0\nc\n")
	var out bytes.Buffer
	if err := playInTerminal(context.Background(), service, "t", "u1", in, &out); err != nil {
		t.Fatalf("play: %v", err)
	}
	text := out.String()
	for _, want := range []string{"> incorrect", "> correct", "Score: 50%", "Wrong: q1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("session should be gone after play")
	}
}

func TestPlayInTerminalQuitOnEOF(t *testing.T) {
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{"t": explainedQuiz()}), time.Minute)
	service := app.NewPlayService(memory.NewSessionStore(), quizRepo, nil)

	var out bytes.Buffer
	if err := playInTerminal(context.Background(), service, "t", "u1", strings.NewReader("1\n"), &out); err != nil {
		t.Fatalf("play: %v", err)
	}
	if !strings.Contains(out.String(), "quit") || strings.Contains(out.String(), "Score:") {
		t.Fatalf("expected a quit without score:\n%s", out.String())
	}
}

func TestExportedDraftBuildsAgain(t *testing.T) {
	var out bytes.Buffer
	if err := writeDraft(&out, withAuthor(sampleQuizzes()["quiz-2"])); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := authoring.LoadDocument(&out)
	if err != nil {
		t.Fatalf("load exported draft: %v", err)
	}
	payload, err := doc.Build()
	if err != nil {
		t.Fatalf("exported draft does not build: %v", err)
	}
	gapQuestion := payload.Questions[1]
	if gapQuestion.Options[0].Text != "__G0__blue" || !strings.Contains(gapQuestion.Explanation, "Rayleigh") {
		t.Fatalf("gap question not preserved: %+v", gapQuestion)
	}
}

func withAuthor(q domain.Quiz) domain.Quiz {
	q.Author = "sample"
	return q
}

func TestFormatInbox(t *testing.T) {
	got := formatInbox(poll.InboxState{UnreadCount: 3, UnreadBySender: map[int]int{1: 2, 4: 1}, UnviewedShares: 1})
	if got != "inbox: 3 unread from 2 senders, 1 new shared quizzes" {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestFormatScores(t *testing.T) {
	if got := formatScores(nil); got != "scores: none recorded" {
		t.Fatalf("unexpected empty line %q", got)
	}
	got := formatScores(map[string]prefs.Score{"quiz-b": {Value: 90}, "quiz-a": {Value: 90}, "quiz-c": {Value: 40}})
	if got != "scores: 3 recorded, best quiz-a at 90%" {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestBackendDefaultsToMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("play:\n  advance_delay: 5ms\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx := context.Background()
	b, err := openBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	store, err := b.prefsStore(ctx)
	if err != nil {
		t.Fatalf("prefs store: %v", err)
	}
	if _, ok := store.(*memory.KVStore); !ok {
		t.Fatalf("expected memory prefs store, got %T", store)
	}
	if b.resultHistory() != nil {
		t.Fatalf("no postgres means no history")
	}

	service, _, err := b.playService(ctx)
	if err != nil {
		t.Fatalf("play service: %v", err)
	}
	if _, snap, err := service.Start(ctx, "quiz-2", "u1"); err != nil || snap.Total != 2 {
		t.Fatalf("expected sample quiz, got %+v, %v", snap, err)
	}
}
