package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"quizwizz-play/internal/app"
	"quizwizz-play/internal/config"
	"quizwizz-play/internal/play"
)

// NewPlayCmd plays a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "play <quizID>",
		Short: "Play a quiz in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			service, _, err := b.playService(cmd.Context())
			if err != nil {
				return err
			}
			return playInTerminal(cmd.Context(), service, args[0], userID, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&userID, "user", "local", "user the score is recorded for")
	return cmd
}

const playHelp = `commands: <n> pick option n, g <gap> <n> fill a gap, s submit, c continue, q quit`

// terminal serializes writes from the input loop and the update renderer.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func playInTerminal(ctx context.Context, service *app.PlayService, quizID, userID string, in io.Reader, out io.Writer) error {
	term := &terminal{out: out}
	session, _, err := service.Start(ctx, quizID, userID)
	if err != nil {
		return err
	}
	defer service.Quit(context.Background(), session.ID, userID)

	updates, cancel, err := service.Subscribe(ctx, session.ID, userID)
	if err != nil {
		return err
	}
	defer cancel()

	term.printf("%s\n", playHelp)
	rendered := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(rendered)
		var last string
		var once sync.Once
		for snap := range updates {
			if view := renderSnapshot(snap); view != "" && view != last {
				term.printf("%s", view)
				last = view
			}
			if snap.Phase == play.PhaseTerminal {
				once.Do(func() { close(finished) })
			}
		}
	}()
	stopRendering := func() {
		cancel()
		<-rendered
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		if snap, err := service.Snapshot(ctx, session.ID, userID); err == nil && snap.Phase == play.PhaseTerminal {
			stopRendering()
			printResult(term, snap)
			return nil
		}

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			stopRendering()
			return ctx.Err()
		case <-finished:
			continue
		case line, ok = <-lines:
		}
		if !ok || line == "q" {
			stopRendering()
			term.printf("quit\n")
			return nil
		}
		if err := playCommand(ctx, service, session.ID, userID, line, term); err != nil {
			stopRendering()
			return err
		}
	}
}

func printResult(term *terminal, snap play.Snapshot) {
	if snap.Result == nil {
		return
	}
	term.printf("Score: %d%%\n", snap.Result.Score)
	if len(snap.Result.WrongQuestionIDs) > 0 {
		term.printf("Wrong: %s\n", strings.Join(snap.Result.WrongQuestionIDs, ", "))
	}
}

func playCommand(ctx context.Context, service *app.PlayService, sessionID, userID, line string, term *terminal) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "s":
		outcome, _, err := service.Submit(ctx, sessionID, userID)
		if err != nil {
			return err
		}
		term.printf("> %s\n", outcome)
	case "c":
		_, err := service.Continue(ctx, sessionID, userID)
		return err
	case "g":
		if len(fields) != 3 {
			term.printf("usage: g <gap> <option>\n")
			return nil
		}
		g, gErr := strconv.Atoi(fields[1])
		n, nErr := strconv.Atoi(fields[2])
		if gErr != nil || nErr != nil {
			term.printf("usage: g <gap> <option>\n")
			return nil
		}
		_, err := service.SelectGap(ctx, sessionID, userID, g-1, n)
		return err
	default:
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			term.printf("%s\n", playHelp)
			return nil
		}
		snap, err := service.Select(ctx, sessionID, userID, n)
		if err != nil {
			return err
		}
		// single-answer quizzes answer on pick
		if snap.Question != nil && snap.Question.Mode == play.ModeSingle {
			outcome, _, err := service.Submit(ctx, sessionID, userID)
			if err != nil {
				return err
			}
			term.printf("> %s\n", outcome)
		}
	}
	return nil
}

func renderSnapshot(snap play.Snapshot) string {
	var b strings.Builder
	switch snap.Phase {
	case play.PhaseAnswering, play.PhaseRevealed:
	default:
		return ""
	}
	q := snap.Question
	if q == nil {
		return ""
	}
	fmt.Fprintf(&b, "\n[%d/%d] %s\n", snap.Index+1, snap.Total, q.Text)
	for _, opt := range q.Options {
		fmt.Fprintf(&b, "  %s %d. %s\n", optionMark(opt), opt.Index, opt.Text)
	}
	for _, g := range q.Gaps {
		fmt.Fprintf(&b, "  gap %d:", g.Gap+1)
		for _, opt := range g.Options {
			fmt.Fprintf(&b, " %s%d.%s", optionMark(opt), opt.Index, opt.Text)
		}
		b.WriteString("\n")
		if g.Explanation != "" {
			fmt.Fprintf(&b, "    %s\n", g.Explanation)
		}
	}
	if snap.TryAgain {
		b.WriteString("  try again\n")
	}
	if snap.Phase == play.PhaseRevealed {
		b.WriteString("  correct!\n")
		if q.Explanation != "" {
			fmt.Fprintf(&b, "  %s\n  (c to continue)\n", q.Explanation)
		}
	}
	return b.String()
}

func optionMark(opt play.OptionView) string {
	switch {
	case opt.Correct:
		return "[+]"
	case opt.Verified:
		return "[v]"
	case opt.Incorrect:
		return "[x]"
	case opt.Disabled:
		return "[-]"
	case opt.Selected:
		return "[*]"
	default:
		return "[ ]"
	}
}
