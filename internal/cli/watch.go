package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quizwizz-play/internal/config"
	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/poll"
	"quizwizz-play/internal/prefs"
)

// NewWatchCmd logs in and polls the inbox and the quiz list, printing changes. It also
// follows the local score book and theme, so scores recorded by a play session in
// another process show up here.
func NewWatchCmd(configPath *string) *cobra.Command {
	var (
		creds credentials
		scope string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll unread messages, shared quizzes and the quiz list; follow scores and theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			user, err := creds.login(ctx, b.api)
			if err != nil {
				return err
			}

			store, err := b.prefsStore(ctx)
			if err != nil {
				return err
			}
			book, err := prefs.OpenScoreBook(ctx, store, scope)
			if err != nil {
				return err
			}
			theme, err := prefs.OpenTheme(ctx, store, scope)
			if err != nil {
				return err
			}

			out := &terminal{out: cmd.OutOrStdout()}
			inbox := poll.NewInbox(b.api, user.ID, inboxPrinter(out))
			quizzes := poll.NewQuizList(b.api, func(list []domain.QuizSummary) {
				out.printf("quizzes: %d available\n", len(list))
			})

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return poll.New(config.Duration(cfg.Poll.InboxInterval, 10*time.Second), inbox.Task()).Run(ctx)
			})
			g.Go(func() error {
				return poll.New(config.Duration(cfg.Poll.QuizzesInterval, 5*time.Second), quizzes.Task()).Run(ctx)
			})
			g.Go(func() error {
				return book.Watch(ctx, func(scores map[string]prefs.Score) {
					out.printf("%s\n", formatScores(scores))
				})
			})
			g.Go(func() error {
				return theme.Watch(ctx, func(current string) {
					out.printf("theme: %s\n", current)
				})
			})
			return g.Wait()
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&scope, "user", "local", "user whose scores and theme are followed")
	return cmd
}

func formatScores(scores map[string]prefs.Score) string {
	best, bestQuiz := -1, ""
	for quizID, s := range scores {
		if s.Value > best || (s.Value == best && quizID < bestQuiz) {
			best, bestQuiz = s.Value, quizID
		}
	}
	if bestQuiz == "" {
		return "scores: none recorded"
	}
	return fmt.Sprintf("scores: %d recorded, best %s at %d%%", len(scores), bestQuiz, best)
}

// inboxPrinter prints the counters whenever they differ from the last print.
func inboxPrinter(out *terminal) func(poll.InboxState) {
	var last string
	return func(s poll.InboxState) {
		line := formatInbox(s)
		if line == last {
			return
		}
		last = line
		out.printf("%s\n", line)
	}
}

func formatInbox(s poll.InboxState) string {
	return fmt.Sprintf("inbox: %d unread from %d senders, %d new shared quizzes", s.UnreadCount, len(s.UnreadBySender), s.UnviewedShares)
}
