package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"quizwizz-play/internal/config"
	"quizwizz-play/internal/prefs"
)

// NewPrefsCmd groups the local preference commands: scores, theme and reactions.
func NewPrefsCmd(configPath *string) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect and change local preferences",
	}
	cmd.PersistentFlags().StringVar(&scope, "user", "", "user the preferences belong to (empty: shared)")

	withBackend := func(cmd *cobra.Command, fn func(b *backend, store prefs.Store) error) error {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()
		store, err := b.prefsStore(cmd.Context())
		if err != nil {
			return err
		}
		return fn(b, store)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "scores",
		Short: "List recorded quiz scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, func(_ *backend, store prefs.Store) error {
				book, err := prefs.OpenScoreBook(cmd.Context(), store, scope)
				if err != nil {
					return err
				}
				scores := book.All()
				ids := make([]string, 0, len(scores))
				for id := range scores {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					s := scores[id]
					taken := time.UnixMilli(s.TakenAt).Format(time.RFC3339)
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d%%\t%s\n", id, s.Value, taken)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "theme [toggle]",
		Short: "Show or toggle the theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, func(_ *backend, store prefs.Store) error {
				theme, err := prefs.OpenTheme(cmd.Context(), store, scope)
				if err != nil {
					return err
				}
				current := theme.Current()
				if len(args) == 1 {
					if args[0] != "toggle" {
						return fmt.Errorf("unknown theme action %q", args[0])
					}
					if current, err = theme.Toggle(cmd.Context()); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), current)
				return nil
			})
		},
	})

	var creds credentials
	react := &cobra.Command{
		Use:   "react <quizID> like|dislike|none",
		Short: "Like, dislike or clear a reaction on a quiz",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quizID, current := args[0], args[1]
			if current == "none" {
				current = ""
			}
			return withBackend(cmd, func(b *backend, store prefs.Store) error {
				if _, err := creds.login(cmd.Context(), b.api); err != nil {
					return err
				}
				reactions, err := prefs.OpenReactions(cmd.Context(), store, b.api, scope)
				if err != nil {
					return err
				}
				previous, _ := reactions.Get(quizID)
				r, err := reactions.Record(cmd.Context(), quizID, current, previous.UserReaction)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d likes, %d dislikes\n", quizID, r.Likes, r.Dislikes)
				return nil
			})
		},
	}
	creds.bind(react)
	cmd.AddCommand(react)
	return cmd
}
