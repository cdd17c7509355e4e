package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"quizwizz-play/internal/authoring"
	"quizwizz-play/internal/config"
	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/infra/restapi"
)

type credentials struct {
	username string
	password string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.username, "username", "", "backend account")
	cmd.Flags().StringVar(&c.password, "password", "", "backend password")
}

func (c credentials) login(ctx context.Context, api *restapi.Client) (domain.User, error) {
	if c.username == "" {
		return domain.User{}, fmt.Errorf("--username is required")
	}
	return api.Login(ctx, c.username, c.password)
}

// NewValidateCmd checks a YAML quiz draft and prints the payload the backend would
// receive. With --publish the quiz is created (or updated with --quiz).
func NewValidateCmd(configPath *string) *cobra.Command {
	var (
		creds   credentials
		publish bool
		quizID  string
	)
	cmd := &cobra.Command{
		Use:   "validate <draft.yaml>",
		Short: "Validate a quiz draft and print its encoded payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := authoring.ReadDocument(args[0])
			if err != nil {
				return err
			}
			payload, err := doc.Build()
			if err != nil {
				return err
			}
			if !publish {
				return printJSON(cmd.OutOrStdout(), payload)
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			if _, err := creds.login(cmd.Context(), b.api); err != nil {
				return err
			}

			var quiz domain.Quiz
			if quizID != "" {
				quiz, err = b.api.UpdateQuiz(cmd.Context(), quizID, payload)
			} else {
				quiz, err = b.api.CreateQuiz(cmd.Context(), payload)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s (%s)\n", quiz.ID, quiz.Name)
			return nil
		},
	}
	creds.bind(cmd)
	cmd.Flags().BoolVar(&publish, "publish", false, "send the quiz to the backend")
	cmd.Flags().StringVar(&quizID, "quiz", "", "update this quiz instead of creating one")
	return cmd
}

// NewExportCmd writes a stored quiz back out as an editable YAML draft.
func NewExportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <quizID>",
		Short: "Print a quiz as a YAML draft",
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

			loader, err := b.quizLoader()
			if err != nil {
				return err
			}
			quiz, err := loader.LoadQuiz(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeDraft(cmd.OutOrStdout(), quiz)
		},
	}
}

func writeDraft(w io.Writer, quiz domain.Quiz) error {
	doc := authoring.Document{
		Metadata: authoring.Metadata{Name: quiz.Name, Author: quiz.Author, Icon: quiz.Icon, Tags: quiz.Tags},
	}
	for _, q := range quiz.Questions {
		doc.Questions = append(doc.Questions, authoring.FromQuestion(q))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return enc.Close()
}

func printJSON(w io.Writer, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", raw)
	return err
}
