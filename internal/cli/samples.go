package cli

import (
	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/gap"
)

// sampleQuizzes backs the static quiz source: one classic quiz, one with several
// correct answers and a fill-in-the-gap question.
func sampleQuizzes() map[string]domain.Quiz {
	colors := gap.Encode([]domain.GapGroup{
		{Options: []domain.GapOption{{Label: "blue", IsCorrect: true}, {Label: "green"}}, Explanation: "Rayleigh scattering."},
		{Options: []domain.GapOption{{Label: "green", IsCorrect: true}, {Label: "purple"}}},
	})

	return map[string]domain.Quiz{
		"quiz-1": {
			ID:   "quiz-1",
			Name: "Arithmetic",
			Tags: []string{"math"},
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "What is 2 + 2?",
					Options: []domain.Option{
						{Text: "3", Index: 0},
						{Text: "4", IsCorrect: true, Index: 1},
						{Text: "5", Index: 2},
					},
				},
				{
					ID:          "q2",
					Text:        "What is 7 * 6?",
					Explanation: "7 * 6 = 42.",
					Order:       1,
					Options: []domain.Option{
						{Text: "42", IsCorrect: true, Index: 0},
						{Text: "36", Index: 1},
						{Text: "48", Index: 2},
					},
				},
			},
		},
		"quiz-2": {
			ID:   "quiz-2",
			Name: "Nature",
			Tags: []string{"science"},
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "Which of these are mammals?",
					Options: []domain.Option{
						{Text: "Whale", IsCorrect: true, Index: 0},
						{Text: "Shark", Index: 1},
						{Text: "Bat", IsCorrect: true, Index: 2},
					},
				},
				{
					ID:          "q2",
					Text:        "The sky is ___ and grass is ___.",
					Order:       1,
					Options:     colors.Options,
					Explanation: colors.Explanations,
				},
			},
		},
	}
}
