package authoring

import (
	"fmt"
	"strings"

	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/gap"
)

// Validate dispatches on the draft's type.
func Validate(d Draft) domain.Validation {
	switch d.Type {
	case TypeBasic:
		return ValidateClassic(d)
	case TypeFillGap:
		return ValidateGap(d)
	default:
		return domain.Invalid("Unknown question type")
	}
}

func ValidateClassic(d Draft) domain.Validation {
	if strings.TrimSpace(d.Text) == "" {
		return domain.Invalid("Question text is not filled in")
	}
	if len(d.Options) < 2 {
		return domain.Invalid("Please add at least 2 options")
	}
	correct := false
	for _, opt := range d.Options {
		correct = correct || opt.IsCorrect
	}
	if !correct {
		return domain.Invalid("No correct answer is chosen")
	}
	for _, opt := range d.Options {
		if strings.TrimSpace(opt.Text) == "" {
			return domain.Invalid("An option text is not filled in")
		}
	}
	return domain.Valid()
}

func ValidateGap(d Draft) domain.Validation {
	if strings.TrimSpace(d.Text) == "" {
		return domain.Invalid("Question text is not filled in")
	}
	return gap.Validate(d.Text, d.GapGroups())
}

func ValidateMetadata(m Metadata) domain.Validation {
	if strings.TrimSpace(m.Name) == "" {
		return domain.Invalid("No quiz name")
	}
	if strings.TrimSpace(m.Author) == "" {
		return domain.Invalid("No quiz author name")
	}
	return domain.Valid()
}

// BuildQuestion produces the stored form of a draft. Gap drafts are encoded with the
// gap codec: markers in option text and the per-gap explanations as JSON.
func BuildQuestion(d Draft, id string, order int) domain.Question {
	q := domain.Question{
		ID:       id,
		Text:     d.Text,
		ImageURL: d.ImageURL,
		Order:    order,
	}
	if d.Type == TypeFillGap {
		encoded := gap.Encode(d.GapGroups())
		q.Options = encoded.Options
		q.Explanation = encoded.Explanations
		return q
	}
	q.Explanation = strings.TrimSpace(d.Explanation)
	q.Options = make([]domain.Option, 0, len(d.Options))
	for i, opt := range d.Options {
		q.Options = append(q.Options, domain.Option{
			Text:      opt.Text,
			IsCorrect: opt.IsCorrect,
			ImageURL:  opt.ImageURL,
			Index:     i,
		})
	}
	return q
}

// BuildQuiz validates metadata and every draft and assembles the create/update body.
// Question ids are q1..qN in draft order.
func BuildQuiz(m Metadata, drafts []Draft) (domain.QuizPayload, error) {
	if v := ValidateMetadata(m); !v.Valid {
		return domain.QuizPayload{}, fmt.Errorf("%w: %s", domain.ErrInvalidQuiz, v.Error)
	}
	if len(drafts) == 0 {
		return domain.QuizPayload{}, fmt.Errorf("%w: Please add at least one question.", domain.ErrInvalidQuiz)
	}

	payload := domain.QuizPayload{
		Name:      strings.TrimSpace(m.Name),
		Author:    strings.TrimSpace(m.Author),
		Icon:      m.Icon,
		Tags:      normalizeTags(m.Tags),
		Questions: make([]domain.Question, 0, len(drafts)),
	}
	for i, d := range drafts {
		if v := Validate(d); !v.Valid {
			return domain.QuizPayload{}, fmt.Errorf("%w: question %d: %s", domain.ErrInvalidQuiz, i+1, v.Error)
		}
		payload.Questions = append(payload.Questions, BuildQuestion(d, fmt.Sprintf("q%d", i+1), i))
	}
	return payload, nil
}

// Build is BuildQuiz for a loaded draft file.
func (doc Document) Build() (domain.QuizPayload, error) {
	return BuildQuiz(doc.Metadata, doc.Questions)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
