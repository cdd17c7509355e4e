package gap

import (
	"fmt"
	"strings"

	"quizwizz-play/internal/domain"
)

// Validate checks an authored gap question. Checks run in a fixed order and the first
// failure is reported; gap numbers in messages are 1-based.
func Validate(text string, groups []domain.GapGroup) domain.Validation {
	count := CountGaps(text)
	if count == 0 {
		return domain.Invalid("Fill-in-the-gap question must contain at least one _ (gap)")
	}
	if len(groups) != count {
		return domain.Invalid("Please define options for every gap")
	}
	for g := 0; g < count; g++ {
		options := groups[g].Options
		if len(options) < 2 {
			return domain.Invalid(fmt.Sprintf("Gap %d must have at least 2 options", g+1))
		}
		for _, opt := range options {
			if strings.TrimSpace(opt.Label) == "" {
				return domain.Invalid(fmt.Sprintf("Gap %d has an option without text", g+1))
			}
		}
		correct := 0
		for _, opt := range options {
			if opt.IsCorrect {
				correct++
			}
		}
		if correct < 1 || len(options)-correct < 1 {
			return domain.Invalid(fmt.Sprintf("Gap %d needs at least 1 correct and 1 incorrect option", g+1))
		}
	}
	return domain.Valid()
}

// SyncGroups resizes groups to the number of gaps in text. New gaps get two blank
// options; surplus groups are dropped.
func SyncGroups(text string, groups []domain.GapGroup) []domain.GapGroup {
	count := CountGaps(text)
	out := make([]domain.GapGroup, 0, count)
	for g := 0; g < count; g++ {
		if g < len(groups) {
			group := groups[g]
			group.GapIndex = g
			out = append(out, group)
			continue
		}
		out = append(out, domain.GapGroup{
			GapIndex: g,
			Options:  []domain.GapOption{{}, {}},
		})
	}
	return out
}
