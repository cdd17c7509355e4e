package gap

import (
	"strings"
	"testing"

	"quizwizz-play/internal/domain"
)

func TestValidateOrderOfChecks(t *testing.T) {
	good := []domain.GapOption{{Label: "yes", IsCorrect: true}, {Label: "no"}}

	cases := []struct {
		name   string
		text   string
		groups []domain.GapGroup
		want   string
	}{
		{"no gaps", "plain text", nil, "at least one _"},
		{"group count", "a _ b _", []domain.GapGroup{{Options: good}}, "define options for every gap"},
		{"too few options", "a _", []domain.GapGroup{{Options: good[:1]}}, "Gap 1 must have at least 2 options"},
		{"blank option", "a _ b _", []domain.GapGroup{
			{Options: good},
			{Options: []domain.GapOption{{Label: "ok", IsCorrect: true}, {Label: "  "}}},
		}, "Gap 2 has an option without text"},
		{"all correct", "a _", []domain.GapGroup{{Options: []domain.GapOption{
			{Label: "x", IsCorrect: true}, {Label: "y", IsCorrect: true},
		}}}, "Gap 1 needs at least 1 correct and 1 incorrect option"},
		{"none correct", "a _", []domain.GapGroup{{Options: []domain.GapOption{
			{Label: "x"}, {Label: "y"},
		}}}, "Gap 1 needs at least 1 correct and 1 incorrect option"},
	}
	for _, tc := range cases {
		res := Validate(tc.text, tc.groups)
		if res.Valid {
			t.Fatalf("%s: expected invalid", tc.name)
		}
		if !strings.Contains(res.Error, tc.want) {
			t.Fatalf("%s: error %q does not contain %q", tc.name, res.Error, tc.want)
		}
	}

	res := Validate("a _ b __", []domain.GapGroup{{Options: good}, {Options: good}})
	if !res.Valid || res.Error != "" {
		t.Fatalf("expected valid, got %+v", res)
	}
}

func TestValidateSingleOptionGap(t *testing.T) {
	res := Validate("one _ gap", []domain.GapGroup{{Options: []domain.GapOption{{Label: "only", IsCorrect: true}}}})
	if res.Valid || !strings.Contains(res.Error, "at least 2 options") {
		t.Fatalf("unexpected validation %+v", res)
	}
}

func TestSyncGroups(t *testing.T) {
	existing := []domain.GapGroup{{Options: []domain.GapOption{{Label: "kept"}}, Explanation: "e"}}

	grown := SyncGroups("_ and _ and _", existing)
	if len(grown) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(grown))
	}
	if grown[0].Options[0].Label != "kept" || grown[0].Explanation != "e" {
		t.Fatalf("existing group not kept: %+v", grown[0])
	}
	for g := 1; g < 3; g++ {
		if grown[g].GapIndex != g || len(grown[g].Options) != 2 {
			t.Fatalf("new group %d malformed: %+v", g, grown[g])
		}
	}

	shrunk := SyncGroups("no gaps", grown)
	if len(shrunk) != 0 {
		t.Fatalf("expected groups truncated, got %d", len(shrunk))
	}
}
