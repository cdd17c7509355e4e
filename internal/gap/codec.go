// Package gap packs fill-in-the-gap questions into the flat option list the quiz
// backend stores, and unpacks them again.
//
// Each gap is a run of underscores in the question text. Options belonging to gap n
// carry a "__G{n}__" prefix in their text; per-gap explanations travel as a JSON object
// keyed by the decimal gap index.
package gap

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"quizwizz-play/internal/domain"
)

var (
	gapRun = regexp.MustCompile(`_+`)
	marker = regexp.MustCompile(`^__G(\d+)__`)
)

// Encoded is the transport form of a gap question's options.
type Encoded struct {
	Options      []domain.Option
	Explanations string
}

// Entry is a play-time view of one option within its gap.
type Entry struct {
	OptionIndex int
	Label       string
	IsCorrect   bool
	ImageURL    string
}

// CountGaps returns the number of underscore runs in text.
func CountGaps(text string) int {
	return len(gapRun.FindAllStringIndex(text, -1))
}

// IsGapQuestion reports whether q is a gap question: its text has a gap and at least
// one option carries a gap marker.
func IsGapQuestion(q domain.Question) bool {
	if CountGaps(q.Text) == 0 {
		return false
	}
	for _, opt := range q.Options {
		if marker.MatchString(opt.Text) {
			return true
		}
	}
	return false
}

// Encode flattens groups in slice order; the slice position is the gap index. Option
// indices are assigned globally across all groups.
func Encode(groups []domain.GapGroup) Encoded {
	options := make([]domain.Option, 0)
	explanations := make(map[int]string)
	next := 0
	for g, group := range groups {
		if text := strings.TrimSpace(group.Explanation); text != "" {
			explanations[g] = text
		}
		for _, opt := range group.Options {
			options = append(options, domain.Option{
				Text:      fmt.Sprintf("__G%d__%s", g, opt.Label),
				IsCorrect: opt.IsCorrect,
				ImageURL:  opt.ImageURL,
				Index:     next,
			})
			next++
		}
	}
	return Encoded{Options: options, Explanations: encodeExplanations(explanations)}
}

// encodeExplanations writes {"0":"...","2":"..."} with keys in ascending numeric order
// and without HTML escaping, matching what the store already holds.
func encodeExplanations(explanations map[int]string) string {
	if len(explanations) == 0 {
		return ""
	}
	keys := make([]int, 0, len(explanations))
	for k := range explanations {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(k)))
		buf.WriteByte(':')
		buf.Write(quoteJSON(explanations[k]))
	}
	buf.WriteByte('}')
	return buf.String()
}

func quoteJSON(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// strings always encode
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// Decode groups flat options by their gap marker, sorted by gap index, and attaches any
// explanation found in the JSON map. Options without a marker are dropped; malformed
// explanations are ignored.
func Decode(options []domain.Option, explanations string) []domain.GapGroup {
	byGap := make(map[int][]domain.GapOption)
	for _, opt := range options {
		g, label, ok := parseMarker(opt.Text)
		if !ok {
			continue
		}
		byGap[g] = append(byGap[g], domain.GapOption{
			OptionIndex: opt.Index,
			Label:       label,
			IsCorrect:   opt.IsCorrect,
			ImageURL:    opt.ImageURL,
		})
	}

	notes := ParseExplanations(explanations)
	groups := make([]domain.GapGroup, 0, len(byGap))
	for _, g := range sortedKeys(byGap) {
		groups = append(groups, domain.GapGroup{
			GapIndex:    g,
			Options:     byGap[g],
			Explanation: notes[g],
		})
	}
	return groups
}

// ParseExplanations reads the per-gap explanation JSON. Anything that is not an object
// of decimal keys to strings yields an empty (or partial) map.
func ParseExplanations(raw string) map[int]string {
	out := make(map[int]string)
	if strings.TrimSpace(raw) == "" {
		return out
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return out
	}
	for key, val := range parsed {
		n, err := strconv.Atoi(key)
		if err != nil || n < 0 || strconv.Itoa(n) != key {
			continue
		}
		if text, ok := val.(string); ok {
			out[n] = text
		}
	}
	return out
}

// StripMarker removes a leading gap marker from text, if any.
func StripMarker(text string) string {
	if loc := marker.FindStringIndex(text); loc != nil {
		return text[loc[1]:]
	}
	return text
}

// GroupByGap builds the per-gap selectable lists used while playing. The global option
// index is kept and flat-array order is preserved inside each gap.
func GroupByGap(options []domain.Option) map[int][]Entry {
	out := make(map[int][]Entry)
	for _, opt := range options {
		g, label, ok := parseMarker(opt.Text)
		if !ok {
			continue
		}
		out[g] = append(out[g], Entry{
			OptionIndex: opt.Index,
			Label:       label,
			IsCorrect:   opt.IsCorrect,
			ImageURL:    opt.ImageURL,
		})
	}
	return out
}

// SortedGaps returns the gap indices of a grouping in ascending order.
func SortedGaps(groups map[int][]Entry) []int {
	return sortedKeys(groups)
}

// Segments splits text around its gap runs; the result always has CountGaps(text)+1
// elements.
func Segments(text string) []string {
	return gapRun.Split(text, -1)
}

func parseMarker(text string) (int, string, bool) {
	m := marker.FindStringSubmatchIndex(text)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(text[m[2]:m[3]])
	if err != nil {
		return 0, "", false
	}
	return n, text[m[1]:], true
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
