// Package authoring checks quiz drafts before they are sent to the backend and turns
// them into the payload the backend stores.
package authoring

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/gap"
)

type QuestionType string

const (
	TypeBasic   QuestionType = "basic"
	TypeFillGap QuestionType = "fill_gap"
)

type DraftOption struct {
	Text      string `yaml:"text" json:"text"`
	IsCorrect bool   `yaml:"correct,omitempty" json:"is_correct,omitempty"`
	ImageURL  string `yaml:"image_url,omitempty" json:"image_url,omitempty"`
}

// DraftGap holds the choices of one gap, in the order the gaps appear in the text.
type DraftGap struct {
	Options     []DraftOption `yaml:"options" json:"options"`
	Explanation string        `yaml:"explanation,omitempty" json:"explanation,omitempty"`
}

// Draft is a question being edited. Basic questions use Options, fill-gap
// questions use Gaps.
type Draft struct {
	Type        QuestionType  `yaml:"type" json:"type"`
	Text        string        `yaml:"text" json:"text"`
	ImageURL    string        `yaml:"image_url,omitempty" json:"image_url,omitempty"`
	Explanation string        `yaml:"explanation,omitempty" json:"explanation,omitempty"`
	Options     []DraftOption `yaml:"options,omitempty" json:"options,omitempty"`
	Gaps        []DraftGap    `yaml:"gaps,omitempty" json:"gaps,omitempty"`
}

type Metadata struct {
	Name   string   `yaml:"name" json:"name"`
	Author string   `yaml:"author" json:"author"`
	Icon   string   `yaml:"icon,omitempty" json:"icon,omitempty"`
	Tags   []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Document is a whole quiz as written in a draft file.
type Document struct {
	Metadata  `yaml:",inline"`
	Questions []Draft `yaml:"questions" json:"questions"`
}

// HasUnsavedContent reports whether discarding the draft would lose anything.
func (d Draft) HasUnsavedContent() bool {
	if strings.TrimSpace(d.Text) != "" || d.ImageURL != "" || strings.TrimSpace(d.Explanation) != "" {
		return true
	}
	for _, opt := range d.Options {
		if strings.TrimSpace(opt.Text) != "" || opt.ImageURL != "" {
			return true
		}
	}
	for _, g := range d.Gaps {
		for _, opt := range g.Options {
			if strings.TrimSpace(opt.Text) != "" {
				return true
			}
		}
	}
	return false
}

// GapGroups converts the draft's gaps into codec groups.
func (d Draft) GapGroups() []domain.GapGroup {
	groups := make([]domain.GapGroup, 0, len(d.Gaps))
	for i, g := range d.Gaps {
		group := domain.GapGroup{GapIndex: i, Explanation: g.Explanation}
		for _, opt := range g.Options {
			group.Options = append(group.Options, domain.GapOption{
				Label:     opt.Text,
				IsCorrect: opt.IsCorrect,
				ImageURL:  opt.ImageURL,
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// SyncGaps resizes Gaps to match the gaps currently in Text.
func (d *Draft) SyncGaps() {
	synced := gap.SyncGroups(d.Text, d.GapGroups())
	gaps := make([]DraftGap, 0, len(synced))
	for _, group := range synced {
		g := DraftGap{Explanation: group.Explanation}
		for _, opt := range group.Options {
			g.Options = append(g.Options, DraftOption{Text: opt.Label, IsCorrect: opt.IsCorrect, ImageURL: opt.ImageURL})
		}
		gaps = append(gaps, g)
	}
	d.Gaps = gaps
}

// FromQuestion turns a stored question back into an editable draft.
func FromQuestion(q domain.Question) Draft {
	d := Draft{Text: q.Text, ImageURL: q.ImageURL}
	if !gap.IsGapQuestion(q) {
		d.Type = TypeBasic
		d.Explanation = q.Explanation
		for _, opt := range q.Options {
			d.Options = append(d.Options, DraftOption{Text: opt.Text, IsCorrect: opt.IsCorrect, ImageURL: opt.ImageURL})
		}
		return d
	}

	d.Type = TypeFillGap
	for _, group := range gap.Decode(q.Options, q.Explanation) {
		g := DraftGap{Explanation: group.Explanation}
		for _, opt := range group.Options {
			g.Options = append(g.Options, DraftOption{Text: opt.Label, IsCorrect: opt.IsCorrect, ImageURL: opt.ImageURL})
		}
		d.Gaps = append(d.Gaps, g)
	}
	return d
}

// LoadDocument reads a YAML draft file. Questions without a type are basic.
func LoadDocument(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return Document{}, fmt.Errorf("decode draft: empty document")
		}
		return Document{}, fmt.Errorf("decode draft: %w", err)
	}
	for i := range doc.Questions {
		if doc.Questions[i].Type == "" {
			doc.Questions[i].Type = TypeBasic
		}
	}
	return doc, nil
}

func ReadDocument(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open draft: %w", err)
	}
	defer f.Close()
	return LoadDocument(f)
}
