package domain

// Option is one answer choice of a question as it travels to and from the backend.
// Index is the option's identifier; for gap questions the flat array mixes several
// gaps, so the array position alone must never be used.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	ImageURL  string `json:"image_url,omitempty"`
	Index     int    `json:"index"`
}

// Question models both classic and fill-in-the-gap questions. The two are told apart
// structurally (see gap.IsGapQuestion), never by a discriminator field.
type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	ImageURL    string   `json:"image_url,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Order       int      `json:"order,omitempty"`
	Options     []Option `json:"options"`
}

// Quiz is a collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Author    string     `json:"author,omitempty"`
	Tags      []string   `json:"tags"`
	Icon      string     `json:"icon,omitempty"`
	Questions []Question `json:"questions"`
}

// QuizSummary is the list view of a quiz.
type QuizSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Author        string   `json:"author,omitempty"`
	Tags          []string `json:"tags"`
	Icon          string   `json:"icon,omitempty"`
	QuestionCount int      `json:"question_count"`
}

// QuizPayload is the body sent when creating or updating a quiz.
type QuizPayload struct {
	Name      string     `json:"name"`
	Author    string     `json:"author,omitempty"`
	Icon      string     `json:"icon"`
	Tags      []string   `json:"tags"`
	Questions []Question `json:"questions"`
}

// GapOption is one choice of a single gap.
type GapOption struct {
	OptionIndex int    `json:"optionIndex"`
	Label       string `json:"label"`
	IsCorrect   bool   `json:"isCorrect"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// GapGroup is the author-facing view of one gap: its choices and optional explanation.
type GapGroup struct {
	GapIndex    int         `json:"gapIndex"`
	Options     []GapOption `json:"options"`
	Explanation string      `json:"explanation,omitempty"`
}

// Validation is the structured outcome of authoring-time checks.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Valid returns a passing validation.
func Valid() Validation {
	return Validation{Valid: true}
}

// Invalid returns a failing validation carrying a user-facing message.
func Invalid(msg string) Validation {
	return Validation{Valid: false, Error: msg}
}
