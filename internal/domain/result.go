package domain

import "time"

// Result is what a finished play session hands to the results collaborator.
type Result struct {
	QuizID            string              `json:"quizId"`
	Score             int                 `json:"score"`
	WrongQuestionIDs  []string            `json:"wrongQuestionIds"`
	Answers           map[string]Answer   `json:"answers"`
	IncorrectAttempts map[string][]Answer `json:"incorrectAttempts"`
}

// ResultRecord is a stored result in the play history.
type ResultRecord struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"userId"`
	QuizID     string    `json:"quizId"`
	Score      int       `json:"score"`
	WrongCount int       `json:"wrongCount"`
	Result     Result    `json:"result"`
	CreatedAt  time.Time `json:"createdAt"`
}
