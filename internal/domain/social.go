package domain

import "time"

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Message is a direct message between two users.
type Message struct {
	ID        int       `json:"id"`
	Sender    User      `json:"sender"`
	Recipient User      `json:"recipient"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// QuizShare is a quiz recommended by one user to another.
type QuizShare struct {
	ID        int         `json:"id"`
	Sender    User        `json:"sender"`
	Recipient User        `json:"recipient"`
	QuizData  QuizSummary `json:"quiz_data"`
	Message   string      `json:"message"`
	IsViewed  bool        `json:"is_viewed"`
	CreatedAt time.Time   `json:"created_at"`
}

type Comment struct {
	ID        int       `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentPage is one page of a quiz's comment thread. NextPage is 0 on the last page.
type CommentPage struct {
	Results  []Comment `json:"results"`
	NextPage int       `json:"next_page"`
}

// ReactionCounts is returned by the like/dislike endpoints.
type ReactionCounts struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}
