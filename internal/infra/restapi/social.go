package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"quizwizz-play/internal/domain"
)

const commentPageSize = 10

type favorite struct {
	Quiz *domain.QuizSummary `json:"quiz"`
}

// Favorites returns the current user's favorite quizzes.
func (c *Client) Favorites(ctx context.Context) ([]domain.QuizSummary, error) {
	var favs []favorite
	if err := c.send(ctx, http.MethodGet, "/favorites/", nil, &favs); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	quizzes := make([]domain.QuizSummary, 0, len(favs))
	for _, f := range favs {
		if f.Quiz != nil {
			quizzes = append(quizzes, *f.Quiz)
		}
	}
	return quizzes, nil
}

func (c *Client) AddFavorite(ctx context.Context, quizID string) error {
	body := map[string]string{"quiz_id": quizID}
	if err := c.send(ctx, http.MethodPost, "/favorites/", body, nil); err != nil {
		return fmt.Errorf("add favorite %s: %w", quizID, err)
	}
	return nil
}

func (c *Client) RemoveFavorite(ctx context.Context, quizID string) error {
	if err := c.send(ctx, http.MethodDelete, "/favorites/"+url.PathEscape(quizID)+"/", nil, nil); err != nil {
		return fmt.Errorf("remove favorite %s: %w", quizID, err)
	}
	return nil
}

// Messages returns every message the current user sent or received.
func (c *Client) Messages(ctx context.Context) ([]domain.Message, error) {
	var msgs []domain.Message
	if err := c.send(ctx, http.MethodGet, "/messages/", nil, &msgs); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// Conversation returns the thread between the current user and userID.
func (c *Client) Conversation(ctx context.Context, userID int) ([]domain.Message, error) {
	path := "/messages/conversation/?user_id=" + strconv.Itoa(userID)
	var msgs []domain.Message
	if err := c.send(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, fmt.Errorf("conversation with %d: %w", userID, err)
	}
	return msgs, nil
}

type sendMessageRequest struct {
	RecipientID int    `json:"recipient_id"`
	Content     string `json:"content"`
}

func (c *Client) SendMessage(ctx context.Context, recipientID int, content string) (domain.Message, error) {
	var msg domain.Message
	body := sendMessageRequest{RecipientID: recipientID, Content: content}
	if err := c.send(ctx, http.MethodPost, "/messages/", body, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("send message to %d: %w", recipientID, err)
	}
	return msg, nil
}

func (c *Client) MarkRead(ctx context.Context, messageID int) error {
	path := "/messages/" + strconv.Itoa(messageID) + "/mark_read/"
	if err := c.send(ctx, http.MethodPost, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("mark message %d read: %w", messageID, err)
	}
	return nil
}

func (c *Client) ReceivedShares(ctx context.Context) ([]domain.QuizShare, error) {
	var shares []domain.QuizShare
	if err := c.send(ctx, http.MethodGet, "/quiz-shares/received/", nil, &shares); err != nil {
		return nil, fmt.Errorf("received shares: %w", err)
	}
	return shares, nil
}

// SentShares treats a 404 as "nothing sent yet".
func (c *Client) SentShares(ctx context.Context) ([]domain.QuizShare, error) {
	var shares []domain.QuizShare
	if err := c.send(ctx, http.MethodGet, "/quiz-shares/sent/", nil, &shares); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("sent shares: %w", err)
	}
	return shares, nil
}

type shareRequest struct {
	QuizID      string `json:"quiz_id"`
	RecipientID int    `json:"recipient_id"`
	Message     string `json:"message"`
}

func (c *Client) ShareQuiz(ctx context.Context, quizID string, recipientID int, message string) error {
	body := shareRequest{QuizID: quizID, RecipientID: recipientID, Message: message}
	if err := c.send(ctx, http.MethodPost, "/quiz-shares/", body, nil); err != nil {
		return fmt.Errorf("share quiz %s: %w", quizID, err)
	}
	return nil
}

func (c *Client) MarkShareViewed(ctx context.Context, shareID int) error {
	path := "/quiz-shares/" + strconv.Itoa(shareID) + "/mark_viewed/"
	if err := c.send(ctx, http.MethodPost, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("mark share %d viewed: %w", shareID, err)
	}
	return nil
}

// Comments returns one page of a quiz's comments. NextPage is 0 on the last page.
func (c *Client) Comments(ctx context.Context, quizID string, page int) (domain.CommentPage, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(commentPageSize))
	var out domain.CommentPage
	if err := c.send(ctx, http.MethodGet, quizPath(quizID, "comments")+"?"+q.Encode(), nil, &out); err != nil {
		return domain.CommentPage{}, fmt.Errorf("comments for %s: %w", quizID, err)
	}
	return out, nil
}

func (c *Client) PostComment(ctx context.Context, quizID, text string) (domain.Comment, error) {
	var comment domain.Comment
	body := map[string]string{"text": text}
	if err := c.send(ctx, http.MethodPost, quizPath(quizID, "comments"), body, &comment); err != nil {
		return domain.Comment{}, fmt.Errorf("post comment on %s: %w", quizID, err)
	}
	return comment, nil
}
