package restapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"quizwizz-play/internal/domain"
)

// ListQuizzes returns the catalog sorted by name.
func (c *Client) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	var quizzes []domain.QuizSummary
	if err := c.send(ctx, http.MethodGet, "/quizzes/", nil, &quizzes); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	sort.SliceStable(quizzes, func(i, j int) bool {
		return strings.ToLower(quizzes[i].Name) < strings.ToLower(quizzes[j].Name)
	})
	return quizzes, nil
}

// GetQuiz fetches one quiz with its questions.
func (c *Client) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := c.send(ctx, http.MethodGet, quizPath(quizID), nil, &quiz); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
		}
		return domain.Quiz{}, fmt.Errorf("get quiz %s: %w", quizID, err)
	}
	return quiz, nil
}

// LoadQuiz lets the client back the quiz caches.
func (c *Client) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return c.GetQuiz(ctx, quizID)
}

func (c *Client) CreateQuiz(ctx context.Context, payload domain.QuizPayload) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := c.send(ctx, http.MethodPost, "/quizzes/", payload, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

// UpdateQuiz replaces a quiz's metadata and questions.
func (c *Client) UpdateQuiz(ctx context.Context, quizID string, payload domain.QuizPayload) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := c.send(ctx, http.MethodPut, quizPath(quizID), payload, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz %s: %w", quizID, err)
	}
	return quiz, nil
}

func (c *Client) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := c.send(ctx, http.MethodDelete, quizPath(quizID), nil, nil); err != nil {
		return fmt.Errorf("delete quiz %s: %w", quizID, err)
	}
	return nil
}

type reactionRequest struct {
	Previous *string `json:"previous"`
	Current  *string `json:"current"`
}

// React posts a like/dislike transition to the endpoint (like or dislike) and
// returns the new counters. Empty previous/current are sent as null.
func (c *Client) React(ctx context.Context, quizID, endpoint, previous, current string) (domain.ReactionCounts, error) {
	body := reactionRequest{Previous: optional(previous), Current: optional(current)}
	var counts domain.ReactionCounts
	if err := c.send(ctx, http.MethodPost, quizPath(quizID, endpoint), body, &counts); err != nil {
		return domain.ReactionCounts{}, fmt.Errorf("react %s on %s: %w", endpoint, quizID, err)
	}
	return counts, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
