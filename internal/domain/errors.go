package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a play session does not exist or was quit.
	ErrSessionNotFound = errors.New("play session not found")
	// ErrParticipantNotFound is returned when a user acts on a session they do not own.
	ErrParticipantNotFound = errors.New("participant not found in play session")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNothingToRetry is returned when a retry is requested without any failed question.
	ErrNothingToRetry = errors.New("no failed questions to retry")
	// ErrInvalidQuiz wraps authoring validation failures.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrInvalidReaction indicates a reaction change with nothing to send.
	ErrInvalidReaction = errors.New("invalid reaction")
	// ErrUnauthorized is returned by the backend client for 401/403 responses.
	ErrUnauthorized = errors.New("not authorized")
)
