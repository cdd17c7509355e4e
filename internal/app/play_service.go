package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/play"
)

// SessionRepository abstracts where play sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// TemporaryRegistry holds quizzes that exist only while someone plays them, such as
// the "retry failed" quizzes built from a result.
type TemporaryRegistry interface {
	RegisterTemporary(ctx context.Context, quiz domain.Quiz) error
	ForgetTemporary(ctx context.Context, quizID string) error
}

// ResultHandler receives the result of every finished session.
type ResultHandler interface {
	HandleResult(userID string, result domain.Result)
}

const (
	// DefaultIdleTTL is how long a session lives without any call touching it.
	DefaultIdleTTL = 30 * time.Minute
	// DefaultFinishedTTL is how long a finished session stays readable.
	DefaultFinishedTTL = time.Minute
)

// PlayService hosts one play engine per session. Sessions end on Quit, after idling
// for the idle TTL, or once the finished TTL has passed since their result.
type PlayService struct {
	sessions    SessionRepository
	quizzes     QuizRepository
	results     ResultHandler
	opts        []play.Option
	idleTTL     time.Duration
	finishedTTL time.Duration

	mu        sync.Mutex
	temporary map[string]*temporaryQuiz
}

// temporaryQuiz counts the live sessions of a registered temporary quiz. gen moves on
// every registration, so a session started on an older registration never removes a
// newer one.
type temporaryQuiz struct {
	live int
	gen  int
}

// NewPlayService wires a service. results may be nil; opts are applied to every engine.
func NewPlayService(sessions SessionRepository, quizzes QuizRepository, results ResultHandler, opts ...play.Option) *PlayService {
	return &PlayService{
		sessions:    sessions,
		quizzes:     quizzes,
		results:     results,
		opts:        opts,
		idleTTL:     DefaultIdleTTL,
		finishedTTL: DefaultFinishedTTL,
		temporary:   make(map[string]*temporaryQuiz),
	}
}

// SetSessionTTL changes the idle and finished lifetimes of sessions started from now
// on. Zero or negative values keep the current setting.
func (s *PlayService) SetSessionTTL(idle, finished time.Duration) {
	if idle > 0 {
		s.idleTTL = idle
	}
	if finished > 0 {
		s.finishedTTL = finished
	}
}

// Session is one user's playthrough of one quiz.
type Session struct {
	ID        string
	QuizID    string
	UserID    string
	CreatedAt time.Time
	engine    *play.Engine

	mu       sync.Mutex
	expiry   *time.Timer
	finished bool
	ended    bool
	tempGen  int
}

// NewSession wraps an engine. Sessions built here and stored directly are not expired;
// PlayService.Start adds the expiry.
func NewSession(id, quizID, userID string, engine *play.Engine) *Session {
	return &Session{ID: id, QuizID: quizID, UserID: userID, CreatedAt: time.Now(), engine: engine}
}

// Engine exposes the session's state machine.
func (s *Session) Engine() *play.Engine {
	return s.engine
}

// Start loads the quiz and opens a new session for userID. The quiz is snapshotted at
// this point; later store changes do not reach the session.
func (s *PlayService) Start(ctx context.Context, quizID, userID string) (*Session, play.Snapshot, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, play.Snapshot{}, fmt.Errorf("start %s: %w", quizID, err)
	}

	var session *Session
	opts := append([]play.Option{}, s.opts...)
	results := s.results
	opts = append(opts, play.WithResultSink(func(res domain.Result) {
		if results != nil {
			results.HandleResult(userID, res)
		}
		s.markFinished(session)
	}))

	session = NewSession(uuid.NewString(), quizID, userID, play.New(opts...))
	session.tempGen = s.retainTemporary(quizID)
	session.expiry = time.AfterFunc(s.idleTTL, func() { s.end(session) })
	s.sessions.Put(session)
	session.engine.Load(quiz)
	return session, session.engine.Snapshot(), nil
}

// Select toggles or replaces a classic option.
func (s *PlayService) Select(_ context.Context, sessionID, userID string, option int) (play.Snapshot, error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return play.Snapshot{}, err
	}
	session.engine.Select(option)
	return session.engine.Snapshot(), nil
}

// SelectGap fills one gap of a gap question.
func (s *PlayService) SelectGap(_ context.Context, sessionID, userID string, gapIndex, option int) (play.Snapshot, error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return play.Snapshot{}, err
	}
	session.engine.SelectGap(gapIndex, option)
	return session.engine.Snapshot(), nil
}

// Submit evaluates the current selection.
func (s *PlayService) Submit(_ context.Context, sessionID, userID string) (play.Outcome, play.Snapshot, error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return play.OutcomeIgnored, play.Snapshot{}, err
	}
	out := session.engine.Submit()
	return out, session.engine.Snapshot(), nil
}

// Continue leaves a revealed question.
func (s *PlayService) Continue(_ context.Context, sessionID, userID string) (play.Snapshot, error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return play.Snapshot{}, err
	}
	session.engine.Continue()
	return session.engine.Snapshot(), nil
}

// Snapshot returns the session state.
func (s *PlayService) Snapshot(_ context.Context, sessionID, userID string) (play.Snapshot, error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return play.Snapshot{}, err
	}
	return session.engine.Snapshot(), nil
}

// Subscribe returns a channel of state updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *PlayService) Subscribe(_ context.Context, sessionID, userID string) (<-chan play.Snapshot, func(), error) {
	session, err := s.session(sessionID, userID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.engine.Subscribe()
	return ch, cancel, nil
}

// Quit discards the session. Quitting an unknown session is not an error.
func (s *PlayService) Quit(_ context.Context, sessionID, userID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil
	}
	if session.UserID != userID {
		return domain.ErrParticipantNotFound
	}
	s.end(session)
	return nil
}

// RetryFailed builds a quiz holding only the questions in wrongIDs, registers it as a
// temporary quiz and returns it. Its id is "<base>-failed", where base is the quiz id
// without a trailing "-failed".
func (s *PlayService) RetryFailed(ctx context.Context, quizID string, wrongIDs []string) (domain.Quiz, error) {
	if len(wrongIDs) == 0 {
		return domain.Quiz{}, domain.ErrNothingToRetry
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("retry %s: %w", quizID, err)
	}

	wrong := make(map[string]bool, len(wrongIDs))
	for _, id := range wrongIDs {
		wrong[id] = true
	}
	failed := make([]domain.Question, 0, len(wrongIDs))
	for _, q := range quiz.Questions {
		if wrong[q.ID] {
			failed = append(failed, q)
		}
	}
	if len(failed) == 0 {
		return domain.Quiz{}, domain.ErrNothingToRetry
	}

	retry := quiz
	retry.ID = strings.TrimSuffix(quiz.ID, "-failed") + "-failed"
	retry.Name = strings.TrimSuffix(quiz.Name, " • Failed") + " • Failed"
	retry.Tags = append([]string(nil), quiz.Tags...)
	retry.Questions = failed

	registry, ok := s.quizzes.(TemporaryRegistry)
	if !ok {
		return domain.Quiz{}, fmt.Errorf("retry %s: quiz repository cannot hold temporary quizzes", quizID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := registry.RegisterTemporary(ctx, retry); err != nil {
		return domain.Quiz{}, fmt.Errorf("register %s: %w", retry.ID, err)
	}
	entry, ok := s.temporary[retry.ID]
	if !ok {
		entry = &temporaryQuiz{}
		s.temporary[retry.ID] = entry
	}
	entry.gen++
	return retry, nil
}

func (s *PlayService) session(sessionID, userID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, domain.ErrParticipantNotFound
	}
	s.touch(session)
	return session, nil
}

// touch pushes the session's expiry out by the idle TTL, or by the finished TTL once
// it has a result.
func (s *PlayService) touch(session *Session) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.expiry == nil || session.ended {
		return
	}
	ttl := s.idleTTL
	if session.finished {
		ttl = s.finishedTTL
	}
	session.expiry.Reset(ttl)
}

func (s *PlayService) markFinished(session *Session) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.finished = true
	if session.expiry != nil && !session.ended {
		session.expiry.Reset(s.finishedTTL)
	}
}

// end closes the engine, removes the session and lets go of its temporary quiz. Only
// the first call for a session does anything.
func (s *PlayService) end(session *Session) {
	session.mu.Lock()
	if session.ended {
		session.mu.Unlock()
		return
	}
	session.ended = true
	if session.expiry != nil {
		session.expiry.Stop()
	}
	session.mu.Unlock()

	session.engine.Close()
	if current, ok := s.sessions.Get(session.ID); ok && current == session {
		s.sessions.Delete(session.ID)
	}
	if session.tempGen > 0 {
		s.releaseTemporary(session.QuizID, session.tempGen)
	}
}

// retainTemporary counts a new session of quizID when it is a registered temporary
// quiz and returns the registration it plays, or 0 for a regular quiz.
func (s *PlayService) retainTemporary(quizID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.temporary[quizID]
	if !ok {
		return 0
	}
	entry.live++
	return entry.gen
}

// releaseTemporary forgets a temporary quiz when its last session ends and nobody has
// registered it again since that session started.
func (s *PlayService) releaseTemporary(quizID string, gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.temporary[quizID]
	if !ok {
		return
	}
	entry.live--
	if entry.live > 0 || entry.gen != gen {
		return
	}
	delete(s.temporary, quizID)

	registry, ok := s.quizzes.(TemporaryRegistry)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := registry.ForgetTemporary(ctx, quizID); err != nil {
		log.Printf("forget temporary quiz %s: %v", quizID, err)
	}
}
