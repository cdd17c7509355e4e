package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"quizwizz-play/internal/app"
	"quizwizz-play/internal/authoring"
	"quizwizz-play/internal/domain"
	"quizwizz-play/internal/play"
)

const userHeader = "X-User-ID"

type ctxKey int

const userKey ctxKey = iota

// PlayAPI is the REST face of the play service, for clients that poll instead of
// holding a websocket.
type PlayAPI struct {
	service  *app.PlayService
	history  app.HistoryReader
	validate *validator.Validate
}

// NewPlayAPI builds the API. history may be nil when no result store is configured.
func NewPlayAPI(service *app.PlayService, history app.HistoryReader) *PlayAPI {
	return &PlayAPI{service: service, history: history, validate: validator.New()}
}

// NewRouter mounts the health check, the play socket and the REST API.
func NewRouter(ws *WSHandler, api *PlayAPI, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger, middleware.Timeout(30*time.Second))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", userHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Mount("/api", api.Routes())
	})
	return r
}

func (a *PlayAPI) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/authoring/validate", a.validateDraft)

	r.Route("/play", func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/sessions", a.startSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", a.getSession)
			r.Delete("/", a.quitSession)
			r.Post("/select", a.selectOption)
			r.Post("/gap", a.selectGap)
			r.Post("/submit", a.submit)
			r.Post("/continue", a.continueSession)
		})
		r.Post("/retry", a.retryFailed)
		r.Get("/history", a.listHistory)
	})
	return r
}

type startRequest struct {
	QuizID string `json:"quizId" validate:"required"`
}

type sessionResponse struct {
	SessionID string        `json:"sessionId"`
	State     play.Snapshot `json:"state"`
}

type selectRequest struct {
	Option *int `json:"option" validate:"required,min=0"`
}

type gapRequest struct {
	Gap    *int `json:"gap" validate:"required,min=0"`
	Option *int `json:"option" validate:"required,min=0"`
}

type submitResponse struct {
	Outcome play.Outcome  `json:"outcome"`
	State   play.Snapshot `json:"state"`
}

type retryRequest struct {
	QuizID           string   `json:"quizId" validate:"required"`
	WrongQuestionIDs []string `json:"wrongQuestionIds" validate:"required,min=1,dive,required"`
}

type draftResponse struct {
	domain.Validation
	Payload *domain.QuizPayload `json:"payload,omitempty"`
}

func (a *PlayAPI) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !a.decode(w, r, &req) {
		return
	}
	session, snap, err := a.service.Start(r.Context(), req.QuizID, userFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse{SessionID: session.ID, State: snap})
}

func (a *PlayAPI) getSession(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.Snapshot(r.Context(), chi.URLParam(r, "sessionID"), userFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (a *PlayAPI) quitSession(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Quit(r.Context(), chi.URLParam(r, "sessionID"), userFrom(r)); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *PlayAPI) selectOption(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !a.decode(w, r, &req) {
		return
	}
	snap, err := a.service.Select(r.Context(), chi.URLParam(r, "sessionID"), userFrom(r), *req.Option)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (a *PlayAPI) selectGap(w http.ResponseWriter, r *http.Request) {
	var req gapRequest
	if !a.decode(w, r, &req) {
		return
	}
	snap, err := a.service.SelectGap(r.Context(), chi.URLParam(r, "sessionID"), userFrom(r), *req.Gap, *req.Option)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (a *PlayAPI) submit(w http.ResponseWriter, r *http.Request) {
	outcome, snap, err := a.service.Submit(r.Context(), chi.URLParam(r, "sessionID"), userFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, submitResponse{Outcome: outcome, State: snap})
}

func (a *PlayAPI) continueSession(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.Continue(r.Context(), chi.URLParam(r, "sessionID"), userFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (a *PlayAPI) retryFailed(w http.ResponseWriter, r *http.Request) {
	var req retryRequest
	if !a.decode(w, r, &req) {
		return
	}
	quiz, err := a.service.RetryFailed(r.Context(), req.QuizID, req.WrongQuestionIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, quiz)
}

func (a *PlayAPI) listHistory(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		respondJSON(w, http.StatusNotImplemented, errorPayload{Message: "result history is not configured"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := a.history.History(r.Context(), userFrom(r), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if records == nil {
		records = []domain.ResultRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (a *PlayAPI) validateDraft(w http.ResponseWriter, r *http.Request) {
	var doc authoring.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		respondJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid json body"})
		return
	}
	for i := range doc.Questions {
		if doc.Questions[i].Type == "" {
			doc.Questions[i].Type = authoring.TypeBasic
		}
	}
	payload, err := doc.Build()
	if err != nil {
		respondJSON(w, http.StatusOK, draftResponse{Validation: domain.Invalid(err.Error())})
		return
	}
	respondJSON(w, http.StatusOK, draftResponse{Validation: domain.Valid(), Payload: &payload})
}

func (a *PlayAPI) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid json body"})
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorPayload{Message: err.Error()})
		return false
	}
	return true
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userHeader)
		if userID == "" {
			respondJSON(w, http.StatusUnauthorized, errorPayload{Message: "missing " + userHeader})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, userID)))
	})
}

func userFrom(r *http.Request) string {
	userID, _ := r.Context().Value(userKey).(string)
	return userID
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrParticipantNotFound), errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNothingToRetry), errors.Is(err, domain.ErrInvalidQuiz):
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, errorPayload{Message: err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
